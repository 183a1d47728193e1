// Package handlers 实现全部 HTTP 端点：笔记 CRUD、检索、思维导图读写与运维端点。
// 所有 JSON 响应使用统一的 {success,data|error} 信封；未预期错误统一脱敏为 500。
package handlers
