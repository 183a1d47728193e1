// Package services 为领域服务层：笔记 CRUD、思维导图文档的读写与缓存、操作审计。
// handlers 只依赖该层暴露的方法，不直接接触 GORM 或 Redis。
package services
