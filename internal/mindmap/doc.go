// Package mindmap 定义思维导图文档的结构与形状校验。
// 文档内容由客户端提供并整体替换，服务端不做导图生成。
package mindmap
