package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mangonote/internal/mindmap"
	"mangonote/internal/services"
	"mangonote/internal/storage"
)

// 统一响应信封：成功 {"success":true,"data":...}，失败 {"success":false,"error":"..."}。
// 所有 JSON 端点（含限流中间件）都使用这一形状。

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(200, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(201, gin.H{"success": true, "data": data})
}

func respondErr(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// failInternal 记录未预期错误并返回脱敏的 500 响应。
// op 为操作标签（如 note_fetch），note_id 与 request_id 一并写入日志；
// 原始错误只进日志，绝不回传给客户端。
func (h *Handler) failInternal(c *gin.Context, op, noteID string, err error) {
	log.WithFields(log.Fields{
		"op":         op,
		"note_id":    noteID,
		"request_id": c.GetString("request_id"),
		"ip":         c.ClientIP(),
	}).WithError(err).Error("request failed")
	respondErr(c, 500, "internal error")
}

// isNotFound 判断服务层错误是否为"记录不存在"。
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isMindmapInputErr 判断导图文档校验类错误（应映射为 400）。
func isMindmapInputErr(err error) bool {
	return errors.Is(err, mindmap.ErrEmptyDocument) ||
		errors.Is(err, mindmap.ErrBadLayout) ||
		errors.Is(err, mindmap.ErrTooManyNodes) ||
		errors.Is(err, mindmap.ErrTooDeep) ||
		errors.Is(err, mindmap.ErrBadNode) ||
		errors.Is(err, mindmap.ErrDuplicateID)
}

// --- 视图模型 ---

func noteView(n *storage.Note) gin.H {
	return gin.H{
		"id":         n.ID,
		"title":      n.Title,
		"content":    n.Content,
		"tags":       services.DecodeTags(n.Tags),
		"pinned":     n.Pinned,
		"created_at": n.CreatedAt.Unix(),
		"updated_at": n.UpdatedAt.Unix(),
	}
}

// noteListView 省略正文，避免列表响应过大。
func noteListView(n *storage.Note) gin.H {
	return gin.H{
		"id":         n.ID,
		"title":      n.Title,
		"tags":       services.DecodeTags(n.Tags),
		"pinned":     n.Pinned,
		"created_at": n.CreatedAt.Unix(),
		"updated_at": n.UpdatedAt.Unix(),
	}
}

func mindmapView(m *storage.Mindmap) gin.H {
	return gin.H{
		"note_id":    m.NoteID,
		"title":      m.Title,
		"layout":     m.Layout,
		"root":       json.RawMessage(m.Nodes),
		"version":    m.Version,
		"created_at": m.CreatedAt.Unix(),
		"updated_at": m.UpdatedAt.Unix(),
	}
}

// audit 在响应写出之后调用，才能拿到最终状态码。
func (h *Handler) audit(c *gin.Context, event string, noteID string, desc string) {
	if h.logSvc == nil {
		return
	}
	h.logSvc.Write(c, "INFO", event, &noteID, desc, c.ClientIP(), c.GetString("request_id"),
		c.Request.Method, c.FullPath(), c.Writer.Status())
}
