package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"mangonote/internal/mindmap"
	"mangonote/internal/services"
)

// @Summary      查询笔记的思维导图
// @Description  返回附属于指定笔记的导图文档
// @Tags         mindmap-api
// @Produce      json
// @Param        id path string true "笔记 ID"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Router       /api/notes/{id}/mindmap [get]
func (h *Handler) getMindmapByNote(c *gin.Context) {
	noteID := strings.TrimSpace(c.Param("id"))
	if noteID == "" {
		// 空 ID 直接拒绝，不触达服务层
		respondErr(c, 400, "missing note id")
		return
	}
	m, err := h.mapSvc.GetByNote(c, noteID)
	if err != nil {
		if isNotFound(err) {
			respondErr(c, 404, "mindmap not found")
			return
		}
		h.failInternal(c, "mindmap_get_by_note", noteID, err)
		return
	}
	respondOK(c, mindmapView(m))
}

// @Summary      保存笔记的思维导图
// @Description  整体替换导图文档；已存在则版本号自增
// @Tags         mindmap-api
// @Accept       json
// @Produce      json
// @Param        id   path string true "笔记 ID"
// @Param        body body mindmap.Document true "导图文档"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/notes/{id}/mindmap [put]
func (h *Handler) putMindmap(c *gin.Context) {
	noteID := strings.TrimSpace(c.Param("id"))
	if noteID == "" {
		respondErr(c, 400, "missing note id")
		return
	}
	var doc mindmap.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondErr(c, 400, "bad json")
		return
	}
	m, err := h.mapSvc.Save(c, noteID, &doc)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoteMissing):
			respondErr(c, 404, "note not found")
		case isMindmapInputErr(err):
			respondErr(c, 400, err.Error())
		default:
			h.failInternal(c, "mindmap_save", noteID, err)
		}
		return
	}
	respondOK(c, mindmapView(m))
	h.audit(c, "MINDMAP_SAVED", noteID, "mindmap saved")
}

// @Summary      删除笔记的思维导图
// @Tags         mindmap-api
// @Produce      json
// @Param        id path string true "笔记 ID"
// @Success      204 {string} string "No Content"
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/notes/{id}/mindmap [delete]
func (h *Handler) deleteMindmap(c *gin.Context) {
	noteID := strings.TrimSpace(c.Param("id"))
	if noteID == "" {
		respondErr(c, 400, "missing note id")
		return
	}
	if err := h.mapSvc.DeleteByNote(c, noteID); err != nil {
		if isNotFound(err) {
			respondErr(c, 404, "mindmap not found")
			return
		}
		h.failInternal(c, "mindmap_delete", noteID, err)
		return
	}
	c.Status(204)
	h.audit(c, "MINDMAP_DELETED", noteID, "mindmap deleted")
}
