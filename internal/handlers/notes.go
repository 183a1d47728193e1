package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangonote/internal/metrics"
	"mangonote/internal/services"
)

// @Summary      查询笔记
// @Description  按 ID 返回单篇笔记
// @Tags         note-api
// @Produce      json
// @Param        id path string true "笔记 ID"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Router       /api/notes/{id} [get]
func (h *Handler) getNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		// 空 ID 直接拒绝，不触达服务层
		respondErr(c, 400, "missing note id")
		return
	}
	n, err := h.noteSvc.GetByID(c, id)
	if err != nil {
		if isNotFound(err) {
			respondErr(c, 404, "note not found")
			return
		}
		h.failInternal(c, "note_fetch", id, err)
		return
	}
	respondOK(c, noteView(n))
}

// @Summary      笔记列表
// @Description  按更新时间倒序分页返回；支持 tag 与 pinned 过滤
// @Tags         note-api
// @Produce      json
// @Param        limit  query int    false "分页大小"
// @Param        offset query int    false "偏移"
// @Param        tag    query string false "按标签过滤"
// @Param        pinned query bool   false "仅置顶/仅未置顶"
// @Success      200 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Router       /api/notes [get]
func (h *Handler) listNotes(c *gin.Context) {
	var f services.NoteFilter
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	f.Tag = c.Query("tag")
	if v := c.Query("pinned"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Pinned = &b
		}
	}
	list, err := h.noteSvc.List(c, f)
	if err != nil {
		h.failInternal(c, "note_list", "", err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, noteListView(&list[i]))
	}
	respondOK(c, out)
}

// @Summary      笔记检索
// @Description  在标题与正文中做关键字检索
// @Tags         note-api
// @Produce      json
// @Param        q     query string true  "关键字"
// @Param        limit query int    false "返回数量上限"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /api/notes/search [get]
func (h *Handler) searchNotes(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondErr(c, 400, "missing query")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	list, err := h.noteSvc.Search(c, q, limit)
	if err != nil {
		h.failInternal(c, "note_search", "", err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, noteListView(&list[i]))
	}
	respondOK(c, out)
}

// @Summary      创建笔记
// @Tags         note-api
// @Accept       json
// @Produce      json
// @Param        body body object true "{title,content,tags}"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /api/notes [post]
func (h *Handler) createNote(c *gin.Context) {
	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, 400, "bad json")
		return
	}
	n, err := h.noteSvc.Create(c, req.Title, req.Content, req.Tags)
	if err != nil {
		if services.IsInputErr(err) {
			respondErr(c, 400, err.Error())
			return
		}
		h.failInternal(c, "note_create", "", err)
		return
	}
	metrics.NotesCreated.Inc()
	respondCreated(c, noteView(n))
	h.audit(c, "NOTE_CREATED", n.ID, "note created")
}

// @Summary      更新笔记
// @Description  部分更新：缺省字段保持不变
// @Tags         note-api
// @Accept       json
// @Produce      json
// @Param        id   path string true "笔记 ID"
// @Param        body body object true "{title,content,tags,pinned}"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/notes/{id} [put]
func (h *Handler) updateNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondErr(c, 400, "missing note id")
		return
	}
	var req struct {
		Title   *string   `json:"title"`
		Content *string   `json:"content"`
		Tags    *[]string `json:"tags"`
		Pinned  *bool     `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, 400, "bad json")
		return
	}
	n, err := h.noteSvc.Update(c, id, services.NoteUpdate{
		Title: req.Title, Content: req.Content, Tags: req.Tags, Pinned: req.Pinned,
	})
	if err != nil {
		switch {
		case isNotFound(err):
			respondErr(c, 404, "note not found")
		case services.IsInputErr(err):
			respondErr(c, 400, err.Error())
		default:
			h.failInternal(c, "note_update", id, err)
		}
		return
	}
	respondOK(c, noteView(n))
	h.audit(c, "NOTE_UPDATED", id, "note updated")
}

// @Summary      删除笔记
// @Description  删除笔记并带走附属的思维导图
// @Tags         note-api
// @Produce      json
// @Param        id path string true "笔记 ID"
// @Success      204 {string} string "No Content"
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/notes/{id} [delete]
func (h *Handler) deleteNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondErr(c, 400, "missing note id")
		return
	}
	if err := h.noteSvc.Delete(c, id); err != nil {
		if isNotFound(err) {
			respondErr(c, 404, "note not found")
			return
		}
		h.failInternal(c, "note_delete", id, err)
		return
	}
	// 行随事务一并删除，这里只需清缓存
	h.mapSvc.Invalidate(c, id)
	c.Status(204)
	h.audit(c, "NOTE_DELETED", id, "note deleted")
}
