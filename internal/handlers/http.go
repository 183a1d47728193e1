package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"mangonote/internal/config"
	"mangonote/internal/metrics"
	"mangonote/internal/middlewares"
	"mangonote/internal/mindmap"
	"mangonote/internal/services"
	"mangonote/internal/storage"
)

// NoteStore 为笔记服务的最小依赖面；由 *services.NoteService 实现。
type NoteStore interface {
	GetByID(ctx context.Context, id string) (*storage.Note, error)
	List(ctx context.Context, f services.NoteFilter) ([]storage.Note, error)
	Search(ctx context.Context, keyword string, limit int) ([]storage.Note, error)
	Create(ctx context.Context, title, content string, tags []string) (*storage.Note, error)
	Update(ctx context.Context, id string, upd services.NoteUpdate) (*storage.Note, error)
	Delete(ctx context.Context, id string) error
}

// MindmapStore 为导图服务的最小依赖面；由 *services.MindmapService 实现。
type MindmapStore interface {
	GetByNote(ctx context.Context, noteID string) (*storage.Mindmap, error)
	Save(ctx context.Context, noteID string, doc *mindmap.Document) (*storage.Mindmap, error)
	DeleteByNote(ctx context.Context, noteID string) error
	Invalidate(ctx context.Context, noteID string)
}

// Audit 为审计日志的最小依赖面；由 *services.LogService 实现。
type Audit interface {
	Write(ctx context.Context, level, event string, noteID *string, desc, ip, requestID, method, path string, status int)
}

// Handler 聚合所有依赖（配置、服务）并注册所有 HTTP 路由。
type Handler struct {
	cfg     config.Config
	noteSvc NoteStore
	mapSvc  MindmapStore
	logSvc  Audit
	rdb     *redis.Client
}

// New 构造 Handler，将各领域服务注入，用于后续路由注册与处理。
func New(cfg config.Config, ns NoteStore, ms MindmapStore, ls Audit, rdb *redis.Client) *Handler {
	return &Handler{cfg: cfg, noteSvc: ns, mapSvc: ms, logSvc: ls, rdb: rdb}
}

// RegisterRoutes 在 Gin 路由上挂载全部端点（笔记 CRUD、检索、导图读写与运维端点）。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// 写接口限流：按客户端 IP 计数
	window := h.cfg.Limits.Window
	if window <= 0 {
		window = time.Minute
	}
	// 类型化 nil 不能直接塞进接口，否则限流器会对空客户端解引用
	var counter middlewares.RateStore
	if h.rdb != nil {
		counter = h.rdb
	}
	writeLimit := middlewares.RateLimit(counter, "write", h.cfg.Limits.WritePerMinute, window,
		func(c *gin.Context) string { return c.ClientIP() })

	api := r.Group("/api")
	if h.cfg.CORS.EnableAPI {
		api.Use(middlewares.CORS(h.cfg.CORS.AllowedOrigins))
	}

	api.GET("/notes", h.listNotes)
	api.GET("/notes/search", h.searchNotes)
	api.GET("/notes/:id", h.getNote)
	api.POST("/notes", writeLimit, h.createNote)
	api.PUT("/notes/:id", writeLimit, h.updateNote)
	api.DELETE("/notes/:id", writeLimit, h.deleteNote)

	api.GET("/notes/:id/mindmap", h.getMindmapByNote)
	api.PUT("/notes/:id/mindmap", writeLimit, h.putMindmap)
	api.DELETE("/notes/:id/mindmap", writeLimit, h.deleteMindmap)

	// 运维端点
	r.GET("/metrics", h.metricsPage)
	r.GET("/healthz", h.healthz)
}

// @Summary      Prometheus 指标
// @Description  暴露 Prometheus 指标（text/plain; version=0.0.4）
// @Tags         ops
// @Produce      plain
// @Success      200 {string} string
// @Router       /metrics [get]
func (h *Handler) metricsPage(c *gin.Context) { metrics.Exposer()(c) }

// @Summary      健康检查
// @Tags         ops
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /healthz [get]
func (h *Handler) healthz(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) }
