package services

// 导图服务：按笔记维护思维导图文档，带 Redis 读穿缓存。

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"mangonote/internal/config"
	"mangonote/internal/metrics"
	"mangonote/internal/mindmap"
	"mangonote/internal/storage"
)

// ErrNoteMissing 表示目标笔记不存在，导图无处附着。
var ErrNoteMissing = errors.New("note_missing")

// MindmapService 提供导图文档的读写与缓存失效。
// 缓存键：mindmap:<noteID>，值为 storage.Mindmap 行的 JSON。
type MindmapService struct {
	db  *gorm.DB
	rdb *redis.Client
	cfg config.Config
}

func NewMindmapService(db *gorm.DB, rdb *redis.Client, cfg config.Config) *MindmapService {
	return &MindmapService{db: db, rdb: rdb, cfg: cfg}
}

func cacheKey(noteID string) string { return fmt.Sprintf("mindmap:%s", noteID) }

// GetByNote 返回笔记的导图；优先读缓存，未命中回源 MySQL 并回填。
// 缓存内容损坏时按未命中处理。
func (s *MindmapService) GetByNote(ctx context.Context, noteID string) (*storage.Mindmap, error) {
	if s.cacheEnabled() {
		if b, err := s.rdb.Get(ctx, cacheKey(noteID)).Bytes(); err == nil {
			var m storage.Mindmap
			if err := json.Unmarshal(b, &m); err == nil {
				metrics.MindmapCache.WithLabelValues("hit").Inc()
				return &m, nil
			}
		}
		metrics.MindmapCache.WithLabelValues("miss").Inc()
	}
	var m storage.Mindmap
	if err := s.db.WithContext(ctx).Where("note_id = ?", noteID).First(&m).Error; err != nil {
		return nil, err
	}
	s.fillCache(ctx, &m)
	return &m, nil
}

// Save 校验并整体替换笔记的导图文档；存在则版本号自增，否则新建。
func (s *MindmapService) Save(ctx context.Context, noteID string, doc *mindmap.Document) (*storage.Mindmap, error) {
	if err := doc.Validate(mindmap.Limits{MaxNodes: s.cfg.Mindmap.MaxNodes, MaxDepth: s.cfg.Mindmap.MaxDepth}); err != nil {
		return nil, err
	}
	// 导图必须附着在已存在的笔记上
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&storage.Note{}).Where("id = ?", noteID).Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt == 0 {
		return nil, ErrNoteMissing
	}
	nodes, err := json.Marshal(doc.Root)
	if err != nil {
		return nil, err
	}
	layout := doc.Layout
	if layout == "" {
		layout = mindmap.LayoutRight
	}

	var m storage.Mindmap
	err = s.db.WithContext(ctx).Where("note_id = ?", noteID).First(&m).Error
	switch {
	case err == nil:
		m.Title = doc.Title
		m.Layout = layout
		m.Nodes = string(nodes)
		m.Version++
		m.UpdatedAt = time.Now()
		if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = storage.Mindmap{NoteID: noteID, Title: doc.Title, Layout: layout, Nodes: string(nodes), Version: 1}
		if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
			// 并发首写时唯一索引冲突，重走更新分支
			if isDuplicateKey(err) {
				return s.Save(ctx, noteID, doc)
			}
			return nil, err
		}
	default:
		return nil, err
	}
	s.Invalidate(ctx, noteID)
	return &m, nil
}

// DeleteByNote 删除笔记的导图并使缓存失效。
func (s *MindmapService) DeleteByNote(ctx context.Context, noteID string) error {
	res := s.db.WithContext(ctx).Where("note_id = ?", noteID).Delete(&storage.Mindmap{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.Invalidate(ctx, noteID)
	return nil
}

// Invalidate 清除笔记导图的缓存条目（尽力而为）。
func (s *MindmapService) Invalidate(ctx context.Context, noteID string) {
	if s.cacheEnabled() {
		_ = s.rdb.Del(ctx, cacheKey(noteID)).Err()
	}
}

// isDuplicateKey 识别 note_id 唯一索引的冲突（MySQL 1062）。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func (s *MindmapService) cacheEnabled() bool {
	return s.rdb != nil && s.cfg.Mindmap.CacheTTL > 0
}

func (s *MindmapService) fillCache(ctx context.Context, m *storage.Mindmap) {
	if !s.cacheEnabled() {
		return
	}
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = s.rdb.Set(ctx, cacheKey(m.NoteID), b, s.cfg.Mindmap.CacheTTL).Err()
}
