package services

// 笔记服务：提供笔记的查询、创建、更新与删除能力。

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mangonote/internal/config"
	"mangonote/internal/storage"
)

// 输入校验错误：handlers 据此返回 400 而非 500。
var (
	ErrTitleRequired = errors.New("title_required")
	ErrTitleTooLong  = errors.New("title_too_long")
	ErrContentTooBig = errors.New("content_too_big")
)

// NoteService 提供笔记 CRUD 与检索。
type NoteService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewNoteService(db *gorm.DB, cfg config.Config) *NoteService {
	return &NoteService{db: db, cfg: cfg}
}

func (s *NoteService) GetByID(ctx context.Context, id string) (*storage.Note, error) {
	var n storage.Note
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// NoteFilter 为列表查询条件；零值字段表示不过滤。
type NoteFilter struct {
	Tag    string
	Pinned *bool
	Limit  int
	Offset int
}

// List 按更新时间倒序返回笔记；置顶笔记排在前面。
func (s *NoteService) List(ctx context.Context, f NoteFilter) ([]storage.Note, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = s.cfg.Note.DefaultPageSize
	}
	if max := s.cfg.Note.MaxPageSize; max > 0 && limit > max {
		limit = max
	}
	q := s.db.WithContext(ctx).Model(&storage.Note{})
	if f.Tag != "" {
		// Tags 为 JSON 数组字符串，按带引号的元素匹配
		q = q.Where("tags LIKE ?", "%\""+f.Tag+"\"%")
	}
	if f.Pinned != nil {
		q = q.Where("pinned = ?", *f.Pinned)
	}
	var notes []storage.Note
	if err := q.Order("pinned DESC, updated_at DESC").Limit(limit).Offset(f.Offset).Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// Search 在标题与正文中做 LIKE 检索。
func (s *NoteService) Search(ctx context.Context, keyword string, limit int) ([]storage.Note, error) {
	if limit <= 0 {
		limit = s.cfg.Note.DefaultPageSize
	}
	if max := s.cfg.Note.MaxPageSize; max > 0 && limit > max {
		limit = max
	}
	like := "%" + keyword + "%"
	var notes []storage.Note
	err := s.db.WithContext(ctx).
		Where("title LIKE ? OR content LIKE ?", like, like).
		Order("updated_at DESC").Limit(limit).Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// Create 新建笔记并分配 UUID。
func (s *NoteService) Create(ctx context.Context, title, content string, tags []string) (*storage.Note, error) {
	title = strings.TrimSpace(title)
	if err := s.checkFields(title, content); err != nil {
		return nil, err
	}
	n := &storage.Note{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		Tags:    encodeTags(tags),
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// NoteUpdate 为部分更新载荷；nil 字段保持不变。
type NoteUpdate struct {
	Title   *string
	Content *string
	Tags    *[]string
	Pinned  *bool
}

// Update 按 NoteUpdate 做部分更新，返回更新后的笔记。
func (s *NoteService) Update(ctx context.Context, id string, upd NoteUpdate) (*storage.Note, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		n.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.Tags != nil {
		n.Tags = encodeTags(*upd.Tags)
	}
	if upd.Pinned != nil {
		n.Pinned = *upd.Pinned
	}
	if err := s.checkFields(n.Title, n.Content); err != nil {
		return nil, err
	}
	n.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// Delete 删除笔记及其附属思维导图（同一事务）。
func (s *NoteService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&storage.Note{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("note_id = ?", id).Delete(&storage.Mindmap{}).Error
	})
}

func (s *NoteService) checkFields(title, content string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if max := s.cfg.Note.MaxTitleLen; max > 0 && len([]rune(title)) > max {
		return ErrTitleTooLong
	}
	if max := s.cfg.Note.MaxContentBytes; max > 0 && len(content) > max {
		return ErrContentTooBig
	}
	return nil
}

// IsInputErr 判断错误是否属于输入校验类（应映射为 400）。
func IsInputErr(err error) bool {
	return errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrTitleTooLong) || errors.Is(err, ErrContentTooBig)
}

// encodeTags 将标签序列化为 JSON 数组字符串；空列表存空串。
func encodeTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return ""
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// DecodeTags 解析存储中的标签 JSON；空串返回空切片。
func DecodeTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}
