package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"mangonote/internal/storage"
)

// LogService 将操作审计日志持久化到数据库。
type LogService struct{ db *gorm.DB }

func NewLogService(db *gorm.DB) *LogService { return &LogService{db: db} }

// Write 写入一条审计日志（尽力而为，失败不回传）。
func (s *LogService) Write(ctx context.Context, level, event string, noteID *string, desc, ip, requestID, method, path string, status int) {
	_ = s.db.WithContext(ctx).Create(&storage.LogRecord{
		Timestamp:   time.Now(),
		Level:       level,
		Event:       event,
		NoteID:      noteID,
		Description: desc,
		IPAddress:   ip,
		RequestID:   requestID,
		Method:      method,
		Path:        path,
		Status:      status,
	}).Error
}
