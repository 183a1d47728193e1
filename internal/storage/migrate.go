package storage

import (
	"time"

	"gorm.io/gorm"
)

// 本文件定义服务使用的所有 GORM 模型，集中管理数据结构。

// Note 为笔记主体，正文为 Markdown 文本。
type Note struct {
	ID        string `gorm:"primaryKey;size:36"` // UUID
	Title     string `gorm:"size:255"`
	Content   string `gorm:"type:longtext"` // Markdown 正文
	Tags      string `gorm:"type:text"`     // JSON 数组字符串
	Pinned    bool   `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mindmap 为笔记附属的思维导图文档；每篇笔记至多一份。
type Mindmap struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	NoteID    string `gorm:"size:36;uniqueIndex"`
	Title     string `gorm:"size:255"`
	Layout    string `gorm:"size:32"`       // 取值：right 或 both
	Nodes     string `gorm:"type:longtext"` // 节点树 JSON
	Version   int    `gorm:"default:1"`     // 每次保存自增
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LogRecord 为操作审计记录；写入失败不影响主流程。
type LogRecord struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time `gorm:"index"`
	Level       string    `gorm:"size:16;index"`
	Event       string    `gorm:"size:64;index"`
	NoteID      *string   `gorm:"size:36;index"`
	Description string    `gorm:"type:longtext"`
	IPAddress   string    `gorm:"size:64"`
	RequestID   string    `gorm:"size:64;index"`
	Method      string    `gorm:"size:8"`
	Path        string    `gorm:"size:255"`
	Status      int       `gorm:"index"`
}

// autoMigrate 执行数据库自动迁移。
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Note{}, &Mindmap{}, &LogRecord{})
}
