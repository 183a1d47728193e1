package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config 保存进程级配置（仅使用配置文件或内置默认值）。
// 字段提供开发友好的默认值；生产环境请在 config.yaml 中覆盖。
type Config struct {
	Env      string
	HTTPAddr string
	MySQL    MySQLConfig
	Redis    RedisConfig
	Note     NoteConfig
	Mindmap  MindmapConfig
	Limits   LimitConfig
	CORS     CORSConfig
	Security SecurityConfig
}

type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Params   string
}

func (m MySQLConfig) DSN() string {
	port := m.Port
	if port == 0 {
		port = 3306
	}
	host := m.Host
	if host == "" {
		host = "127.0.0.1"
	}
	db := m.DBName
	if db == "" {
		db = "mangonote"
	}
	params := m.Params
	if params == "" {
		params = "parseTime=true&loc=Local&charset=utf8mb4,utf8"
	}
	// 注意：Password 可能为空（本地无密码开发），生产强烈建议设置强密码
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, host, port, db, params)
}

func (m MySQLConfig) DSNMasked() string {
	masked := m
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// NoteConfig 约束笔记字段与列表分页。
type NoteConfig struct {
	// 标题最大长度（字符数）
	MaxTitleLen int
	// 正文最大字节数
	MaxContentBytes int
	// 列表默认/最大分页大小
	DefaultPageSize int
	MaxPageSize     int
}

// MindmapConfig 约束思维导图文档与缓存策略。
type MindmapConfig struct {
	// Redis 读穿缓存的 TTL；为 0 表示不缓存
	CacheTTL time.Duration
	// 单个文档允许的最大节点数
	MaxNodes int
	// 节点树最大深度
	MaxDepth int
}

type LimitConfig struct {
	// 写接口（创建/更新/删除）每窗口允许的请求数，按客户端 IP 计
	WritePerMinute int
	// 时间窗口（默认 1m）
	Window time.Duration
}

type CORSConfig struct {
	// 是否为 /api 启用 CORS（跨域）；默认关闭
	EnableAPI bool
	// 允许的来源，仅在 EnableAPI=true 时生效
	AllowedOrigins []string
}

type SecurityConfig struct {
	HSTS struct {
		Enabled           bool
		MaxAgeSeconds     int
		IncludeSubdomains bool
	}
}

// Load 生成配置：先使用内置默认值，再用同目录的配置文件（config.yaml/yml/json）覆盖。
// 默认：MySQL 127.0.0.1:3306 用户 root/123456；Redis 127.0.0.1:6379 无密码。
func Load() Config {
	// 仅使用配置文件；代码内提供开发友好的默认值作为兜底。
	// 1) 默认值（本地开发可直接运行）
	cfg := Config{
		Env:      "dev",
		HTTPAddr: ":8080",
		MySQL:    MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "123456", DBName: "mangonote", Params: "parseTime=true&loc=Local&charset=utf8mb4,utf8"},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379", DB: 0, Password: ""},
		Note:     NoteConfig{MaxTitleLen: 255, MaxContentBytes: 1 << 20, DefaultPageSize: 20, MaxPageSize: 100},
		Mindmap:  MindmapConfig{CacheTTL: 10 * time.Minute, MaxNodes: 2000, MaxDepth: 16},
		Limits:   LimitConfig{WritePerMinute: 120, Window: time.Minute},
		CORS:     CORSConfig{EnableAPI: false},
		Security: func() SecurityConfig {
			var s SecurityConfig
			s.HSTS.Enabled = true
			s.HSTS.MaxAgeSeconds = 31536000
			s.HSTS.IncludeSubdomains = true
			return s
		}(),
	}

	// 2) 配置文件覆盖（若存在）
	if path := FirstExisting("config.yaml", "config.yml", "config.json"); path != "" {
		_ = loadFromFile(path, &cfg)
	}
	return cfg
}

// 配置文件格式：YAML 或 JSON。仅非零值会覆盖现有字段。
func loadFromFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var fm fileModel
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else if ext == ".json" || ext == "" {
		if err := json.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else {
		return errors.New("unsupported config file format")
	}
	fm.apply(cfg)
	return nil
}

// --- 配置文件模型与合并逻辑 ---

type fileModel struct {
	Env      string        `yaml:"env" json:"env"`
	HTTPAddr string        `yaml:"http_addr" json:"http_addr"`
	MySQL    *fileMySQL    `yaml:"mysql" json:"mysql"`
	Redis    *fileRedis    `yaml:"redis" json:"redis"`
	Note     *fileNote     `yaml:"note" json:"note"`
	Mindmap  *fileMindmap  `yaml:"mindmap" json:"mindmap"`
	Limits   *fileLimits   `yaml:"limits" json:"limits"`
	CORS     *fileCORS     `yaml:"cors" json:"cors"`
	Security *fileSecurity `yaml:"security" json:"security"`
}

type fileMySQL struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db" json:"db"`
	Params   string `yaml:"params" json:"params"`
}
type fileRedis struct {
	Addr     string `yaml:"addr" json:"addr"`
	DB       int    `yaml:"db" json:"db"`
	Password string `yaml:"password" json:"password"`
}
type fileNote struct {
	MaxTitleLen     int `yaml:"max_title_len" json:"max_title_len"`
	MaxContentBytes int `yaml:"max_content_bytes" json:"max_content_bytes"`
	DefaultPageSize int `yaml:"default_page_size" json:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size" json:"max_page_size"`
}
type fileMindmap struct {
	CacheTTL string `yaml:"cache_ttl" json:"cache_ttl"`
	MaxNodes int    `yaml:"max_nodes" json:"max_nodes"`
	MaxDepth int    `yaml:"max_depth" json:"max_depth"`
}
type fileLimits struct {
	WritePerMinute int    `yaml:"write_per_minute" json:"write_per_minute"`
	Window         string `yaml:"window" json:"window"`
}
type fileCORS struct {
	EnableAPI      *bool    `yaml:"enable_api" json:"enable_api"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}
type fileSecurity struct {
	HSTS struct {
		Enabled           *bool `yaml:"enabled" json:"enabled"`
		MaxAge            int   `yaml:"max_age" json:"max_age"`
		IncludeSubdomains *bool `yaml:"include_subdomains" json:"include_subdomains"`
	} `yaml:"hsts" json:"hsts"`
}

func (fm *fileModel) apply(cfg *Config) {
	if fm.Env != "" {
		cfg.Env = fm.Env
	}
	if fm.HTTPAddr != "" {
		cfg.HTTPAddr = fm.HTTPAddr
	}
	if fm.MySQL != nil {
		if fm.MySQL.Host != "" {
			cfg.MySQL.Host = fm.MySQL.Host
		}
		if fm.MySQL.Port != 0 {
			cfg.MySQL.Port = fm.MySQL.Port
		}
		if fm.MySQL.User != "" {
			cfg.MySQL.User = fm.MySQL.User
		}
		if fm.MySQL.Password != "" {
			cfg.MySQL.Password = fm.MySQL.Password
		}
		if fm.MySQL.DBName != "" {
			cfg.MySQL.DBName = fm.MySQL.DBName
		}
		if fm.MySQL.Params != "" {
			cfg.MySQL.Params = fm.MySQL.Params
		}
	}
	if fm.Redis != nil {
		if fm.Redis.Addr != "" {
			cfg.Redis.Addr = fm.Redis.Addr
		}
		if fm.Redis.DB != 0 {
			cfg.Redis.DB = fm.Redis.DB
		}
		if fm.Redis.Password != "" {
			cfg.Redis.Password = fm.Redis.Password
		}
	}
	if fm.Note != nil {
		if fm.Note.MaxTitleLen != 0 {
			cfg.Note.MaxTitleLen = fm.Note.MaxTitleLen
		}
		if fm.Note.MaxContentBytes != 0 {
			cfg.Note.MaxContentBytes = fm.Note.MaxContentBytes
		}
		if fm.Note.DefaultPageSize != 0 {
			cfg.Note.DefaultPageSize = fm.Note.DefaultPageSize
		}
		if fm.Note.MaxPageSize != 0 {
			cfg.Note.MaxPageSize = fm.Note.MaxPageSize
		}
	}
	if fm.Mindmap != nil {
		if fm.Mindmap.CacheTTL != "" {
			if d, err := time.ParseDuration(fm.Mindmap.CacheTTL); err == nil {
				cfg.Mindmap.CacheTTL = d
			}
		}
		if fm.Mindmap.MaxNodes != 0 {
			cfg.Mindmap.MaxNodes = fm.Mindmap.MaxNodes
		}
		if fm.Mindmap.MaxDepth != 0 {
			cfg.Mindmap.MaxDepth = fm.Mindmap.MaxDepth
		}
	}
	if fm.Limits != nil {
		if fm.Limits.WritePerMinute != 0 {
			cfg.Limits.WritePerMinute = fm.Limits.WritePerMinute
		}
		if fm.Limits.Window != "" {
			if d, err := time.ParseDuration(fm.Limits.Window); err == nil {
				cfg.Limits.Window = d
			}
		}
	}
	if fm.CORS != nil {
		if fm.CORS.EnableAPI != nil {
			cfg.CORS.EnableAPI = *fm.CORS.EnableAPI
		}
		if len(fm.CORS.AllowedOrigins) > 0 {
			cfg.CORS.AllowedOrigins = fm.CORS.AllowedOrigins
		}
	}
	if fm.Security != nil {
		if fm.Security.HSTS.Enabled != nil {
			cfg.Security.HSTS.Enabled = *fm.Security.HSTS.Enabled
		}
		if fm.Security.HSTS.MaxAge != 0 {
			cfg.Security.HSTS.MaxAgeSeconds = fm.Security.HSTS.MaxAge
		}
		if fm.Security.HSTS.IncludeSubdomains != nil {
			cfg.Security.HSTS.IncludeSubdomains = *fm.Security.HSTS.IncludeSubdomains
		}
	}
}

// FirstExisting 按顺序返回第一个存在的文件路径；若都不存在则返回空字符串。
// 注意：该函数用于在多路径间进行容错查找，如配置文件或静态资源位置。
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
