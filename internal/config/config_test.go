package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 20, cfg.Note.DefaultPageSize)
	require.Equal(t, 10*time.Minute, cfg.Mindmap.CacheTTL)
	require.True(t, cfg.Security.HSTS.Enabled)
}

func TestLoadFromFileOverridesNonZeroOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
env: prod
http_addr: ":9090"
mysql:
  host: db.internal
  password: s3cret
mindmap:
  cache_ttl: 30s
  max_nodes: 500
limits:
  write_per_minute: 10
cors:
  enable_api: true
  allowed_origins: ["https://app.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := Load()
	require.NoError(t, loadFromFile(path, &cfg))

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "db.internal", cfg.MySQL.Host)
	require.Equal(t, "s3cret", cfg.MySQL.Password)
	// 未覆盖字段保持默认
	require.Equal(t, 3306, cfg.MySQL.Port)
	require.Equal(t, "root", cfg.MySQL.User)
	require.Equal(t, 30*time.Second, cfg.Mindmap.CacheTTL)
	require.Equal(t, 500, cfg.Mindmap.MaxNodes)
	require.Equal(t, 16, cfg.Mindmap.MaxDepth)
	require.Equal(t, 10, cfg.Limits.WritePerMinute)
	require.True(t, cfg.CORS.EnableAPI)
	require.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFromFileBadDurationKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mindmap:\n  cache_ttl: nonsense\n"), 0o600))

	cfg := Load()
	require.NoError(t, loadFromFile(path, &cfg))
	require.Equal(t, 10*time.Minute, cfg.Mindmap.CacheTTL)
}

func TestDSN(t *testing.T) {
	m := MySQLConfig{User: "app", Password: "pw", Host: "db", Port: 3307, DBName: "notes"}
	require.Equal(t, "app:pw@tcp(db:3307)/notes?parseTime=true&loc=Local&charset=utf8mb4,utf8", m.DSN())
	require.NotContains(t, m.DSNMasked(), "pw@")
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o600))
	require.Equal(t, a, FirstExisting(filepath.Join(dir, "missing.yaml"), a))
	require.Equal(t, "", FirstExisting(filepath.Join(dir, "missing.yaml"), ""))
}
