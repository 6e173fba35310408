package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault 测试默认配置
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "fieldops", cfg.Database.DBName)
	assert.Equal(t, "WO", cfg.Orders.NumberPrefix)
	assert.Equal(t, 200, cfg.Sync.MaxDownloadOrders)
	assert.Equal(t, 100, cfg.Sync.DefaultDiffLimit)
	assert.Equal(t, 5, cfg.Sync.Workers)
	assert.Empty(t, cfg.Webhook.DocumentURL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

// TestLoad_FromFile 测试从配置文件加载
func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
orders:
  number_prefix: FS
sync:
  max_download_orders: 50
log:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// 文件中的值覆盖默认值
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "FS", cfg.Orders.NumberPrefix)
	assert.Equal(t, 50, cfg.Sync.MaxDownloadOrders)
	assert.Equal(t, "error", cfg.Log.Level)

	// 未指定的键保持默认值
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 100, cfg.Sync.DefaultDiffLimit)
}

// TestLoad_MissingFile 指定的配置文件不存在时返回错误
func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

// TestLoad_EnvOverride 环境变量覆盖配置
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "7070")
	t.Setenv("APP_DATABASE_DBNAME", "fieldops_test")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "fieldops_test", cfg.Database.DBName)
}

// TestIsProduction 测试生产环境判定
func TestIsProduction(t *testing.T) {
	assert.False(t, config.IsProduction(nil))
	assert.False(t, config.IsProduction(&config.Config{Env: "development"}))
	assert.True(t, config.IsProduction(&config.Config{Env: "production"}))
}

// TestProductionDefaults 生产环境使用更保守的日志级别和更大的连接池
func TestProductionDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 200, cfg.Database.MaxOpenConns)
}
