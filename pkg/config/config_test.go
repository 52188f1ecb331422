package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goautotrader/pkg/ratelimit"
)

// clearEnv 屏蔽宿主机上已有的 AUTOTRADER_* 变量
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUTOTRADER_API_KEY", "AUTOTRADER_SERVICE_URL", "AUTOTRADER_CONNECT_TIMEOUT", "AUTOTRADER_SOCKET_TIMEOUT",
		"AUTOTRADER_MAX_CONNECTIONS", "AUTOTRADER_MAX_CONNECTIONS_PER_ROUTE", "AUTOTRADER_AUTO_RETRY",
		"AUTOTRADER_INSECURE_SKIP_VERIFY", "AUTOTRADER_RATE_LIMIT", "LOG_LEVEL", "LOG_FILE",
		"AUTOTRADER_SECRET_STORE", "AUTOTRADER_PROFILE", "AUTOTRADER_JOURNAL",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://apix.stocksdeveloper.in", cfg.ServiceURL)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 120*time.Second, cfg.SocketTimeout)
	assert.Equal(t, 250, cfg.MaxConnections)
	assert.Equal(t, 200, cfg.MaxConnectionsPerRoute)
	assert.True(t, cfg.AutoRetryOnError)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.Limits())
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "autotrader.yaml", `
api_key: file-key
service_url: http://localhost:9000
connect_timeout: 5s
socket_timeout: 1m
max_connections: 20
max_connections_per_route: 10
auto_retry_on_error: false
rate_limit:
  enabled: true
  read:
    requests: 5
    window: 2s
log:
  level: debug
  file: logs/at.log
journal:
  path: data/journal.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "http://localhost:9000", cfg.ServiceURL)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, time.Minute, cfg.SocketTimeout)
	assert.False(t, cfg.AutoRetryOnError)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "data/journal.db", cfg.Journal.Path)

	limits := cfg.Limits()
	require.NotNil(t, limits)
	assert.Equal(t, ratelimit.Limit{Requests: 5, Window: 2 * time.Second}, limits[ratelimit.GroupRead])
	assert.Equal(t, ratelimit.DefaultLimits()[ratelimit.GroupTrading], limits[ratelimit.GroupTrading])

	sc := cfg.SessionConfig()
	assert.Equal(t, "file-key", sc.APIKey)
	assert.Equal(t, 20, sc.MaxConnections)
	assert.Equal(t, 10, sc.MaxConnectionsPerRoute)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "logs/at.log", lc.OutputFile)
	assert.True(t, lc.Compress)
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "autotrader.json", `{"api_key":"json-key","socket_timeout":"90s","connect_timeout":1500,"insecure_skip_verify":true}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json-key", cfg.APIKey)
	assert.Equal(t, 90*time.Second, cfg.SocketTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectTimeout)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.True(t, cfg.AutoRetryOnError, "未配置时保持默认值")
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "autotrader.yml", "api_key: file-key\nauto_retry_on_error: true\n")
	t.Setenv("AUTOTRADER_API_KEY", "env-key")
	t.Setenv("AUTOTRADER_AUTO_RETRY", "false")
	t.Setenv("AUTOTRADER_SOCKET_TIMEOUT", "10s")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.False(t, cfg.AutoRetryOnError)
	assert.Equal(t, 10*time.Second, cfg.SocketTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "conf.toml", "x = 1"))
	assert.ErrorContains(t, err, "不支持的配置文件格式")

	_, err = Load(writeFile(t, "bad.yaml", "connect_timeout: soon\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"服务地址为空", func(c *Config) { c.ServiceURL = "" }},
		{"服务地址协议错误", func(c *Config) { c.ServiceURL = "ftp://x" }},
		{"连接超时", func(c *Config) { c.ConnectTimeout = 0 }},
		{"读取超时", func(c *Config) { c.SocketTimeout = -time.Second }},
		{"连接池", func(c *Config) { c.MaxConnections = 0 }},
		{"单路由连接数", func(c *Config) { c.MaxConnectionsPerRoute = 0 }},
		{"单路由大于总数", func(c *Config) { c.MaxConnectionsPerRoute = c.MaxConnections + 1 }},
		{"限额为负", func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.Read.Requests = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
