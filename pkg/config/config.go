package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/betbot/goautotrader/autotrader/client"
	"github.com/betbot/goautotrader/pkg/logger"
	"github.com/betbot/goautotrader/pkg/ratelimit"
)

// Duration 支持 "30s" 形式的时长，YAML 和 JSON 通用
type Duration time.Duration

// UnmarshalYAML 实现 yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("无效的时长: %s", string(data))
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("无效的时长 %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// LimitConfig 单个分组的限额
type LimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimitConfig 客户端限流配置
type RateLimitConfig struct {
	Enabled bool
	Trading LimitConfig
	Read    LimitConfig
	General LimitConfig
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// SecretStoreConfig 凭证库配置
type SecretStoreConfig struct {
	Path    string // 为空时不使用凭证库
	Profile string
}

// JournalConfig 调用日志库配置
type JournalConfig struct {
	Path string // 为空时不记录
}

// Config 应用配置
type Config struct {
	APIKey                 string
	ServiceURL             string
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	MaxConnections         int
	MaxConnectionsPerRoute int
	AutoRetryOnError       bool // 未收到响应时重试一次
	InsecureSkipVerify     bool // 跳过 TLS 证书校验
	RateLimit              RateLimitConfig
	Log                    LogConfig
	SecretStore            SecretStoreConfig
	Journal                JournalConfig
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	APIKey                 string   `yaml:"api_key" json:"api_key"`
	ServiceURL             string   `yaml:"service_url" json:"service_url"`
	ConnectTimeout         Duration `yaml:"connect_timeout" json:"connect_timeout"`
	SocketTimeout          Duration `yaml:"socket_timeout" json:"socket_timeout"`
	MaxConnections         int      `yaml:"max_connections" json:"max_connections"`
	MaxConnectionsPerRoute int      `yaml:"max_connections_per_route" json:"max_connections_per_route"`
	AutoRetryOnError       *bool    `yaml:"auto_retry_on_error" json:"auto_retry_on_error"`
	InsecureSkipVerify     *bool    `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
	RateLimit              struct {
		Enabled *bool     `yaml:"enabled" json:"enabled"`
		Trading limitFile `yaml:"trading" json:"trading"`
		Read    limitFile `yaml:"read" json:"read"`
		General limitFile `yaml:"general" json:"general"`
	} `yaml:"rate_limit" json:"rate_limit"`
	Log struct {
		Level      string `yaml:"level" json:"level"`
		File       string `yaml:"file" json:"file"`
		MaxSize    int    `yaml:"max_size" json:"max_size"`
		MaxBackups int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age"`
		Compress   *bool  `yaml:"compress" json:"compress"`
	} `yaml:"log" json:"log"`
	SecretStore struct {
		Path    string `yaml:"path" json:"path"`
		Profile string `yaml:"profile" json:"profile"`
	} `yaml:"secret_store" json:"secret_store"`
	Journal struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"journal" json:"journal"`
}

type limitFile struct {
	Requests int      `yaml:"requests" json:"requests"`
	Window   Duration `yaml:"window" json:"window"`
}

// Default 默认配置
func Default() *Config {
	limits := ratelimit.DefaultLimits()
	return &Config{
		ServiceURL:             client.DefaultServiceURL,
		ConnectTimeout:         client.DefaultConnectTimeout,
		SocketTimeout:          client.DefaultSocketTimeout,
		MaxConnections:         client.DefaultMaxConnections,
		MaxConnectionsPerRoute: client.DefaultMaxConnectionsPerRoute,
		AutoRetryOnError:       true,
		RateLimit: RateLimitConfig{
			Trading: LimitConfig(limits[ratelimit.GroupTrading]),
			Read:    LimitConfig(limits[ratelimit.GroupRead]),
			General: LimitConfig(limits[ratelimit.GroupGeneral]),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		SecretStore: SecretStoreConfig{Profile: "default"},
	}
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）；filePath 为空时只用默认值和环境变量
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		cf, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		cfg.applyFile(cf)
	}

	cfg.applyEnv()
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

func (c *Config) applyFile(cf *ConfigFile) {
	setString(&c.APIKey, cf.APIKey)
	setString(&c.ServiceURL, cf.ServiceURL)
	setDuration(&c.ConnectTimeout, time.Duration(cf.ConnectTimeout))
	setDuration(&c.SocketTimeout, time.Duration(cf.SocketTimeout))
	setInt(&c.MaxConnections, cf.MaxConnections)
	setInt(&c.MaxConnectionsPerRoute, cf.MaxConnectionsPerRoute)
	setBool(&c.AutoRetryOnError, cf.AutoRetryOnError)
	setBool(&c.InsecureSkipVerify, cf.InsecureSkipVerify)

	setBool(&c.RateLimit.Enabled, cf.RateLimit.Enabled)
	c.RateLimit.Trading.apply(cf.RateLimit.Trading)
	c.RateLimit.Read.apply(cf.RateLimit.Read)
	c.RateLimit.General.apply(cf.RateLimit.General)

	setString(&c.Log.Level, cf.Log.Level)
	setString(&c.Log.File, cf.Log.File)
	setInt(&c.Log.MaxSize, cf.Log.MaxSize)
	setInt(&c.Log.MaxBackups, cf.Log.MaxBackups)
	setInt(&c.Log.MaxAge, cf.Log.MaxAge)
	setBool(&c.Log.Compress, cf.Log.Compress)

	setString(&c.SecretStore.Path, cf.SecretStore.Path)
	setString(&c.SecretStore.Profile, cf.SecretStore.Profile)
	setString(&c.Journal.Path, cf.Journal.Path)
}

func (l *LimitConfig) apply(f limitFile) {
	setInt(&l.Requests, f.Requests)
	setDuration(&l.Window, time.Duration(f.Window))
}

func (c *Config) applyEnv() {
	c.APIKey = getEnv("AUTOTRADER_API_KEY", c.APIKey)
	c.ServiceURL = getEnv("AUTOTRADER_SERVICE_URL", c.ServiceURL)
	c.ConnectTimeout = parseDurationEnv("AUTOTRADER_CONNECT_TIMEOUT", c.ConnectTimeout)
	c.SocketTimeout = parseDurationEnv("AUTOTRADER_SOCKET_TIMEOUT", c.SocketTimeout)
	c.MaxConnections = parseIntEnv("AUTOTRADER_MAX_CONNECTIONS", c.MaxConnections)
	c.MaxConnectionsPerRoute = parseIntEnv("AUTOTRADER_MAX_CONNECTIONS_PER_ROUTE", c.MaxConnectionsPerRoute)
	c.AutoRetryOnError = parseBoolEnv("AUTOTRADER_AUTO_RETRY", c.AutoRetryOnError)
	c.InsecureSkipVerify = parseBoolEnv("AUTOTRADER_INSECURE_SKIP_VERIFY", c.InsecureSkipVerify)
	c.RateLimit.Enabled = parseBoolEnv("AUTOTRADER_RATE_LIMIT", c.RateLimit.Enabled)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.SecretStore.Path = getEnv("AUTOTRADER_SECRET_STORE", c.SecretStore.Path)
	c.SecretStore.Profile = getEnv("AUTOTRADER_PROFILE", c.SecretStore.Profile)
	c.Journal.Path = getEnv("AUTOTRADER_JOURNAL", c.Journal.Path)
}

// Validate 验证配置；api_key 可能稍后从凭证库解析，这里不检查
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServiceURL) == "" {
		return fmt.Errorf("AUTOTRADER_SERVICE_URL 未配置")
	}
	if !strings.HasPrefix(c.ServiceURL, "http://") && !strings.HasPrefix(c.ServiceURL, "https://") {
		return fmt.Errorf("service_url 必须以 http:// 或 https:// 开头: %s", c.ServiceURL)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout 必须大于 0")
	}
	if c.SocketTimeout <= 0 {
		return fmt.Errorf("socket_timeout 必须大于 0")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max_connections 必须大于 0")
	}
	if c.MaxConnectionsPerRoute <= 0 {
		return fmt.Errorf("max_connections_per_route 必须大于 0")
	}
	if c.MaxConnectionsPerRoute > c.MaxConnections {
		return fmt.Errorf("max_connections_per_route (%d) 不能大于 max_connections (%d)", c.MaxConnectionsPerRoute, c.MaxConnections)
	}
	if c.RateLimit.Enabled {
		for name, l := range map[string]LimitConfig{"trading": c.RateLimit.Trading, "read": c.RateLimit.Read, "general": c.RateLimit.General} {
			if l.Requests < 0 || l.Window < 0 {
				return fmt.Errorf("rate_limit.%s 不能为负数", name)
			}
		}
	}
	return nil
}

// SessionConfig 转成客户端会话配置
func (c *Config) SessionConfig() client.SessionConfig {
	return client.SessionConfig{
		APIKey:                 c.APIKey,
		ServiceURL:             c.ServiceURL,
		ConnectTimeout:         c.ConnectTimeout,
		SocketTimeout:          c.SocketTimeout,
		MaxConnections:         c.MaxConnections,
		MaxConnectionsPerRoute: c.MaxConnectionsPerRoute,
		InsecureSkipVerify:     c.InsecureSkipVerify,
	}
}

// Limits 限流分组配置；未开启限流时返回 nil
func (c *Config) Limits() map[string]ratelimit.Limit {
	if !c.RateLimit.Enabled {
		return nil
	}
	return map[string]ratelimit.Limit{
		ratelimit.GroupTrading: ratelimit.Limit(c.RateLimit.Trading),
		ratelimit.GroupRead:    ratelimit.Limit(c.RateLimit.Read),
		ratelimit.GroupGeneral: ratelimit.Limit(c.RateLimit.General),
	}
}

// LoggerConfig 转成日志配置
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		OutputFile: c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseDurationEnv 解析时长环境变量，例如 "30s"
func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
