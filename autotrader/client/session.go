package client

import (
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderAPIKey 携带凭证的请求头
	HeaderAPIKey = "api-key"
	// HeaderRequestID 每次调用的关联 ID，重试时保持不变
	HeaderRequestID = "X-Request-Id"

	DefaultServiceURL             = "https://apix.stocksdeveloper.in"
	DefaultConnectTimeout         = 30 * time.Second
	DefaultSocketTimeout          = 120 * time.Second
	DefaultMaxConnections         = 250
	DefaultMaxConnectionsPerRoute = 200

	userAgent = "goautotrader"
)

var (
	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("session is closed")
	// ErrEmptyAPIKey 凭证为空
	ErrEmptyAPIKey = errors.New("api key is empty")
)

var sessionLog = logrus.WithField("component", "autotrader_session")

// SessionConfig 会话（连接池）配置
type SessionConfig struct {
	APIKey                 string
	ServiceURL             string
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	MaxConnections         int
	MaxConnectionsPerRoute int
	// InsecureSkipVerify 跳过 TLS 证书校验，仅用于同一运营方的可信端点
	InsecureSkipVerify bool
	// NewRoundTripper 自定义底层传输，每次构建连接池（包括轮换凭证）都会调用一次。
	// 返回值若实现 Close() error，关闭会话时会调用它。为 nil 时使用 http.Transport。
	NewRoundTripper func(SessionConfig) http.RoundTripper
}

// DefaultSessionConfig 使用默认参数的配置
func DefaultSessionConfig(apiKey string) SessionConfig {
	return SessionConfig{APIKey: apiKey}.withDefaults()
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = DefaultSocketTimeout
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.MaxConnectionsPerRoute <= 0 {
		c.MaxConnectionsPerRoute = DefaultMaxConnectionsPerRoute
	}
	return c
}

func (c SessionConfig) validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrEmptyAPIKey
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil {
		return errors.Wrapf(err, "解析服务地址失败 %q", c.ServiceURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("服务地址必须是 http(s): %q", c.ServiceURL)
	}
	return nil
}

// transport 绑定到某个凭证的连接池，构建后不再修改
type transport struct {
	apiKey string
	http   *resty.Client
	rt     http.RoundTripper
}

func newTransport(cfg SessionConfig, apiKey string) *transport {
	var rt http.RoundTripper
	if cfg.NewRoundTripper != nil {
		rt = cfg.NewRoundTripper(cfg)
	} else {
		rt = newHTTPTransport(cfg)
	}

	hc := resty.New().
		SetTransport(singleShot{next: rt}).
		SetBaseURL(strings.TrimSuffix(cfg.ServiceURL, "/")).
		SetTimeout(cfg.ConnectTimeout+cfg.SocketTimeout).
		SetHeader(HeaderAPIKey, apiKey).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetLogger(sessionLog)

	return &transport{apiKey: apiKey, http: hc, rt: rt}
}

func newHTTPTransport(cfg SessionConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxConnections,
		MaxIdleConnsPerHost:   cfg.MaxConnectionsPerRoute,
		MaxConnsPerHost:       cfg.MaxConnectionsPerRoute,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.SocketTimeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // 显式配置项
	}
}

// singleShot 让每个请求在底层传输上只发送一次。
//
// http.Transport 在复用的空闲连接被对端关闭时，会自行重发可重放的请求
// （GET，或带 GetBody 的请求），这些重发不经过 RetryPolicy，也不计入发送次数。
// 去掉 GetBody 并给空请求体换上非 NoBody 的空 reader 后，请求不再可重放；
// 空请求体在写出前会被探测为空，线路上的 GET 不变。
type singleShot struct {
	next http.RoundTripper
}

func (s singleShot) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.GetBody = nil
	if (r.Body == nil || r.Body == http.NoBody) && (r.Method == "" || r.Method == http.MethodGet || r.Method == http.MethodHead) {
		r.Body = io.NopCloser(strings.NewReader(""))
		r.ContentLength = 0
	}
	return s.next.RoundTrip(r)
}

// close 释放连接池。已发出的请求不受影响，完成后连接由 IdleConnTimeout 回收。
func (t *transport) close() error {
	switch rt := t.rt.(type) {
	case interface{ Close() error }:
		return rt.Close()
	case interface{ CloseIdleConnections() }:
		rt.CloseIdleConnections()
	}
	return nil
}

// Session 一个凭证对应的连接池
//
// 当前连接池通过原子指针发布；轮换凭证时整体替换，不会出现半更新状态。
type Session struct {
	cfg SessionConfig

	mu     sync.Mutex // 串行化 RotateAPIKey / Close
	closed bool
	cur    atomic.Pointer[transport]
}

// NewSession 创建会话并构建连接池
func NewSession(cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Session{cfg: cfg}
	s.cur.Store(newTransport(cfg, cfg.APIKey))

	sessionLog.WithFields(logrus.Fields{
		"service_url":     cfg.ServiceURL,
		"max_conns":       cfg.MaxConnections,
		"max_conns_route": cfg.MaxConnectionsPerRoute,
		"insecure":        cfg.InsecureSkipVerify,
	}).Debug("会话已创建")
	if cfg.InsecureSkipVerify {
		sessionLog.Warn("已关闭 TLS 证书校验，仅应在可信端点上使用")
	}
	return s, nil
}

// APIKey 当前使用的凭证；会话关闭后为空
func (s *Session) APIKey() string {
	if t := s.cur.Load(); t != nil {
		return t.apiKey
	}
	return ""
}

// ServiceURL 服务地址
func (s *Session) ServiceURL() string {
	return s.cfg.ServiceURL
}

// Closed 会话是否已关闭
func (s *Session) Closed() bool {
	return s.cur.Load() == nil
}

// RotateAPIKey 轮换凭证：构建只换凭证的新连接池，原子替换后关闭旧连接池
func (s *Session) RotateAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return ErrEmptyAPIKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	next := newTransport(s.cfg, apiKey)
	prev := s.cur.Swap(next)
	s.closeTransport(prev)

	sessionLog.Info("凭证已轮换")
	return nil
}

// Close 关闭会话。可重复调用，关闭失败只记录日志。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.closeTransport(s.cur.Swap(nil))
	sessionLog.Debug("会话已关闭")
}

func (s *Session) closeTransport(t *transport) {
	if t == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			sessionLog.Errorf("关闭连接池时发生 panic: %v", r)
		}
	}()
	if err := t.close(); err != nil {
		sessionLog.WithError(err).Error("关闭连接池失败")
	}
}

// acquire 取当前连接池
func (s *Session) acquire() (*transport, error) {
	if t := s.cur.Load(); t != nil {
		return t, nil
	}
	return nil, ErrSessionClosed
}
