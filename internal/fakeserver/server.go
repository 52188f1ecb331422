// Package fakeserver 内存版 AutoTrader 服务，供测试和本地联调使用。
//
// 所有端点都按真实服务的响应包格式返回；支持按路径注入故障
// （断开连接、畸形响应体、强制状态码）。
package fakeserver

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "fakeserver")

// Config 假服务配置
type Config struct {
	// APIKeys 允许的凭证；为空时任何非空凭证都可通过
	APIKeys []string
	// Accounts 在线的伪账户
	Accounts []string
	// NewOrderID 订单 ID 生成器，默认 uuid
	NewOrderID func() string

	DesktopVersion    string
	DesktopMinVersion string

	// OnRequest 每个请求到达时回调，可为 nil
	OnRequest func(path string)
	// OnFault 注入的故障生效时回调，可为 nil
	OnFault func(path string, kind FaultKind)
}

// FaultKind 故障类型
type FaultKind int

const (
	// FaultDrop 读完请求后直接断开连接，不写任何响应
	FaultDrop FaultKind = iota + 1
	// FaultMalformed 返回 200 和无法解析的响应体
	FaultMalformed
	// FaultStatus 返回指定状态码
	FaultStatus
)

func (k FaultKind) String() string {
	switch k {
	case FaultDrop:
		return "drop"
	case FaultMalformed:
		return "malformed"
	case FaultStatus:
		return "status"
	}
	return "unknown"
}

// Fault 注入到某个路径上的故障，生效 Times 次
type Fault struct {
	Kind   FaultKind
	Status int
	Body   string
	Times  int
}

// Recorded 收到的请求
type Recorded struct {
	Method    string
	Path      string
	APIKey    string
	RequestID string
	Form      map[string]string
	Body      []byte
}

// Server 假服务
type Server struct {
	cfg Config

	mu         sync.Mutex
	keys       map[string]bool
	restricted bool // 只放行 keys 中的凭证
	book       *book
	faults     map[string][]Fault
	hits       map[string]int
	last       map[string]Recorded
}

// New 创建假服务
func New(cfg Config) *Server {
	if cfg.NewOrderID == nil {
		cfg.NewOrderID = uuid.NewString
	}
	if cfg.DesktopVersion == "" {
		cfg.DesktopVersion = "1.0.0"
	}
	if cfg.DesktopMinVersion == "" {
		cfg.DesktopMinVersion = "1.0.0"
	}
	s := &Server{
		cfg:    cfg,
		keys:   make(map[string]bool),
		book:   newBook(cfg.Accounts),
		faults: make(map[string][]Fault),
		hits:   make(map[string]int),
		last:   make(map[string]Recorded),
	}
	for _, k := range cfg.APIKeys {
		s.keys[k] = true
	}
	s.restricted = len(s.keys) > 0
	return s
}

// AllowKey 允许凭证
func (s *Server) AllowKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[apiKey] = true
	s.restricted = true
}

// RevokeKey 吊销凭证，之后的请求返回 403
func (s *Server) RevokeKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, apiKey)
	s.restricted = true
}

// Inject 在 path 上注入故障，按注入顺序依次生效
func (s *Server) Inject(path string, f Fault) {
	if f.Times <= 0 {
		f.Times = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = append(s.faults[path], f)
}

// Hits path 收到的请求数（包括被故障处理的）
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastRequest path 上最近一次请求
func (s *Server) LastRequest(path string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.last[path]
	return r, ok
}

// SeedPosition 预置持仓
func (s *Server) SeedPosition(p PositionSeed) {
	s.book.seedPosition(p)
}

// SeedHolding 预置持股
func (s *Server) SeedHolding(h HoldingSeed) {
	s.book.seedHolding(h)
}

// Router gin 路由
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.record, s.inject, s.authorize)

	r.GET("/account/fetchLivePseudoAccounts", s.handleLiveAccounts)
	r.POST("/command/execute", s.handleExecute)

	trading := r.Group("/trading")
	trading.POST("/placeOrder", s.handlePlaceOrder)
	trading.POST("/placeTvOrder", s.handlePlaceTvOrder)
	trading.POST("/placeRegularOrder", s.handlePlaceFormOrder("REGULAR"))
	trading.POST("/placeBracketOrder", s.handlePlaceFormOrder("BO"))
	trading.POST("/placeCoverOrder", s.handlePlaceFormOrder("CO"))
	trading.POST("/placeAdvancedOrder", s.handlePlaceFormOrder(""))
	trading.POST("/modifyOrderByPlatformId", s.handleModifyOrder)
	trading.POST("/cancelOrderByPlatformId", s.handleCancelOrder)
	trading.POST("/cancelChildOrdersByPlatformId", s.handleCancelChildOrders)
	trading.POST("/cancelAllOrders", s.handleCancelAllOrders)
	trading.POST("/squareOffPosition", s.handleSquareOffPosition)
	trading.POST("/squareOffTvPosition", s.handleSquareOffTvPosition)
	trading.POST("/squareOffPortfolio", s.handleSquareOffPortfolio)
	trading.POST("/adjustHoldings", s.handleAdjustHoldings)
	trading.POST("/readPlatformOrders", s.handleReadOrders)
	trading.POST("/readPlatformPositions", s.handleReadPositions)
	trading.POST("/readPlatformMargins", s.handleReadMargins)
	trading.POST("/readPlatformHoldings", s.handleReadHoldings)
	trading.GET("/autoTraderDesktopVersion", s.handleDesktopVersion)
	trading.GET("/autoTraderDesktopMinVersion", s.handleDesktopMinVersion)

	return r
}

// record 记录请求并计数
func (s *Server) record(c *gin.Context) {
	rec := Recorded{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		APIKey:    c.GetHeader("api-key"),
		RequestID: c.GetHeader("X-Request-Id"),
	}
	if c.Request.Body != nil {
		raw, _ := io.ReadAll(c.Request.Body)
		_ = c.Request.Body.Close()
		rec.Body = raw
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	}
	if c.ContentType() == "application/x-www-form-urlencoded" {
		if err := c.Request.ParseForm(); err == nil {
			rec.Form = make(map[string]string, len(c.Request.PostForm))
			for k := range c.Request.PostForm {
				rec.Form[k] = c.Request.PostForm.Get(k)
			}
		}
	}

	s.mu.Lock()
	s.hits[rec.Path]++
	s.last[rec.Path] = rec
	s.mu.Unlock()

	if s.cfg.OnRequest != nil {
		s.cfg.OnRequest(rec.Path)
	}
	c.Next()
}

// inject 执行注入的故障
func (s *Server) inject(c *gin.Context) {
	path := c.Request.URL.Path

	s.mu.Lock()
	var fault *Fault
	if queue := s.faults[path]; len(queue) > 0 {
		f := queue[0]
		fault = &f
		queue[0].Times--
		if queue[0].Times <= 0 {
			s.faults[path] = queue[1:]
		}
	}
	s.mu.Unlock()

	if fault == nil {
		c.Next()
		return
	}
	if s.cfg.OnFault != nil {
		s.cfg.OnFault(path, fault.Kind)
	}

	switch fault.Kind {
	case FaultDrop:
		hj, ok := c.Writer.(http.Hijacker)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			log.WithError(err).Warn("hijack 失败")
			c.Abort()
			return
		}
		_ = conn.Close()
		c.Abort()
	case FaultMalformed:
		body := fault.Body
		if body == "" {
			body = "{not json"
		}
		c.Data(http.StatusOK, "application/json", []byte(body))
		c.Abort()
	case FaultStatus:
		c.Data(fault.Status, "text/plain", []byte(fault.Body))
		c.Abort()
	default:
		c.Next()
	}
}

// authorize 校验 api-key，失败返回 403
func (s *Server) authorize(c *gin.Context) {
	key := c.GetHeader("api-key")

	s.mu.Lock()
	ok := key != "" && (!s.restricted || s.keys[key])
	s.mu.Unlock()

	if !ok {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.Next()
}
