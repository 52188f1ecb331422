package client

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goautotrader/autotrader/types"
)

var log = logrus.WithField("component", "autotrader_client")

// Limiter 发送前的限流
type Limiter interface {
	Wait(ctx context.Context, group string) error
}

// Client AutoTrader 客户端
//
// 所有操作同步执行，返回 Result；传输层错误不会以 panic 形式抛出。
type Client struct {
	session  *Session
	retry    RetryPolicy
	limiter  Limiter
	observer Observer
}

// Option 客户端选项
type Option func(*Client)

// WithRetry 开启/关闭"未收到响应"时的单次重试
func WithRetry(enabled bool) Option {
	return func(c *Client) {
		c.retry = RetryPolicy{Enabled: enabled}
	}
}

// WithLimiter 设置发送前的限流器，例如 *ratelimit.RateLimitManager
func WithLimiter(l Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithObserver 每次调用结束后通知 o
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New 基于会话创建客户端。默认开启自动重试。
func New(session *Session, opts ...Option) *Client {
	c := &Client{
		session: session,
		retry:   RetryPolicy{Enabled: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session 底层会话
func (c *Client) Session() *Session {
	return c.session
}

// SetAPIKey 轮换会话凭证
func (c *Client) SetAPIKey(apiKey string) error {
	return c.session.RotateAPIKey(apiKey)
}

// Shutdown 关闭会话，可重复调用
func (c *Client) Shutdown() {
	c.session.Close()
}

// CallOption 单次调用的选项
type CallOption func(*callOptions)

type callOptions struct {
	apiKey    string
	commandID string
}

// WithAPIKey 仅本次请求使用另一个凭证
func WithAPIKey(apiKey string) CallOption {
	return func(o *callOptions) {
		o.apiKey = apiKey
	}
}

// WithCommandID 主从复制账户的命令 ID（撤单、改单）
func WithCommandID(id string) CallOption {
	return func(o *callOptions) {
		o.commandID = id
	}
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Observer 调用结束的回调，需要并发安全
type Observer interface {
	ObserveCall(CallEvent)
}

// ObserverFunc 函数形式的 Observer
type ObserverFunc func(CallEvent)

// ObserveCall 实现 Observer
func (f ObserverFunc) ObserveCall(e CallEvent) { f(e) }

// CallEvent 一次公开调用的摘要
type CallEvent struct {
	RequestID     string
	Operation     string
	Method        string
	Path          string
	PseudoAccount string
	StartedAt     time.Time
	Duration      time.Duration
	// Attempts 实际发送次数；本地校验失败时为 0
	Attempts int
	OK       bool
	Kind     Kind
	Message  string
	Code     types.ErrorCode
	Status   int
}

// field 必填参数
type field struct {
	name  string
	value string
}

func required(op string, fields ...field) *Error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return argumentError("%s: 缺少必填参数 %s", op, strings.Join(missing, ", "))
}

// reject 本地校验失败，不发送请求
func reject[T any](c *Client, op Operation, err *Error) Result[T] {
	res := Failure[T](err)
	c.notify(op, "", time.Now(), 0, err)
	log.WithField("op", op.Name).Debug(err.Message)
	return res
}

// call 发送请求并解码，按策略重试
func call[T any](ctx context.Context, c *Client, op Operation) Result[T] {
	requestID := uuid.NewString()
	start := time.Now()

	res, attempts := runWithRetry(c.retry, op, func() (Result[T], bool) {
		return send[T](ctx, c, op, requestID)
	})

	c.notify(op, requestID, start, attempts, res.Err())

	entry := log.WithFields(logrus.Fields{
		"op":         op.Name,
		"request_id": requestID,
		"attempts":   attempts,
		"elapsed":    time.Since(start),
	})
	if err := res.Err(); err != nil {
		entry.WithField("kind", err.Kind).Debug(err.Message)
	} else {
		entry.Debug("调用成功")
	}
	return res
}

// send 发送一次请求；第二个返回值表示是否算作一次发送。限流等待被 ctx 打断时不算。
func send[T any](ctx context.Context, c *Client, op Operation, requestID string) (Result[T], bool) {
	if c.limiter != nil && op.group != "" {
		if err := c.limiter.Wait(ctx, op.group); err != nil {
			return Failure[T](rateLimitError(err)), false
		}
	}

	t, err := c.session.acquire()
	if err != nil {
		return Failure[T](networkError(err)), true
	}

	// 请求一旦发出只受超时约束
	req, aerr := t.build(context.WithoutCancel(ctx), op, requestID)
	if aerr != nil {
		return Failure[T](aerr), true
	}

	resp, err := req.Execute(op.Method, op.Path)
	return decode[T](outcomeOf(resp, err)), true
}

func (c *Client) notify(op Operation, requestID string, start time.Time, attempts int, err *Error) {
	if c.observer == nil {
		return
	}
	e := CallEvent{
		RequestID:     requestID,
		Operation:     op.Name,
		Method:        op.Method,
		Path:          op.Path,
		PseudoAccount: op.account,
		StartedAt:     start,
		Duration:      time.Since(start),
		Attempts:      attempts,
		OK:            err == nil,
	}
	if err != nil {
		e.Kind = err.Kind
		e.Message = err.Message
		e.Code = err.Code
		e.Status = err.Status
	}
	c.observer.ObserveCall(e)
}
