package ratelimit

import (
	"context"
	"sync"
	"time"
)

// 端点分组
const (
	GroupTrading = "autotrader:trading" // 下单、改单、撤单、平仓
	GroupRead    = "autotrader:read"    // 读取订单、持仓、资金、持股
	GroupGeneral = "autotrader:general" // 其它
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	GetRemaining() int
	GetResetTime() time.Time
}

// TokenBucket 令牌桶速率限制器
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64 // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建令牌桶：容量 capacity，每 window 补满一次
func NewTokenBucket(capacity int, window time.Duration) *TokenBucket {
	rate := 0.0
	if window > 0 {
		rate = float64(capacity) / window.Seconds()
	}
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// reserve 取一个令牌；取不到时返回需要等待的时间
func (tb *TokenBucket) reserve() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	if tb.refillRate <= 0 {
		return time.Second, false
	}
	missing := 1 - tb.tokens
	return time.Duration(missing / tb.refillRate * float64(time.Second)), false
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	_, ok := tb.reserve()
	return ok
}

// Wait 等待直到拿到令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait, ok := tb.reserve()
		if ok {
			return nil
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// GetRemaining 剩余令牌数
func (tb *TokenBucket) GetRemaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	return int(tb.tokens)
}

// GetResetTime 令牌桶补满的时间
func (tb *TokenBucket) GetResetTime() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	tb.refill(now)
	if tb.tokens >= tb.capacity || tb.refillRate <= 0 {
		return now
	}
	seconds := (tb.capacity - tb.tokens) / tb.refillRate
	return now.Add(time.Duration(seconds * float64(time.Second)))
}

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time // 按时间升序
	mu         sync.Mutex
}

// NewSlidingWindow 创建滑动窗口：任意 windowSize 内最多 limit 次
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
	}
}

func (sw *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	sw.requests = sw.requests[i:]
}

func (sw *SlidingWindow) reserve() (time.Duration, bool) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.prune(now)
	if len(sw.requests) < sw.limit {
		sw.requests = append(sw.requests, now)
		return 0, true
	}
	if len(sw.requests) == 0 {
		return sw.windowSize, false
	}
	wait := sw.requests[0].Add(sw.windowSize).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	_, ok := sw.reserve()
	return ok
}

// Wait 等待直到允许请求或 ctx 结束
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		wait, ok := sw.reserve()
		if ok {
			return nil
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// GetRemaining 窗口内剩余请求数
func (sw *SlidingWindow) GetRemaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.prune(time.Now())
	return max(0, sw.limit-len(sw.requests))
}

// GetResetTime 最早一次请求移出窗口的时间
func (sw *SlidingWindow) GetResetTime() time.Time {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	now := time.Now()
	sw.prune(now)
	if len(sw.requests) == 0 {
		return now
	}
	return sw.requests[0].Add(sw.windowSize)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limit 一个分组的限额：Window 内最多 Requests 次
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits 默认限额。交易类用令牌桶允许突发，读取类用滑动窗口。
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		GroupTrading: {Requests: 10, Window: time.Second},
		GroupRead:    {Requests: 30, Window: 10 * time.Second},
		GroupGeneral: {Requests: 60, Window: 10 * time.Second},
	}
}

// RateLimitManager 按端点分组管理限流器
type RateLimitManager struct {
	limiters map[string]RateLimiter
	mu       sync.RWMutex
}

// NewRateLimitManager 按给定限额创建管理器；limits 为 nil 时使用默认限额
func NewRateLimitManager(limits map[string]Limit) *RateLimitManager {
	if limits == nil {
		limits = DefaultLimits()
	}
	manager := &RateLimitManager{limiters: make(map[string]RateLimiter, len(limits))}
	for group, l := range limits {
		if l.Requests <= 0 || l.Window <= 0 {
			continue
		}
		if group == GroupTrading {
			manager.limiters[group] = NewTokenBucket(l.Requests, l.Window)
		} else {
			manager.limiters[group] = NewSlidingWindow(l.Requests, l.Window)
		}
	}
	return manager
}

// Set 替换某个分组的限流器
func (rlm *RateLimitManager) Set(group string, limiter RateLimiter) {
	rlm.mu.Lock()
	defer rlm.mu.Unlock()
	rlm.limiters[group] = limiter
}

// GetLimiter 获取分组的限流器；未配置时回落到 general，都没有则返回 nil
func (rlm *RateLimitManager) GetLimiter(group string) RateLimiter {
	rlm.mu.RLock()
	defer rlm.mu.RUnlock()

	if limiter, ok := rlm.limiters[group]; ok {
		return limiter
	}
	return rlm.limiters[GroupGeneral]
}

// Wait 等待直到允许请求；分组不限流时立即返回 nil
func (rlm *RateLimitManager) Wait(ctx context.Context, group string) error {
	limiter := rlm.GetLimiter(group)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// Allow 检查是否允许请求
func (rlm *RateLimitManager) Allow(group string) bool {
	limiter := rlm.GetLimiter(group)
	return limiter == nil || limiter.Allow()
}

// GetRemaining 剩余请求数；不限流时返回 -1
func (rlm *RateLimitManager) GetRemaining(group string) int {
	limiter := rlm.GetLimiter(group)
	if limiter == nil {
		return -1
	}
	return limiter.GetRemaining()
}
