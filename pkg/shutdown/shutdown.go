package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "shutdown")

// Hook 关闭回调：关闭会话、日志库、凭证库等
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Manager 优雅关闭管理器；Shutdown 只执行一次
type Manager struct {
	mu    sync.Mutex
	hooks []namedHook
	once  sync.Once
	err   error
}

// NewManager 创建新的关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, fn: hook})
}

// Shutdown 并发执行所有回调，等全部完成或 ctx 超时；返回合并后的错误
func (m *Manager) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.err = m.run(ctx)
	})
	return m.err
}

func (m *Manager) run(ctx context.Context) error {
	m.mu.Lock()
	hooks := append([]namedHook(nil), m.hooks...)
	m.mu.Unlock()

	if len(hooks) == 0 {
		log.Debug("没有注册的关闭回调")
		return nil
	}
	log.Debugf("开始优雅关闭，共 %d 个回调", len(hooks))

	errs := make([]error, len(hooks))
	var wg sync.WaitGroup
	wg.Add(len(hooks))
	for i, h := range hooks {
		i, h := i, h
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%s: panic: %v", h.name, r)
				}
			}()
			if err := h.fn(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", h.name, err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		err := errors.Join(errs...)
		if err != nil {
			log.WithError(err).Warn("部分关闭回调失败")
		} else {
			log.Debug("所有关闭回调已完成")
		}
		return err
	case <-ctx.Done():
		log.Warnf("关闭超时: %v", ctx.Err())
		return ctx.Err()
	}
}
