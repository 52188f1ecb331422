package client

import (
	"sync"
)

// Registry 凭证到会话的映射
//
// 同一凭证并发首次使用时只会构建一个会话。条目不会被自动淘汰。
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate 返回 cfg.APIKey 对应的会话，不存在时按 cfg 创建
//
// 已存在时忽略 cfg 的其它字段。轮换凭证后，会话仍登记在创建时的凭证下。
func (r *Registry) GetOrCreate(cfg SessionConfig) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[cfg.APIKey]; ok {
		return s, nil
	}
	if r.sessions == nil {
		r.sessions = make(map[string]*Session)
	}
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	r.sessions[cfg.APIKey] = s
	return s, nil
}

// Get 查找已登记的会话
func (r *Registry) Get(apiKey string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[apiKey]
	return s, ok
}

// Remove 移除并关闭会话
func (r *Registry) Remove(apiKey string) bool {
	r.mu.Lock()
	s, ok := r.sessions[apiKey]
	delete(r.sessions, apiKey)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len 已登记的会话数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close 关闭并清空所有会话
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
