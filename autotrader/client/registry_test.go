package client

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreateConcurrent(t *testing.T) {
	var built atomic.Int32
	cfg := SessionConfig{
		APIKey: "shared",
		NewRoundTripper: func(SessionConfig) http.RoundTripper {
			built.Add(1)
			return http.DefaultTransport
		},
	}

	r := NewRegistry()
	defer r.Close()

	const workers = 32
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.GetOrCreate(cfg)
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, built.Load(), "同一凭证只应构建一次")
	assert.Equal(t, 1, r.Len())
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}

func TestRegistryDistinctKeys(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	a, err := r.GetOrCreate(SessionConfig{APIKey: "a"})
	require.NoError(t, err)
	b, err := r.GetOrCreate(SessionConfig{APIKey: "b"})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistryRotationKeepsOriginalKey(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	s, err := r.GetOrCreate(SessionConfig{APIKey: "a"})
	require.NoError(t, err)
	require.NoError(t, s.RotateAPIKey("a2"))

	again, err := r.GetOrCreate(SessionConfig{APIKey: "a"})
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, "a2", again.APIKey())
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetOrCreate(SessionConfig{})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)
	assert.Zero(t, r.Len())
}

func TestRegistryRemoveAndClose(t *testing.T) {
	r := NewRegistry()

	a, err := r.GetOrCreate(SessionConfig{APIKey: "a"})
	require.NoError(t, err)
	b, err := r.GetOrCreate(SessionConfig{APIKey: "b"})
	require.NoError(t, err)

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.True(t, a.Closed())
	assert.False(t, b.Closed())

	r.Close()
	assert.True(t, b.Closed())
	assert.Zero(t, r.Len())

	var zero Registry
	_, err = zero.GetOrCreate(SessionConfig{APIKey: "z"})
	assert.NoError(t, err)
	zero.Close()
}
