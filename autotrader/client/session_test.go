package client

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closingTransport 记录 Close 调用的 RoundTripper
type closingTransport struct {
	http.RoundTripper
	closed   atomic.Int32
	closeErr error
	panics   bool
}

func (c *closingTransport) Close() error {
	c.closed.Add(1)
	if c.panics {
		panic("close exploded")
	}
	return c.closeErr
}

// transportRecorder 记录会话构建过的所有连接池
type transportRecorder struct {
	mu    sync.Mutex
	built []*closingTransport
	tmpl  closingTransport
}

func (r *transportRecorder) factory(SessionConfig) http.RoundTripper {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &closingTransport{RoundTripper: http.DefaultTransport, closeErr: r.tmpl.closeErr, panics: r.tmpl.panics}
	r.built = append(r.built, t)
	return t
}

func (r *transportRecorder) all() []*closingTransport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*closingTransport(nil), r.built...)
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession(SessionConfig{APIKey: "  "})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	_, err = NewSession(SessionConfig{APIKey: "k", ServiceURL: "ftp://example.com"})
	assert.Error(t, err)

	s, err := NewSession(SessionConfig{APIKey: "k"})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DefaultServiceURL, s.ServiceURL())
	assert.Equal(t, "k", s.APIKey())
}

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig("k")
	assert.Equal(t, DefaultServiceURL, cfg.ServiceURL)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 120*time.Second, cfg.SocketTimeout)
	assert.Equal(t, 250, cfg.MaxConnections)
	assert.Equal(t, 200, cfg.MaxConnectionsPerRoute)
	assert.False(t, cfg.InsecureSkipVerify)
}

func TestHTTPTransportSettings(t *testing.T) {
	cfg := DefaultSessionConfig("k")
	tr := newHTTPTransport(cfg)

	assert.Equal(t, 250, tr.MaxIdleConns)
	assert.Equal(t, 200, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 200, tr.MaxConnsPerHost)
	assert.Equal(t, 120*time.Second, tr.ResponseHeaderTimeout)
	assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)

	cfg.InsecureSkipVerify = true
	assert.True(t, newHTTPTransport(cfg).TLSClientConfig.InsecureSkipVerify)
}

// roundTripFunc 函数形式的 RoundTripper
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSingleShotRequestsAreNotReplayable(t *testing.T) {
	var seen *http.Request
	rt := singleShot{next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})}

	get, err := http.NewRequest(http.MethodGet, "http://example.test/v", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(get)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.NotSame(t, get, seen, "不修改调用方的请求")
	assert.Nil(t, seen.GetBody)
	assert.NotNil(t, seen.Body)
	assert.NotEqual(t, http.NoBody, seen.Body)
	assert.Zero(t, seen.ContentLength)
	assert.Nil(t, get.Body)

	post, err := http.NewRequest(http.MethodPost, "http://example.test/o", strings.NewReader("a=1"))
	require.NoError(t, err)
	require.NotNil(t, post.GetBody)
	_, err = rt.RoundTrip(post)
	require.NoError(t, err)
	assert.Nil(t, seen.GetBody)
	assert.Equal(t, int64(3), seen.ContentLength)
	body, err := io.ReadAll(seen.Body)
	require.NoError(t, err)
	assert.Equal(t, "a=1", string(body))
	assert.NotNil(t, post.GetBody)
}

func TestRotateAPIKey(t *testing.T) {
	rec := &transportRecorder{}
	s, err := NewSession(SessionConfig{APIKey: "old", NewRoundTripper: rec.factory})
	require.NoError(t, err)

	require.NoError(t, s.RotateAPIKey("new"))
	assert.Equal(t, "new", s.APIKey())

	built := rec.all()
	require.Len(t, built, 2)
	assert.EqualValues(t, 1, built[0].closed.Load(), "旧连接池应被关闭")
	assert.EqualValues(t, 0, built[1].closed.Load())

	cur, err := s.acquire()
	require.NoError(t, err)
	assert.Equal(t, "new", cur.http.Header.Get(HeaderAPIKey))

	assert.ErrorIs(t, s.RotateAPIKey(""), ErrEmptyAPIKey)
	assert.Equal(t, "new", s.APIKey())
}

func TestSessionCloseIdempotent(t *testing.T) {
	rec := &transportRecorder{tmpl: closingTransport{closeErr: errors.New("close failed")}}
	s, err := NewSession(SessionConfig{APIKey: "k", NewRoundTripper: rec.factory})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.Close()
		s.Close()
	})
	assert.True(t, s.Closed())
	assert.Empty(t, s.APIKey())
	assert.EqualValues(t, 1, rec.all()[0].closed.Load())

	_, err = s.acquire()
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.RotateAPIKey("again"), ErrSessionClosed)
	assert.Len(t, rec.all(), 1, "关闭后不应再构建连接池")
}

func TestSessionCloseSwallowsPanic(t *testing.T) {
	rec := &transportRecorder{tmpl: closingTransport{panics: true}}
	s, err := NewSession(SessionConfig{APIKey: "k", NewRoundTripper: rec.factory})
	require.NoError(t, err)

	assert.NotPanics(t, func() { require.NoError(t, s.RotateAPIKey("k2")) })
	assert.NotPanics(t, s.Close)
}

func TestZeroSessionClose(t *testing.T) {
	var s Session
	assert.NotPanics(t, s.Close)
	assert.True(t, s.Closed())
}

func TestConcurrentRotation(t *testing.T) {
	rec := &transportRecorder{}
	s, err := NewSession(SessionConfig{APIKey: "k0", NewRoundTripper: rec.factory})
	require.NoError(t, err)
	defer s.Close()

	const rotations = 20
	keys := map[string]bool{"k0": true}
	for i := 1; i <= rotations; i++ {
		keys[keyN(i)] = true
	}

	var wg sync.WaitGroup
	for i := 1; i <= rotations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.RotateAPIKey(keyN(i)))
		}(i)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tr, err := s.acquire()
				if !assert.NoError(t, err) {
					return
				}
				// 凭证与连接池始终一致
				assert.True(t, keys[tr.apiKey])
				assert.Equal(t, tr.apiKey, tr.http.Header.Get(HeaderAPIKey))
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	built := rec.all()
	require.Len(t, built, rotations+1)
	open := 0
	for _, b := range built {
		if b.closed.Load() == 0 {
			open++
		}
	}
	assert.Equal(t, 1, open, "只有当前连接池保持打开")
}

func keyN(i int) string {
	return "k" + string(rune('a'+i))
}
