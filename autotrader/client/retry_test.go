package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsNoResponse(t *testing.T) {
	reset := &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{
		Op:  "read",
		Net: "tcp",
		Err: os.NewSyscallError("read", syscall.ECONNRESET),
	}}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"EOF", io.EOF, true},
		{"url.Error 包装的 EOF", &url.Error{Op: "Post", URL: "http://x", Err: io.EOF}, true},
		{"多层包装的 EOF", fmt.Errorf("transport: %w", fmt.Errorf("broken: %w", io.EOF)), true},
		{"unexpected EOF", io.ErrUnexpectedEOF, true},
		{"连接被重置", reset, true},
		{"服务端关闭空闲连接", errors.New("http: server closed idle connection"), true},
		{"连接被拒绝", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, false},
		{"超时", &url.Error{Op: "Post", URL: "http://x", Err: timeoutError{}}, false},
		{"ctx 超时", fmt.Errorf("wait: %w", context.DeadlineExceeded), false},
		{"ctx 取消", context.Canceled, false},
		{"会话已关闭", ErrSessionClosed, false},
		{"其它错误", errors.New("tls: bad certificate"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNoResponse(tt.err))
		})
	}
}

func TestRunWithRetry(t *testing.T) {
	dropped := Failure[string](networkError(io.EOF))
	timedOut := Failure[string](networkError(&url.Error{Op: "Post", URL: "http://x", Err: timeoutError{}}))
	forbidden := Failure[string](httpError(403, "403 Forbidden"))
	decodeFail := Failure[string](&Error{Kind: KindDecode, Message: "bad"})
	business := Failure[string](&Error{Kind: KindBusiness, Message: "no"})
	argument := Failure[string](argumentError("missing"))
	ok := Success("ABC123")

	tests := []struct {
		name         string
		enabled      bool
		results      []Result[string]
		wantAttempts int
		wantOK       bool
	}{
		{"断开后重试成功", true, []Result[string]{dropped, ok}, 2, true},
		{"关闭重试时只发一次", false, []Result[string]{dropped, ok}, 1, false},
		{"最多重试一次", true, []Result[string]{dropped, dropped, ok}, 2, false},
		{"超时不重试", true, []Result[string]{timedOut, ok}, 1, false},
		{"HTTP 失败不重试", true, []Result[string]{forbidden, ok}, 1, false},
		{"解析失败不重试", true, []Result[string]{decodeFail, ok}, 1, false},
		{"业务失败不重试", true, []Result[string]{business, ok}, 1, false},
		{"参数失败不重试", true, []Result[string]{argument, ok}, 1, false},
		{"首次成功", true, []Result[string]{ok}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			res, attempts := runWithRetry(RetryPolicy{Enabled: tt.enabled}, Operation{Name: "Test"}, func() (Result[string], bool) {
				r := tt.results[calls]
				calls++
				return r, true
			})
			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantAttempts, calls)
			assert.Equal(t, tt.wantOK, res.OK())
		})
	}
}

func TestRetryReturnsReplayResultUnchanged(t *testing.T) {
	second := Failure[string](httpError(500, "500 Internal Server Error"))
	calls := 0
	res, attempts := runWithRetry(RetryPolicy{Enabled: true}, Operation{Name: "Test"}, func() (Result[string], bool) {
		calls++
		if calls == 1 {
			return Failure[string](networkError(io.ErrUnexpectedEOF)), true
		}
		return second, true
	})

	assert.Equal(t, 2, attempts)
	assert.Same(t, second.Err(), res.Err())
}

func TestRunWithRetryStopsWhenNotSent(t *testing.T) {
	waitCancelled := Failure[string](rateLimitError(context.Canceled))

	calls := 0
	res, attempts := runWithRetry(RetryPolicy{Enabled: true}, Operation{Name: "Test"}, func() (Result[string], bool) {
		calls++
		return waitCancelled, false
	})
	assert.Equal(t, 0, attempts)
	assert.Equal(t, 1, calls)
	assert.Same(t, waitCancelled.Err(), res.Err())

	// 重放前的限流等待被打断：只算第一次发送
	calls = 0
	res, attempts = runWithRetry(RetryPolicy{Enabled: true}, Operation{Name: "Test"}, func() (Result[string], bool) {
		calls++
		if calls == 1 {
			return Failure[string](networkError(io.EOF)), true
		}
		return waitCancelled, false
	})
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 2, calls)
	assert.Equal(t, RateLimitWaitMessage, res.Err().Message)
}
