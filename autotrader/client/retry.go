package client

import (
	"context"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// RetryPolicy 自动重试策略
//
// 开启后，仅当对端接受连接却在回复前断开时重放一次请求；超时、HTTP 状态、
// 解析失败、业务失败和本地校验失败都不重试。
type RetryPolicy struct {
	Enabled bool
}

// maxAttempts 包含首次发送
const maxAttempts = 2

func (p RetryPolicy) shouldRetry(err *Error) bool {
	if !p.Enabled || err == nil || err.Kind != KindNetwork {
		return false
	}
	return IsNoResponse(err.Err)
}

// IsNoResponse 判断传输错误是否属于"对端未回复即断开"
//
// 沿整个错误链查找：net/http 的错误通常是 url.Error -> net.OpError ->
// os.SyscallError -> Errno 多层包装。
func IsNoResponse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(err.Error(), "server closed idle connection")
}

// runWithRetry 执行 attempt，按策略最多重放一次；返回结果和实际发送次数。
// attempt 返回 false 表示请求没有发出，直接结束。
func runWithRetry[T any](p RetryPolicy, op Operation, attempt func() (Result[T], bool)) (Result[T], int) {
	n := 0
	for {
		res, sent := attempt()
		if !sent {
			return res, n
		}
		n++
		if n >= maxAttempts || !p.shouldRetry(res.Err()) {
			return res, n
		}
		log.WithError(res.Err().Err).
			WithField("op", op.Name).
			Warn("未收到服务端响应，重试一次")
	}
}
