package client

import (
	"fmt"

	"github.com/betbot/goautotrader/autotrader/types"
)

// Kind 失败分类
type Kind int

const (
	// KindNone 成功结果的分类
	KindNone Kind = iota
	// KindNetwork 没有拿到任何响应（连接失败、超时、对端在回复前断开）
	KindNetwork
	// KindHTTP 拿到了非 2xx 响应
	KindHTTP
	// KindDecode 200 响应但响应体无法按预期结构解析
	KindDecode
	// KindArgument 本地参数校验失败，请求未发出
	KindArgument
	// KindBusiness 服务端在响应包里返回 success=false
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindNetwork:
		return "NETWORK"
	case KindHTTP:
		return "HTTP"
	case KindDecode:
		return "DECODE"
	case KindArgument:
		return "ARGUMENT"
	case KindBusiness:
		return "BUSINESS"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	// NoResponseMessage 没有拿到响应时的固定文案
	NoResponseMessage = "no response received"

	// RateLimitWaitMessage 等待限流时 ctx 结束，请求未发出
	RateLimitWaitMessage = "rate limit wait cancelled"

	// ForbiddenMessage 403 的固定文案。服务端用 403 表示多种鉴权失败，统一成一句话，
	// 不使用服务端给出的 reason phrase。
	ForbiddenMessage = "credential is invalid or the account is disabled"
)

// Error 调用失败的描述，只出现在 Result 中
type Error struct {
	Kind    Kind
	Message string
	// Code 服务端错误码；HTTP 失败时由客户端按状态码填写
	Code types.ErrorCode
	// Status HTTP 状态码，仅 KindHTTP / KindDecode 有值
	Status int
	// Err 底层原因（传输错误、解析错误），可能为 nil
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindNetwork {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, &Error{Kind: KindHTTP}) 按分类匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Code == "" && t.Status == 0 && t.Err == nil
}

func networkError(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: NoResponseMessage, Err: cause}
}

func rateLimitError(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: RateLimitWaitMessage, Err: cause}
}

func argumentError(format string, args ...any) *Error {
	return &Error{Kind: KindArgument, Message: fmt.Sprintf(format, args...)}
}
