package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/betbot/goautotrader/autotrader/types"
)

// outcome 一次发送的原始结果
type outcome struct {
	received   bool
	status     int
	statusLine string
	body       []byte
	err        error
}

func outcomeOf(resp *resty.Response, err error) outcome {
	if err != nil || resp == nil || resp.RawResponse == nil {
		return outcome{err: err}
	}
	return outcome{
		received:   true,
		status:     resp.StatusCode(),
		statusLine: resp.Status(),
		body:       resp.Body(),
	}
}

// decode 把原始结果转成 Result，对任何输入都有定义
func decode[T any](o outcome) Result[T] {
	if !o.received {
		return Failure[T](networkError(o.err))
	}

	if o.status < 200 || o.status > 299 {
		return Failure[T](httpError(o.status, o.statusLine))
	}

	var env types.Envelope[T]
	if err := json.Unmarshal(o.body, &env); err != nil {
		if o.status == http.StatusOK {
			return Failure[T](&Error{Kind: KindDecode, Message: err.Error(), Status: o.status, Err: err})
		}
		return Failure[T](httpError(o.status, o.statusLine))
	}

	if !env.Success {
		return Failure[T](&Error{Kind: KindBusiness, Message: env.Message, Code: env.ErrorCode})
	}
	return Success(env.Result)
}

func httpError(status int, statusLine string) *Error {
	if status == http.StatusForbidden {
		return &Error{
			Kind:    KindHTTP,
			Message: fmt.Sprintf("%d: %s", status, ForbiddenMessage),
			Code:    types.ErrorCodeSystemForbidden,
			Status:  status,
		}
	}
	return &Error{
		Kind:    KindHTTP,
		Message: fmt.Sprintf("%d: %s", status, reasonPhrase(status, statusLine)),
		Code:    types.ErrorCodeSystemError,
		Status:  status,
	}
}

// reasonPhrase 标准状态码用标准文案，否则取状态行里服务端给的文案
func reasonPhrase(status int, statusLine string) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	if _, reason, ok := strings.Cut(statusLine, " "); ok && strings.TrimSpace(reason) != "" {
		return strings.TrimSpace(reason)
	}
	return "Unknown Status"
}
