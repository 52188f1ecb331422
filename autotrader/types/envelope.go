package types

// Envelope 所有接口统一的响应包装
//
// success=true 时 message/errorCode 为空；success=false 时 result 为空。
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Result    T         `json:"result,omitempty"`
	Message   string    `json:"message,omitempty"`
	ErrorCode ErrorCode `json:"errorCode,omitempty"`
}

// Ok 构造成功响应
func Ok[T any](result T) Envelope[T] {
	return Envelope[T]{Success: true, Result: result}
}

// Fail 构造失败响应
func Fail(message string, code ErrorCode) Envelope[any] {
	return Envelope[any]{Success: false, Message: message, ErrorCode: code}
}
