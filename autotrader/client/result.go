package client

// Result 一次调用的结果：Success(value) 或 Failure(*Error)
type Result[T any] struct {
	value T
	err   *Error
}

// Success 构造成功结果
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure 构造失败结果，err 不能为 nil
func Failure[T any](err *Error) Result[T] {
	if err == nil {
		panic("client: Failure requires a non-nil error")
	}
	return Result[T]{err: err}
}

// OK 是否成功
func (r Result[T]) OK() bool {
	return r.err == nil
}

// Value 成功时的值；失败时为零值
func (r Result[T]) Value() T {
	return r.value
}

// Err 失败描述；成功时为 nil
func (r Result[T]) Err() *Error {
	return r.err
}

// Kind 失败分类；成功时为 KindNone
func (r Result[T]) Kind() Kind {
	if r.err == nil {
		return KindNone
	}
	return r.err.Kind
}

// Unwrap 转成 Go 惯用的 (value, error) 形式
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		return r.value, r.err
	}
	return r.value, nil
}
