package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Operation 一次远程调用的描述，构建后不再修改
type Operation struct {
	Name   string
	Method string
	Path   string
	// Params 表单字段，与 Body 互斥
	Params map[string]any
	// Body 整体编码为 JSON
	Body any
	// APIKey 仅对本次请求生效的凭证
	APIKey string

	account string
	group   string
}

func getOp(name, path, group string) Operation {
	return Operation{Name: name, Method: http.MethodGet, Path: path, group: group}
}

func formOp(name, path, group, account string, params map[string]any) Operation {
	return Operation{Name: name, Method: http.MethodPost, Path: path, Params: params, account: account, group: group}
}

func jsonOp(name, path, group, account string, body any) Operation {
	return Operation{Name: name, Method: http.MethodPost, Path: path, Body: body, account: account, group: group}
}

// build 在给定连接池上构建请求
func (t *transport) build(ctx context.Context, op Operation, requestID string) (*resty.Request, *Error) {
	r := t.http.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, requestID)

	if op.APIKey != "" {
		r.SetHeader(HeaderAPIKey, op.APIKey)
	}

	switch {
	case op.Body != nil:
		raw, err := json.Marshal(op.Body)
		if err != nil {
			return nil, argumentError("%s: 序列化请求体失败: %v", op.Name, err)
		}
		r.SetHeader("Content-Type", "application/json").SetBody(raw)
	case len(op.Params) > 0:
		form, err := formValues(op.Params)
		if err != nil {
			return nil, argumentError("%s: %v", op.Name, err)
		}
		r.SetFormData(form)
	}
	return r, nil
}

// formValues 把参数转成表单字段，值为 nil 的参数不发送
func formValues(params map[string]any) (map[string]string, error) {
	form := make(map[string]string, len(params))
	for name, v := range params {
		s, ok, err := formValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "参数 %s", name)
		}
		if ok {
			form[name] = s
		}
	}
	return form, nil
}

// formValue 枚举取符号名，数字取字面量，布尔取 true/false
func formValue(v any) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), true, nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true, nil
	default:
		return "", false, errors.Errorf("不支持的参数类型 %T", v)
	}
}
