package client

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goautotrader/autotrader/types"
)

func TestFormValue(t *testing.T) {
	qty := 5
	var nilQty *int
	limit := types.OrderTypeLimit

	tests := []struct {
		name    string
		in      any
		want    string
		present bool
	}{
		{"枚举取符号名", types.OrderTypeLimit, "LIMIT", true},
		{"枚举指针", &limit, "LIMIT", true},
		{"小数保持字面量", 187.6, "187.6", true},
		{"整数", 1, "1", true},
		{"float32", float32(0.1), "0.1", true},
		{"整数价格不带小数点", 200.0, "200", true},
		{"布尔", true, "true", true},
		{"字符串", "SBIN", "SBIN", true},
		{"指针解引用", &qty, "5", true},
		{"nil 指针不发送", nilQty, "", false},
		{"nil 不发送", nil, "", false},
		{"decimal", decimal.RequireFromString("12.50"), "12.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, err := formValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormValueRejectsUnsupported(t *testing.T) {
	_, _, err := formValue(struct{ A int }{1})
	assert.Error(t, err)

	_, err = formValues(map[string]any{"items": []int{1, 2}})
	assert.EqualError(t, err, "参数 items: 不支持的参数类型 []int")
	assert.EqualError(t, errors.Cause(err), "不支持的参数类型 []int")
}

func TestFormValuesOmitsNil(t *testing.T) {
	var price *float64
	form, err := formValues(map[string]any{
		"pseudoAccount": "ACC",
		"price":         price,
		"quantity":      3,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"pseudoAccount": "ACC", "quantity": "3"}, form)
}

func TestRequired(t *testing.T) {
	assert.Nil(t, required("Op", field{"a", "x"}, field{"b", "y"}))

	err := required("Op", field{"a", " "}, field{"b", "y"}, field{"c", ""})
	require.NotNil(t, err)
	assert.Equal(t, KindArgument, err.Kind)
	assert.Contains(t, err.Message, "a, c")
}
