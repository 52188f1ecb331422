package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNone, "NONE"},
		{KindNetwork, "NETWORK"},
		{KindHTTP, "HTTP"},
		{KindDecode, "DECODE"},
		{KindArgument, "ARGUMENT"},
		{KindBusiness, "BUSINESS"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestSuccessKindIsNone(t *testing.T) {
	res := Success("ABC123")
	assert.Equal(t, KindNone, res.Kind())
	assert.Equal(t, "NONE", res.Kind().String())
	assert.Equal(t, KindNetwork, Failure[string](networkError(nil)).Kind())
}
