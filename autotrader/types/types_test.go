package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeJSON(t *testing.T) {
	b, err := json.Marshal(Ok("ABC123"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"result":"ABC123"}`, string(b))

	b, err = json.Marshal(Fail("invalid symbol", ErrorCodeValidation))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"invalid symbol","errorCode":"VALIDATION_ERROR"}`, string(b))

	var env Envelope[[]PlatformPosition]
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"result":[{"symbol":"SBIN","netQuantity":-5,"ltp":187.65}]}`), &env))
	require.Len(t, env.Result, 1)
	assert.Equal(t, "-5", env.Result[0].NetQuantity.String())
	assert.Equal(t, "187.65", env.Result[0].Ltp.String())
	assert.False(t, env.Result[0].Flat())
}

func TestOrderOpen(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"OPEN", true},
		{"TRIGGER_PENDING", true},
		{"PENDING", true},
		{"COMPLETE", false},
		{"CANCELLED", false},
		{"REJECTED", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, PlatformOrder{Status: tt.status}.Open())
		})
	}
}

func TestHoldingMarketValue(t *testing.T) {
	h := PlatformHolding{Quantity: decimal.NewFromInt(4), Ltp: decimal.RequireFromString("12.5")}
	assert.Equal(t, "50", h.MarketValue().String())

	h.CurrentValue = decimal.NewFromInt(49)
	assert.Equal(t, "49", h.MarketValue().String())
}
