package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, splitList(" A, ,B,"))
	assert.Nil(t, splitList(""))
}

func TestParseHolding(t *testing.T) {
	h, err := parseHolding("NSE:SBIN:10:550.5")
	require.NoError(t, err)
	assert.Equal(t, "NSE", h.Exchange)
	assert.Equal(t, "SBIN", h.Symbol)
	assert.Equal(t, "10", h.Quantity.String())
	assert.Equal(t, "550.5", h.AvgPrice.String())
	assert.True(t, h.Ltp.Equal(h.AvgPrice))

	for _, bad := range []string{"NSE:SBIN:10", "NSE:SBIN:x:1", "NSE:SBIN:1:y"} {
		_, err := parseHolding(bad)
		assert.Error(t, err, bad)
	}
}
