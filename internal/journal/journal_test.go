package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goautotrader/autotrader/client"
	"github.com/betbot/goautotrader/autotrader/types"
)

func TestJournalRecordAndRecent(t *testing.T) {
	j, err := Open(MemoryPath)
	require.NoError(t, err)
	defer j.Close()

	start := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	j.ObserveCall(client.CallEvent{
		RequestID: "req-1", Operation: "PlaceRegularOrder", Method: "POST", Path: "/trading/placeRegularOrder",
		PseudoAccount: "ACC1", StartedAt: start, Duration: 120 * time.Millisecond, Attempts: 2, OK: true,
	})
	j.ObserveCall(client.CallEvent{
		RequestID: "req-2", Operation: "ReadPlatformOrders", Method: "POST", Path: "/trading/readPlatformOrders",
		PseudoAccount: "ACC1", StartedAt: start.Add(time.Second), Attempts: 1,
		Kind: client.KindHTTP, Message: "403: " + client.ForbiddenMessage, Code: types.ErrorCodeSystemForbidden, Status: 403,
	})
	j.ObserveCall(client.CallEvent{Operation: "CancelOrderByPlatformID", Method: "POST", Path: "/trading/cancelOrderByPlatformId",
		StartedAt: start.Add(2 * time.Second), Kind: client.KindArgument, Message: "platformId is required"})

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "CancelOrderByPlatformID", entries[0].Operation)
	assert.Equal(t, 0, entries[0].Attempts)
	assert.Equal(t, "", entries[0].PseudoAccount)

	failed := entries[1]
	assert.False(t, failed.OK)
	assert.Equal(t, client.KindHTTP.String(), failed.Kind)
	assert.Equal(t, "SYSTEM_FORBIDDEN", failed.Code)
	assert.Equal(t, 403, failed.Status)

	placed := entries[2]
	assert.True(t, placed.OK)
	assert.Empty(t, placed.Kind)
	assert.Equal(t, "req-1", placed.RequestID)
	assert.Equal(t, 120*time.Millisecond, placed.Duration)
	assert.True(t, start.Equal(placed.StartedAt))

	limited, err := j.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournalSummarize(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	for _, e := range []client.CallEvent{
		{Operation: "PlaceRegularOrder", Method: "POST", Path: "/p", Attempts: 2, OK: true},
		{Operation: "PlaceRegularOrder", Method: "POST", Path: "/p", Attempts: 1, Kind: client.KindBusiness},
		{Operation: "ReadPlatformPositions", Method: "POST", Path: "/r", Attempts: 1, OK: true},
	} {
		require.NoError(t, j.Record(ctx, e))
	}

	got, err := j.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Summary{
		{Operation: "PlaceRegularOrder", Calls: 2, Failures: 1, Retried: 1},
		{Operation: "ReadPlatformPositions", Calls: 1, Failures: 0, Retried: 0},
	}, got)
}

func TestJournalOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
