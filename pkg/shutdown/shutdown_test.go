package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownRunsAllHooksOnce(t *testing.T) {
	m := NewManager()
	var calls atomic.Int32
	for _, name := range []string{"registry", "journal", "secretstore"} {
		m.OnShutdown(name, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestShutdownJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager()
	m.OnShutdown("ok", func(context.Context) error { return nil })
	m.OnShutdown("journal", func(context.Context) error { return boom })
	m.OnShutdown("panics", func(context.Context) error { panic("bad hook") })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "journal: boom")
	assert.ErrorContains(t, err, "panics: panic: bad hook")
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	defer close(release)
	m.OnShutdown("slow", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Shutdown(ctx), context.DeadlineExceeded)
}

func TestShutdownWithoutHooks(t *testing.T) {
	assert.NoError(t, NewManager().Shutdown(context.Background()))
}
