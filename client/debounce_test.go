package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerRunsOnlyTrailingCall(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var ran atomic.Int64
	var lastQuery atomic.Value

	for _, query := range []string{"m", "ma", "mar", "mari", "marina"} {
		query := query
		d.Do(context.Background(), func(ctx context.Context) {
			ran.Add(1)
			lastQuery.Store(query)
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return ran.Load() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, "marina", lastQuery.Load())

	// the window is over; nothing else should fire
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), ran.Load())
}

func TestDebouncerCancelsSupersededCall(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	started := make(chan context.Context, 1)
	release := make(chan struct{})

	d.Do(context.Background(), func(ctx context.Context) {
		started <- ctx
		<-release
	})

	var firstCtx context.Context
	select {
	case firstCtx = <-started:
	case <-time.After(time.Second):
		t.Fatal("first call never started")
	}

	done := make(chan struct{})
	d.Do(context.Background(), func(ctx context.Context) {
		close(done)
	})

	// superseding cancels the in-flight call's context
	select {
	case <-firstCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded context was not cancelled")
	}
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second call never ran")
	}
}

func TestDebouncerStopPreventsPendingCall(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var ran atomic.Int64
	d.Do(context.Background(), func(ctx context.Context) {
		ran.Add(1)
	})
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(0), ran.Load())
}

func TestDebouncerDefaultsInterval(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, 500*time.Millisecond, d.interval)
}
