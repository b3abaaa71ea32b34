package client

import (
	"context"
	"sync"
	"time"
)

// Debouncer serializes rapid call bursts (search keystrokes) into at most
// one in-flight call. Trailing-edge: only the last call inside the window
// runs, and scheduling a new call cancels the superseded one's context.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	cancel   context.CancelFunc
}

func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Debouncer{interval: interval}
}

// Do schedules fn after the quiet interval. A newer Do supersedes a pending
// or running fn: the pending timer is stopped and the running fn's context
// is cancelled.
func (d *Debouncer) Do(ctx context.Context, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}

	callCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.timer = time.AfterFunc(d.interval, func() {
		defer cancel()
		if callCtx.Err() != nil {
			return
		}
		fn(callCtx)
	})
}

// Stop cancels any pending or running call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
