package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a self-contained one-second countdown. It holds no game state and
// fires its callback exactly once per activation; restarting re-arms it.
type Timer struct {
	clock clockwork.Clock

	mtx       sync.Mutex
	remaining int
	gen       int
	cancel    context.CancelFunc
}

func NewTimer(clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock}
}

// Start arms the countdown, replacing any previous activation. A non-positive
// limit expires immediately.
func (t *Timer) Start(seconds int, onExpire func()) {
	t.mtx.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
	gen := t.gen
	if seconds <= 0 {
		t.remaining = 0
		t.mtx.Unlock()
		onExpire()
		return
	}
	t.remaining = seconds
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mtx.Unlock()

	go t.countdown(ctx, gen, onExpire)
}

func (t *Timer) countdown(ctx context.Context, gen int, onExpire func()) {
	ticker := t.clock.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.mtx.Lock()
			if t.gen != gen {
				t.mtx.Unlock()
				return
			}
			t.remaining--
			expired := t.remaining <= 0
			if expired {
				t.remaining = 0
				if t.cancel != nil {
					t.cancel()
					t.cancel = nil
				}
			}
			t.mtx.Unlock()

			if expired {
				onExpire()
				return
			}
		}
	}
}

// Stop disarms the countdown. The callback of a stopped activation never
// fires, even if a tick already raced the stop.
func (t *Timer) Stop() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}

func (t *Timer) Remaining() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.remaining
}
