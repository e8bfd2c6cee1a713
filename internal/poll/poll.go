// Package poll implements the poll-until-signal primitive shared by the
// question delivery, leaderboard refresh and room roster loops. The server
// exposes no push channel, so every "event" the engine reacts to is an edge
// detected by repeated polling.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/valyala/fastrand"
)

var ErrBudgetExhausted = fmt.Errorf("poll: attempt budget exhausted")

// Func reports done=true when the terminal outcome was observed. A non-nil
// error stops the loop immediately. Transient failures must be handled inside
// fn (logged and reported as done=false) so they burn an attempt instead of
// aborting the loop.
type Func func(ctx context.Context) (done bool, err error)

type Poller struct {
	Interval time.Duration
	// MaxAttempts == 0 polls until fn reports done or ctx is cancelled.
	MaxAttempts int
	// Jitter widens Interval by up to its own value to keep many clients
	// from aligning on the same polling edge.
	Jitter time.Duration
	Clock  clockwork.Clock
}

func (p Poller) Run(ctx context.Context, fn Func) error {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	for attempt := 1; ; attempt++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}

		if done {
			return nil
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return ErrBudgetExhausted
		}

		interval := p.Interval
		if p.Jitter > 0 {
			interval += time.Duration(fastrand.Uint32n(uint32(p.Jitter)))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(interval):
		}
	}
}
