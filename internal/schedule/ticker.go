package schedule

import (
	"context"
	"errors"
	"time"
)

var ErrStopTimeout = errors.New("schedule: ticker did not stop in time")

// Advancer is anything with a tick to move forward.
type Advancer interface {
	Advance() int
}

// Ticker advances an Advancer once per period in its own goroutine until
// its context is canceled or Stop is called.
type Ticker struct {
	target Advancer
	period time.Duration
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker(target Advancer, period time.Duration) *Ticker {
	return &Ticker{target: target, period: period}
}

// Start launches the cadence goroutine. The returned channel is closed when
// it exits.
func (t *Ticker) Start(ctx context.Context) <-chan struct{} {
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.target.Advance()
			}
		}
	}()
	return t.done
}

// Stop cancels the goroutine and waits up to timeout for it to exit.
func (t *Ticker) Stop(timeout time.Duration) error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	select {
	case <-t.done:
		return nil
	case <-time.After(timeout):
		return ErrStopTimeout
	}
}
