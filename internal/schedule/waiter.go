package schedule

import (
	"context"
	"time"
)

// Waiter is the only suspension point the driven reader uses.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// RealWaiter sleeps for the requested duration.
type RealWaiter struct{}

func (RealWaiter) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// AcceleratedWaiter advances the tick on every call, so a scripted scenario
// keeps its event order while finishing in a fraction of the wall time. The
// wall-clock sleep is d divided by Factor; a Factor of zero or less does
// not sleep at all.
type AcceleratedWaiter struct {
	Target Advancer
	Factor float64
}

func (w *AcceleratedWaiter) Wait(ctx context.Context, d time.Duration) error {
	w.Target.Advance()
	if w.Factor <= 0 {
		return ctx.Err()
	}
	return sleep(ctx, time.Duration(float64(d)/w.Factor))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
