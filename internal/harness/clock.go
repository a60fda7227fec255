package harness

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/ndisim/internal/schedule"
)

var errTickBound = errors.New("harness: tick bound exceeded")

// tickClock reports simulated time as tick x period past a fixed epoch, so
// accelerated runs move the spheres as far per tick as real-time runs do.
type tickClock struct {
	sched  *schedule.Scheduler
	period time.Duration
	epoch  time.Time
}

func newTickClock(s *schedule.Scheduler, period time.Duration) *tickClock {
	return &tickClock{sched: s, period: period, epoch: time.Unix(0, 0).UTC()}
}

func (c *tickClock) Now() time.Time {
	return c.epoch.Add(time.Duration(c.sched.Tick()) * c.period)
}

// tickBound is the accelerated run's safety net: accelerated waits may not
// sleep at all, so the bound is counted in ticks instead of wall time.
type tickBound struct {
	schedule.Waiter
	sched *schedule.Scheduler
	max   int
}

func (w *tickBound) Wait(ctx context.Context, d time.Duration) error {
	if err := w.Waiter.Wait(ctx, d); err != nil {
		return err
	}
	if w.sched.Tick() > w.max {
		return errTickBound
	}
	return nil
}
