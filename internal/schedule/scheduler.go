// Package schedule drives scripted key presses off a logical tick clock.
//
// The tick only moves forward through Advance, called either by a Ticker at
// a fixed wall-clock period or by an AcceleratedWaiter each time the driven
// code waits. Queries never move time.
package schedule

import (
	"sort"
	"sync"
)

// Event records a scheduled key that fired.
type Event struct {
	Tick int    `json:"tick" yaml:"tick"`
	Key  string `json:"key" yaml:"key"`
}

// Scheduler maps ticks to logical keys. Each tick fires at most once over
// the life of the Scheduler, however often it is polled within that tick.
type Scheduler struct {
	mu      sync.Mutex
	tick    int
	events  map[int]string
	fired   map[int]struct{}
	history []Event
	onFire  []func(Event)
}

func New(events map[int]string) *Scheduler {
	s := &Scheduler{
		events:  make(map[int]string, len(events)),
		fired:   make(map[int]struct{}),
		history: make([]Event, 0, len(events)),
	}
	for tick, key := range events {
		if tick >= 0 {
			s.events[tick] = key
		}
	}
	return s
}

// OnFire adds a callback invoked outside the lock after an event fires.
// Callbacks run in registration order.
func (s *Scheduler) OnFire(fn func(Event)) {
	s.mu.Lock()
	s.onFire = append(s.onFire, fn)
	s.mu.Unlock()
}

// Advance moves the clock one tick forward and returns the new tick.
func (s *Scheduler) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	return s.tick
}

func (s *Scheduler) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// IsPressed reports whether key is scheduled for the current tick and that
// tick has not fired yet. A true result marks the tick as fired.
func (s *Scheduler) IsPressed(key string) bool {
	s.mu.Lock()
	ev, ok := s.check(s.tick, key)
	hooks := s.onFire
	s.mu.Unlock()

	if ok {
		for _, fn := range hooks {
			fn(ev)
		}
	}
	return ok
}

// Trigger is IsPressed evaluated against an explicit tick value.
func (s *Scheduler) Trigger(tick int, key string) bool {
	s.mu.Lock()
	ev, ok := s.check(tick, key)
	hooks := s.onFire
	s.mu.Unlock()

	if ok {
		for _, fn := range hooks {
			fn(ev)
		}
	}
	return ok
}

// check must be called with mu held.
func (s *Scheduler) check(tick int, key string) (Event, bool) {
	want, ok := s.events[tick]
	if !ok || want != key {
		return Event{}, false
	}
	if _, done := s.fired[tick]; done {
		return Event{}, false
	}
	s.fired[tick] = struct{}{}
	ev := Event{Tick: tick, Key: key}
	s.history = append(s.history, ev)
	return ev, true
}

func (s *Scheduler) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.history))
	copy(out, s.history)
	return out
}

// Pending returns scheduled events that have not fired, in tick order.
func (s *Scheduler) Pending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for tick, key := range s.events {
		if _, done := s.fired[tick]; !done {
			out = append(out, Event{Tick: tick, Key: key})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out
}

// Schedule returns a copy of the trigger table.
func (s *Scheduler) Schedule() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.events))
	for tick, key := range s.events {
		out[tick] = key
	}
	return out
}

// LastTick is the highest scheduled tick, or 0 for an empty schedule.
func (s *Scheduler) LastTick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := 0
	for tick := range s.events {
		if tick > last {
			last = tick
		}
	}
	return last
}
