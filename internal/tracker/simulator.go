// Package tracker simulates the marker set a TX:0008 request reports on.
package tracker

import (
	"math/rand"
	"time"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/motion"
)

// Target is one marker plus the moment it was added. Its elapsed time is
// measured from that moment, not from simulator creation.
type Target struct {
	Config motion.Config
	start  time.Time
}

func (t *Target) Elapsed(now time.Time) float64 {
	return now.Sub(t.start).Seconds()
}

// Simulator owns an ordered target list. Insertion order is the wire index
// and never changes for the lifetime of a target. A Simulator is driven by
// a single poll loop and is not safe for concurrent use.
type Simulator struct {
	targets []*Target
	clock   motion.Clock
	rng     *rand.Rand
	width   int
}

func New(clock motion.Clock, rng *rand.Rand) *Simulator {
	if clock == nil {
		clock = motion.SystemClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		targets: make([]*Target, 0),
		clock:   clock,
		rng:     rng,
		width:   codec.DefaultWidth,
	}
}

func (s *Simulator) SetWidth(width int) { s.width = width }
func (s *Simulator) Width() int { return s.width }
func (s *Simulator) Len() int { return len(s.targets) }

func (s *Simulator) Add(cfg motion.Config) {
	s.targets = append(s.targets, &Target{Config: cfg, start: s.clock.Now()})
}

func (s *Simulator) Clear() {
	s.targets = s.targets[:0]
}

func (s *Simulator) Configs() []motion.Config {
	cfgs := make([]motion.Config, len(s.targets))
	for i, t := range s.targets {
		cfgs[i] = t.Config
	}
	return cfgs
}

// Positions samples every target once, in insertion order.
func (s *Simulator) Positions() []codec.Point3 {
	now := s.clock.Now()
	points := make([]codec.Point3, len(s.targets))
	for i, t := range s.targets {
		points[i] = motion.Position(t.Config, t.Elapsed(now), s.rng)
	}
	return points
}

func (s *Simulator) WireFrame(points []codec.Point3) string {
	return codec.WireFrame(codec.StatusOK, points, s.width)
}

// WireFrameStatus encodes points under an arbitrary status token, e.g. OOV
// for fault injection. The coordinate payload is identical to WireFrame.
func (s *Simulator) WireFrameStatus(points []codec.Point3, status string) string {
	return codec.WireFrame(status, points, s.width)
}

// Response samples the current positions and encodes them.
func (s *Simulator) Response() string {
	return s.WireFrame(s.Positions())
}
