package tracker

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/motion"
)

var epoch = time.Date(2024, time.October, 8, 12, 0, 0, 0, time.UTC)

func newSim() (*Simulator, *motion.ManualClock) {
	clock := motion.NewManualClock(epoch)
	return New(clock, rand.New(rand.NewSource(1))), clock
}

func TestStaticWireFrame(t *testing.T) {
	s, _ := newSim()
	s.Add(motion.Config{Center: codec.Point3{X: 100000, Y: -200000, Z: 50000}, Type: motion.Static})

	frame := s.Response()
	want := "TXRESP|OK|+100000|-200000|+050000|END"
	if frame != want {
		t.Fatalf("expected %q, got %q", want, frame)
	}

	groups, ok := codec.Group(codec.Decode(frame, s.Width()))
	if !ok || len(groups) != 1 {
		t.Fatalf("expected one point, got %v", groups)
	}
	points, err := codec.Points(groups)
	if err != nil {
		t.Fatal(err)
	}
	if points[0] != (codec.Point3{X: 100000, Y: -200000, Z: 50000}) {
		t.Errorf("round trip mismatch: %v", points[0])
	}
}

func TestIndexStability(t *testing.T) {
	s, clock := newSim()
	centers := []codec.Point3{{X: 1}, {X: 2}, {X: 3}}
	for _, c := range centers {
		s.Add(motion.Config{Center: c, Type: motion.Static})
		clock.Advance(300 * time.Millisecond)
	}

	for i := 0; i < 5; i++ {
		points := s.Positions()
		if len(points) != 3 {
			t.Fatalf("expected 3 points, got %d", len(points))
		}
		for j, p := range points {
			if p != centers[j] {
				t.Errorf("call %d index %d: expected %v, got %v", i, j, centers[j], p)
			}
		}
		clock.Advance(time.Second)
	}
}

func TestStaggeredElapsed(t *testing.T) {
	s, clock := newSim()
	cfg := motion.Config{Type: motion.WaveX, Amplitude: 1000, Frequency: 1}

	s.Add(cfg)
	clock.Advance(2 * time.Second)
	s.Add(cfg)

	now := clock.Now()
	if got := s.targets[0].Elapsed(now); got != 2 {
		t.Errorf("first target: expected 2s elapsed, got %v", got)
	}
	if got := s.targets[1].Elapsed(now); got != 0 {
		t.Errorf("second target: expected 0s elapsed, got %v", got)
	}

	points := s.Positions()
	if points[1].X != 0 {
		t.Errorf("freshly added wave should sit at center, got %v", points[1])
	}
	if points[0].X == 0 {
		t.Errorf("older wave should have moved, got %v", points[0])
	}
}

func TestOOVKeepsPayload(t *testing.T) {
	s, _ := newSim()
	if err := s.AddPreset("static_3"); err != nil {
		t.Fatal(err)
	}
	points := s.Positions()
	ok := s.WireFrame(points)
	oov := s.WireFrameStatus(points, codec.StatusOOV)

	if codec.Status(oov) != codec.StatusOOV {
		t.Errorf("expected OOV status in %q", oov)
	}
	a, b := codec.Decode(ok, 6), codec.Decode(oov, 6)
	if len(a) != 9 || len(a) != len(b) {
		t.Fatalf("payload length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("token %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestClear(t *testing.T) {
	s, _ := newSim()
	_ = s.AddPreset("mixed")
	if s.Len() != 3 {
		t.Fatalf("expected 3 targets, got %d", s.Len())
	}
	s.Clear()
	if s.Len() != 0 || len(s.Positions()) != 0 {
		t.Error("expected empty simulator after Clear")
	}
	if got := s.Response(); got != "TXRESP|OK|END" {
		t.Errorf("unexpected empty frame %q", got)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		s, _ := newSim()
		if err := s.AddPreset(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if s.Len() != 3 {
			t.Errorf("%s: expected 3 targets, got %d", name, s.Len())
		}
		for _, cfg := range s.Configs() {
			if err := motion.Validate(cfg); err != nil {
				t.Errorf("%s: %v", name, err)
			}
		}
	}

	s, _ := newSim()
	if err := s.AddPreset("nonexistent"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}
