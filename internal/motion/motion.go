// Package motion computes where a simulated reflective marker sits at a given
// moment. Every variant except Static draws on the supplied random source,
// either for its offset or for the noise term, so positions are bounded
// random variables rather than exact values.
package motion

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/ndisim/internal/codec"
)

type Type string

const (
	Static     Type = "static"
	CircleXY   Type = "circle_xy"
	CircleXZ   Type = "circle_xz"
	CircleYZ   Type = "circle_yz"
	WaveX      Type = "wave_x"
	WaveXYZ    Type = "wave_xyz"
	Spiral     Type = "spiral"
	RandomWalk Type = "random_walk"
)

const (
	waveYRatio     = 1.3
	waveZRatio     = 0.7
	spiralGrowth   = 0.1
	spiralZRate    = 0.5
	spiralZScale   = 0.5
	randomWalkZAmp = 0.3
)

var (
	ErrNegativeAmplitude = errors.New("motion: amplitude must be non-negative")
	ErrNegativeNoise     = errors.New("motion: noise level must be non-negative")
)

// Config describes one target. It is treated as a value; changing a target
// means building a new Config.
type Config struct {
	Center    codec.Point3
	Type      Type
	Amplitude float64
	Frequency float64 // rad/s
	Phase     float64 // rad
	Noise     float64
}

func Types() []Type {
	return []Type{Static, CircleXY, CircleXZ, CircleYZ, WaveX, WaveXYZ, Spiral, RandomWalk}
}

// Known reports whether t has a dedicated formula. Unknown types are legal
// and stay at the center.
func Known(t Type) bool {
	for _, k := range Types() {
		if k == t {
			return true
		}
	}
	return false
}

func Validate(cfg Config) error {
	if cfg.Amplitude < 0 || math.IsNaN(cfg.Amplitude) {
		return fmt.Errorf("%w: %v", ErrNegativeAmplitude, cfg.Amplitude)
	}
	if cfg.Noise < 0 || math.IsNaN(cfg.Noise) {
		return fmt.Errorf("%w: %v", ErrNegativeNoise, cfg.Noise)
	}
	return nil
}

// Offset returns the displacement from the center t seconds after the
// target started moving, without noise.
func Offset(cfg Config, t float64, rng *rand.Rand) (dx, dy, dz float64) {
	a, w, p := cfg.Amplitude, cfg.Frequency, cfg.Phase
	angle := t*w + p

	switch cfg.Type {
	case Static:
		return 0, 0, 0
	case CircleXY:
		return a * math.Cos(angle), a * math.Sin(angle), 0
	case CircleXZ:
		return a * math.Cos(angle), 0, a * math.Sin(angle)
	case CircleYZ:
		return 0, a * math.Cos(angle), a * math.Sin(angle)
	case WaveX:
		return a * math.Sin(angle), 0, 0
	case WaveXYZ:
		return a * math.Sin(angle),
			a * math.Sin(t*w*waveYRatio+p),
			a * math.Sin(t*w*waveZRatio+p)
	case Spiral:
		r := a * (1 + spiralGrowth*t)
		return r * math.Cos(angle), r * math.Sin(angle), a * spiralZScale * math.Sin(t*spiralZRate)
	case RandomWalk:
		// Independent jitter per sample; there is no memory of the last position.
		za := a * randomWalkZAmp
		return uniform(rng, -a, a), uniform(rng, -a, a), uniform(rng, -za, za)
	default:
		return 0, 0, 0
	}
}

// Position adds per-axis uniform noise in [-Noise, Noise] to the offset
// center and truncates each axis toward zero.
func Position(cfg Config, t float64, rng *rand.Rand) codec.Point3 {
	dx, dy, dz := Offset(cfg, t, rng)
	n := cfg.Noise
	return codec.Point3{
		X: int(float64(cfg.Center.X) + dx + uniform(rng, -n, n)),
		Y: int(float64(cfg.Center.Y) + dy + uniform(rng, -n, n)),
		Z: int(float64(cfg.Center.Z) + dz + uniform(rng, -n, n)),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*rng.Float64()
}
