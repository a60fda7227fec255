package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/motion"
)

const (
	AxisX = iota
	AxisY
	AxisZ
)

var ErrShortSeries = errors.New("analysis: need at least four samples")

// Bin is one spectrum line. Freq is angular, in rad/s.
type Bin struct {
	Freq  float64
	Power float64
}

// Series samples one axis of cfg n times, step apart, starting at t=0.
// The same seed gives the same series.
func Series(cfg motion.Config, axis, n int, step time.Duration, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		p := motion.Position(cfg, float64(i)*step.Seconds(), rng)
		out[i] = float64([codec.Dims]int{p.X, p.Y, p.Z}[axis])
	}
	return out
}

// Spectrum returns the magnitude of the first half of the real FFT of the
// detrended series. Bin k sits at 2πk/(n·step).
func Spectrum(series []float64, step time.Duration) []Bin {
	n := len(series)
	if n == 0 || step <= 0 {
		return nil
	}

	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	width := Resolution(n, step)
	bins := make([]Bin, n/2)
	for k := range bins {
		bins[k] = Bin{Freq: float64(k) * width, Power: cmplx.Abs(coeffs[k])}
	}
	return bins
}

// Resolution is the bin spacing in rad/s for n samples step apart.
func Resolution(n int, step time.Duration) float64 {
	if n == 0 || step <= 0 {
		return 0
	}
	return 2 * math.Pi / (float64(n) * step.Seconds())
}

// Dominant is the strongest non-DC bin, or the zero Bin for a flat series.
func Dominant(series []float64, step time.Duration) Bin {
	bins := Spectrum(series, step)
	if len(bins) < 2 {
		return Bin{}
	}
	var best Bin
	for _, b := range bins[1:] {
		if b.Power > best.Power {
			best = b
		}
	}
	return best
}

// TargetSpectrum is the per-axis peak of one target.
type TargetSpectrum struct {
	Index      int
	Type       motion.Type
	Configured float64
	Peaks      [codec.Dims]Bin
}

// Analyze samples every target and reports its dominant frequency per axis.
func Analyze(targets []motion.Config, n int, step time.Duration, seed int64) ([]TargetSpectrum, error) {
	if n < 4 {
		return nil, fmt.Errorf("%w: got %d", ErrShortSeries, n)
	}
	out := make([]TargetSpectrum, len(targets))
	for i, cfg := range targets {
		ts := TargetSpectrum{Index: i, Type: cfg.Type, Configured: cfg.Frequency}
		for axis := range ts.Peaks {
			ts.Peaks[axis] = Dominant(Series(cfg, axis, n, step, seed+int64(i)), step)
		}
		out[i] = ts
	}
	return out, nil
}
