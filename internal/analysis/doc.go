// Package analysis checks simulated motion in the frequency domain.
//
// A target is sampled on a fixed step, each axis is detrended, and the real
// FFT of the series gives a magnitude spectrum in rad/s, the unit motion
// configs use for their frequency. The dominant bin should sit within one bin
// of the configured frequency for periodic motion types:
//
//	series := analysis.Series(cfg, analysis.AxisX, 512, 50*time.Millisecond, 1)
//	peak := analysis.Dominant(series, 50*time.Millisecond)
package analysis
