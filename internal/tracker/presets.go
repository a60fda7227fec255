package tracker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/motion"
)

var ErrUnknownPreset = errors.New("tracker: unknown preset")

var referenceCenters = []codec.Point3{
	{X: 123456, Y: -654321, Z: 111222},
	{X: 223344, Y: 334455, Z: -445566},
	{X: -555444, Y: 666333, Z: 777222},
}

var Presets = map[string]func() []motion.Config{
	"static_3": func() []motion.Config {
		cfgs := make([]motion.Config, len(referenceCenters))
		for i, c := range referenceCenters {
			cfgs[i] = motion.Config{Center: c, Type: motion.Static}
		}
		return cfgs
	},
	"circle_3": func() []motion.Config {
		cfgs := make([]motion.Config, 3)
		for i := range cfgs {
			cfgs[i] = motion.Config{
				Center:    codec.Point3{X: 100000 * i},
				Type:      motion.CircleXY,
				Amplitude: 50000,
				Frequency: 0.5,
				Phase:     float64(i) * 2.0,
				Noise:     100,
			}
		}
		return cfgs
	},
	"wave_3": func() []motion.Config {
		cfgs := make([]motion.Config, len(referenceCenters))
		for i, c := range referenceCenters {
			cfgs[i] = motion.Config{
				Center:    c,
				Type:      motion.WaveXYZ,
				Amplitude: 30000,
				Frequency: 0.3 + float64(i)*0.1,
				Noise:     50,
			}
		}
		return cfgs
	},
	"mixed": func() []motion.Config {
		return []motion.Config{
			{Center: referenceCenters[0], Type: motion.CircleXY, Amplitude: 40000, Frequency: 0.5, Noise: 100},
			{Center: referenceCenters[1], Type: motion.WaveX, Amplitude: 30000, Frequency: 0.8, Noise: 100},
			{Center: referenceCenters[2], Type: motion.Static, Noise: 100},
		}
	},
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddPreset appends the targets of a named preset.
func (s *Simulator) AddPreset(name string) error {
	fn, ok := Presets[name]
	if !ok {
		return fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	for _, cfg := range fn() {
		s.Add(cfg)
	}
	return nil
}
