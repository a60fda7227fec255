package config

import "fmt"

var presetOrder = []string{"basic_test", "circular_motion", "spiral_motion", "mixed_motion", "stress_test"}

var Presets = map[string]func() *Scenario{
	"basic_test": func() *Scenario {
		return &Scenario{
			Name:        "Basic Test",
			Description: "three static spheres, checks plain reading",
			AxisRange:   1000,
			Spheres: []SphereConfig{
				{Name: "Sphere 1", MotionType: "static"},
				{Name: "Sphere 2", Center: [3]float64{300000, 0, 0}, MotionType: "static"},
				{Name: "Sphere 3", Center: [3]float64{0, 300000, 0}, MotionType: "static"},
			},
			KeyboardSchedule: map[int]string{0: "c", 30: "c", 60: "e"},
		}
	},
	"circular_motion": func() *Scenario {
		return &Scenario{
			Name:        "Circular Motion",
			Description: "three spheres circling in different planes",
			AxisRange:   1500,
			Spheres: []SphereConfig{
				{Name: "XY Circle", MotionType: "circle_xy", Amplitude: 200000, Frequency: 0.5, Phase: 0, NoiseLevel: 500},
				{Name: "XZ Circle", MotionType: "circle_xz", Amplitude: 200000, Frequency: 0.5, Phase: 1.57, NoiseLevel: 500},
				{Name: "YZ Circle", MotionType: "circle_yz", Amplitude: 200000, Frequency: 0.5, Phase: 3.14, NoiseLevel: 500},
			},
			KeyboardSchedule: map[int]string{0: "c", 60: "c", 120: "c", 180: "e"},
		}
	},
	"spiral_motion": func() *Scenario {
		return &Scenario{
			Name:        "Spiral Motion",
			Description: "three spheres on growing spirals",
			AxisRange:   2000,
			Spheres: []SphereConfig{
				{Name: "Spiral 1", MotionType: "spiral", Amplitude: 200000, Frequency: 0.5, NoiseLevel: 300},
				{Name: "Spiral 2", Center: [3]float64{300000, 0, 0}, MotionType: "spiral", Amplitude: 150000, Frequency: 0.3, Phase: 1.57, NoiseLevel: 300},
				{Name: "Spiral 3", Center: [3]float64{-300000, 0, 0}, MotionType: "spiral", Amplitude: 180000, Frequency: 0.4, Phase: 3.14, NoiseLevel: 300},
			},
			KeyboardSchedule: map[int]string{0: "c", 90: "c", 180: "c", 270: "e"},
		}
	},
	"mixed_motion": func() *Scenario {
		return &Scenario{
			Name:        "Mixed Motion",
			Description: "static, circling and spiralling spheres together",
			AxisRange:   1500,
			Spheres: []SphereConfig{
				{Name: "Static", MotionType: "static"},
				{Name: "Circle", Center: [3]float64{400000, 0, 0}, MotionType: "circle_xy", Amplitude: 150000, Frequency: 0.6, NoiseLevel: 400},
				{Name: "Spiral", Center: [3]float64{-400000, 0, 0}, MotionType: "spiral", Amplitude: 180000, Frequency: 0.4, NoiseLevel: 400},
			},
			KeyboardSchedule: map[int]string{0: "c", 60: "c", 120: "c", 180: "e"},
		}
	},
	"stress_test": func() *Scenario {
		s := &Scenario{
			Name:             "Stress Test",
			Description:      "five random-walk spheres with frequent records",
			AxisRange:        2000,
			KeyboardSchedule: map[int]string{300: "e"},
		}
		for i := 0; i < 5; i++ {
			s.Spheres = append(s.Spheres, SphereConfig{
				Name:       fmt.Sprintf("Sphere %d", i+1),
				Center:     [3]float64{float64((i - 2) * 200000), 0, 0},
				MotionType: "random_walk",
				Amplitude:  150000,
				Frequency:  0.8,
				Phase:      float64(i) * 0.5,
				NoiseLevel: 1000,
			})
		}
		for i := 0; i < 10; i++ {
			s.KeyboardSchedule[i*30] = "c"
		}
		return s
	},
}

// GetPreset returns a fresh copy of a preset scenario, or nil.
func GetPreset(name string) *Scenario {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, len(presetOrder))
	copy(names, presetOrder)
	return names
}
