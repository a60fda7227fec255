// Package config loads and saves harness scenarios: which spheres the
// simulated tracker reports, how they move, and which keys fire on which
// ticks. YAML is the native format; JSON files from older setups load too.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/motion"
)

const (
	DefaultAxisRange = 1000
	DefaultExt       = ".yaml"
)

var (
	ErrScenarioNotFound = errors.New("config: scenario not found")
	ErrInvalidScenario  = errors.New("config: invalid scenario")
	ErrUnknownFormat    = errors.New("config: unknown file format")
)

type SphereConfig struct {
	Name       string     `yaml:"name" json:"name"`
	Center     [3]float64 `yaml:"center" json:"center"`
	MotionType string     `yaml:"motion_type" json:"motion_type"`
	Amplitude  float64    `yaml:"amplitude" json:"amplitude"`
	Frequency  float64    `yaml:"frequency" json:"frequency"`
	Phase      float64    `yaml:"phase" json:"phase"`
	NoiseLevel float64    `yaml:"noise_level" json:"noise_level"`
}

// Scenario is one harness run description. AxisRange is informational (mm).
// KeyboardSchedule maps ticks to logical keys; in JSON the tick keys are
// strings.
type Scenario struct {
	Name             string         `yaml:"name" json:"name"`
	Description      string         `yaml:"description" json:"description"`
	AxisRange        int            `yaml:"axis_range" json:"axis_range"`
	Spheres          []SphereConfig `yaml:"spheres" json:"spheres"`
	KeyboardSchedule map[int]string `yaml:"keyboard_schedule" json:"keyboard_schedule"`
}

func (s SphereConfig) Target() motion.Config {
	return motion.Config{
		Center: codec.Point3{
			X: int(s.Center[0]),
			Y: int(s.Center[1]),
			Z: int(s.Center[2]),
		},
		Type:      motion.Type(s.MotionType),
		Amplitude: s.Amplitude,
		Frequency: s.Frequency,
		Phase:     s.Phase,
		Noise:     s.NoiseLevel,
	}
}

// Targets converts the spheres to simulator targets in file order.
func (s *Scenario) Targets() []motion.Config {
	out := make([]motion.Config, len(s.Spheres))
	for i, sp := range s.Spheres {
		out[i] = sp.Target()
	}
	return out
}

// LastTick is the highest scheduled tick, 0 for an empty schedule.
func (s *Scenario) LastTick() int {
	last := 0
	for tick := range s.KeyboardSchedule {
		if tick > last {
			last = tick
		}
	}
	return last
}

// Ticks returns the scheduled ticks in ascending order.
func (s *Scenario) Ticks() []int {
	ticks := make([]int, 0, len(s.KeyboardSchedule))
	for tick := range s.KeyboardSchedule {
		ticks = append(ticks, tick)
	}
	sort.Ints(ticks)
	return ticks
}

func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidScenario)
	}
	for tick, key := range s.KeyboardSchedule {
		if tick < 0 {
			return fmt.Errorf("%w: negative tick %d", ErrInvalidScenario, tick)
		}
		if key == "" {
			return fmt.Errorf("%w: empty key at tick %d", ErrInvalidScenario, tick)
		}
	}
	for i, sp := range s.Spheres {
		for _, c := range sp.Center {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: sphere %d has a non-finite center", ErrInvalidScenario, i+1)
			}
		}
		if err := motion.Validate(sp.Target()); err != nil {
			return fmt.Errorf("%w: sphere %d: %w", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

// FromTargets wraps simulator targets in a scenario, e.g. for a built-in
// sphere preset run without a file.
func FromTargets(name string, targets []motion.Config, schedule map[int]string) *Scenario {
	s := &Scenario{
		Name:             name,
		AxisRange:        DefaultAxisRange,
		Spheres:          make([]SphereConfig, len(targets)),
		KeyboardSchedule: make(map[int]string, len(schedule)),
	}
	for i, t := range targets {
		s.Spheres[i] = SphereConfig{
			Name:       fmt.Sprintf("Sphere %d", i+1),
			Center:     [3]float64{float64(t.Center.X), float64(t.Center.Y), float64(t.Center.Z)},
			MotionType: string(t.Type),
			Amplitude:  t.Amplitude,
			Frequency:  t.Frequency,
			Phase:      t.Phase,
			NoiseLevel: t.Noise,
		}
	}
	for tick, key := range schedule {
		s.KeyboardSchedule[tick] = key
	}
	return s
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Scenario{AxisRange: DefaultAxisRange}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	case ".json":
		err = json.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.KeyboardSchedule == nil {
		s.KeyboardSchedule = map[int]string{}
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	case ".json":
		data, err = json.MarshalIndent(s, "", "  ")
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FileName is the default file name for a scenario: lower case, spaces
// replaced by underscores.
func FileName(name, ext string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_") + ext
}
