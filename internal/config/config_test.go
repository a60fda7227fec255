package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/motion"
)

func TestGetPreset(t *testing.T) {
	s := GetPreset("basic_test")
	if s == nil {
		t.Fatal("expected preset, got nil")
	}
	if s.Name != "Basic Test" {
		t.Errorf("expected name Basic Test, got %s", s.Name)
	}
	if s.LastTick() != 60 {
		t.Errorf("expected last tick 60, got %d", s.LastTick())
	}

	s.KeyboardSchedule[999] = "x"
	if GetPreset("basic_test").LastTick() != 60 {
		t.Error("presets must be returned as fresh copies")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
	stress := GetPreset("stress_test")
	if len(stress.Spheres) != 5 {
		t.Errorf("expected 5 spheres, got %d", len(stress.Spheres))
	}
	if len(stress.KeyboardSchedule) != 11 || stress.LastTick() != 300 {
		t.Errorf("unexpected stress schedule %v", stress.KeyboardSchedule)
	}
}

func TestTargets(t *testing.T) {
	s := GetPreset("mixed_motion")
	targets := s.Targets()
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(targets))
	}
	want := motion.Config{
		Center:    codec.Point3{X: 400000},
		Type:      motion.CircleXY,
		Amplitude: 150000,
		Frequency: 0.6,
		Noise:     400,
	}
	if targets[1] != want {
		t.Errorf("expected %+v, got %+v", want, targets[1])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"empty name", func(s *Scenario) { s.Name = " " }},
		{"negative tick", func(s *Scenario) { s.KeyboardSchedule[-1] = "c" }},
		{"empty key", func(s *Scenario) { s.KeyboardSchedule[5] = "" }},
		{"negative amplitude", func(s *Scenario) { s.Spheres[0].Amplitude = -1 }},
		{"negative noise", func(s *Scenario) { s.Spheres[0].NoiseLevel = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := GetPreset("basic_test")
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidScenario) {
				t.Errorf("expected ErrInvalidScenario, got %v", err)
			}
		})
	}

	s := GetPreset("basic_test")
	s.Spheres[0].Amplitude = -1
	if err := s.Validate(); !errors.Is(err, motion.ErrNegativeAmplitude) {
		t.Errorf("expected the motion error to be wrapped, got %v", err)
	}
}

func TestSaveLoadFormats(t *testing.T) {
	dir := t.TempDir()
	orig := GetPreset("spiral_motion")

	for _, ext := range []string{".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "spiral"+ext)
			if err := Save(path, orig); err != nil {
				t.Fatal(err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != orig.Name || len(got.Spheres) != 3 {
				t.Errorf("unexpected scenario %+v", got)
			}
			if got.Spheres[2].Center != orig.Spheres[2].Center {
				t.Errorf("center lost: %v", got.Spheres[2].Center)
			}
			if got.KeyboardSchedule[270] != "e" {
				t.Errorf("schedule lost: %v", got.KeyboardSchedule)
			}
		})
	}
}

func TestLoadLegacyJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	data := `{
  "name": "Legacy",
  "description": "",
  "axis_range": 1000,
  "spheres": [
    {"name": "S", "center": [1, 2, 3], "motion_type": "static", "amplitude": 0, "frequency": 0, "phase": 0, "noise_level": 0}
  ],
  "keyboard_schedule": {"0": "c", "15": "e"}
}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.KeyboardSchedule[15] != "e" || s.LastTick() != 15 {
		t.Errorf("unexpected schedule %v", s.KeyboardSchedule)
	}
	if s.Targets()[0].Center != (codec.Point3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("unexpected center %v", s.Targets()[0].Center)
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.toml")
	os.WriteFile(path, []byte("name = 'x'"), 0644)
	if _, err := Load(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestManager(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "configs"))

	names, err := m.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty list, got %v %v", names, err)
	}

	paths, err := m.CreatePresets()
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(ListPresets()) {
		t.Errorf("expected %d preset files, got %d", len(ListPresets()), len(paths))
	}

	names, err = m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 5 || names[0] != "basic_test.yaml" {
		t.Errorf("unexpected listing %v", names)
	}

	s, err := m.Load("Circular Motion")
	if err != nil {
		t.Fatal(err)
	}
	if s.LastTick() != 180 {
		t.Errorf("expected last tick 180, got %d", s.LastTick())
	}
	if _, err := m.Load("stress_test.yaml"); err != nil {
		t.Errorf("load by file name: %v", err)
	}
	if _, err := m.Load("missing"); !errors.Is(err, ErrScenarioNotFound) {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestFromTargets(t *testing.T) {
	targets := []motion.Config{{Center: codec.Point3{X: 5, Y: -5}, Type: motion.WaveX, Amplitude: 10}}
	s := FromTargets("wave", targets, map[int]string{0: "c", 10: "e"})
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.Targets()[0] != targets[0] {
		t.Errorf("round trip through the scenario changed the target: %+v", s.Targets()[0])
	}
	if !strings.HasPrefix(s.Spheres[0].Name, "Sphere") {
		t.Errorf("unexpected sphere name %q", s.Spheres[0].Name)
	}
}
