package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/ndisim/internal/config"
)

func presetResolver(name string) (*config.Scenario, error) {
	if s := config.GetPreset(name); s != nil {
		return s, nil
	}
	return nil, config.ErrScenarioNotFound
}

func writeSuite(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSuite(t *testing.T) {
	path := writeSuite(t, `
name: smoke
runs:
  - scenario: basic_test
    seed: 3
    period: 20ms
  - scenario: circular_motion
    expect_records: 3
`)
	s, err := LoadSuite(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "smoke" || len(s.Runs) != 2 {
		t.Fatalf("unexpected suite %+v", s)
	}
	if s.Runs[0].Period != 20*time.Millisecond || s.Runs[0].Seed != 3 {
		t.Errorf("unexpected first run %+v", s.Runs[0])
	}
	if s.Runs[0].ExpectRecords != nil || *s.Runs[1].ExpectRecords != 3 {
		t.Error("expect_records should only be set where given")
	}

	if _, err := LoadSuite(writeSuite(t, "name: empty\n")); !errors.Is(err, ErrEmptySuite) {
		t.Errorf("expected ErrEmptySuite, got %v", err)
	}
}

func TestExpectedRecords(t *testing.T) {
	tests := []struct {
		name     string
		schedule map[int]string
		want     int
	}{
		{"basic", map[int]string{0: "c", 30: "c", 60: "e"}, 2},
		{"record after export", map[int]string{0: "c", 10: "e", 20: "c"}, 1},
		{"no export", map[int]string{0: "c", 5: "c"}, 2},
		{"other keys", map[int]string{0: "x", 5: "c", 9: "e"}, 1},
		{"adjacent ticks", map[int]string{3: "c", 4: "c", 6: "e"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &config.Scenario{Name: tt.name, KeyboardSchedule: tt.schedule}
			if got := ExpectedRecords(s, "c", "e"); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRunSuite(t *testing.T) {
	wrong := 5
	suite := &Suite{
		Name: "mixed",
		Runs: []RunSpec{
			{Scenario: "basic_test"},
			{Scenario: "basic_test", Seed: 9, ExpectRecords: &wrong},
			{Scenario: "missing"},
		},
	}
	r := NewRunner(presetResolver, t.TempDir(), nil)
	outcomes, err := r.RunSuite(context.Background(), suite)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	if !outcomes[0].Passed || outcomes[0].Counted != 2 {
		t.Errorf("basic run should pass with 2 records: %+v", outcomes[0])
	}
	if outcomes[1].Passed || outcomes[1].Reason != "expected 5 records, got 2" {
		t.Errorf("wrong expectation should fail: %+v", outcomes[1])
	}
	if outcomes[1].Seed != 9 {
		t.Errorf("seed not applied: %d", outcomes[1].Seed)
	}
	if !errors.Is(outcomes[2].Err, config.ErrScenarioNotFound) {
		t.Errorf("missing scenario should carry the resolver error: %+v", outcomes[2])
	}

	passed, failed := Stats(outcomes)
	if passed != 1 || failed != 2 {
		t.Errorf("expected 1/2, got %d/%d", passed, failed)
	}
}

func TestRunEnsemble(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(presetResolver, dir, nil)
	outcomes, err := r.RunEnsemble(context.Background(), config.GetPreset("circular_motion"), 4, 100, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, o := range outcomes {
		if !o.Passed {
			t.Errorf("run %d failed: %s", i, o.Reason)
		}
		if o.Seed != 100+int64(i) {
			t.Errorf("run %d has seed %d", i, o.Seed)
		}
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.txt"))
	if len(files) != 4 {
		t.Errorf("expected one export per run, got %v", files)
	}
}

func TestAdjacentTickSuite(t *testing.T) {
	adjacent := &config.Scenario{
		Name:             "adjacent",
		Spheres:          []config.SphereConfig{{Name: "fixed", MotionType: "static"}},
		KeyboardSchedule: map[int]string{3: "c", 4: "c", 5: "c", 6: "e"},
	}
	resolve := func(name string) (*config.Scenario, error) {
		if name == adjacent.Name {
			return adjacent, nil
		}
		return presetResolver(name)
	}

	r := NewRunner(resolve, t.TempDir(), nil)
	outcomes, err := r.RunSuite(context.Background(), &Suite{Runs: []RunSpec{{Scenario: "adjacent"}}})
	if err != nil {
		t.Fatal(err)
	}
	if o := outcomes[0]; !o.Passed || o.Expected != 3 || o.Counted != 3 {
		t.Errorf("back-to-back record keys should all be kept: %+v", o)
	}
}

func TestRunEnsembleRejectsBadCount(t *testing.T) {
	r := NewRunner(presetResolver, t.TempDir(), nil)
	for _, n := range []int{0, -1} {
		outcomes, err := r.RunEnsemble(context.Background(), config.GetPreset("basic_test"), n, 1, 2)
		if !errors.Is(err, ErrBadRuns) || outcomes != nil {
			t.Errorf("n=%d: expected ErrBadRuns, got %v with %v", n, err, outcomes)
		}
	}
}

func TestRunSuiteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(presetResolver, t.TempDir(), nil)
	outcomes, err := r.RunSuite(ctx, &Suite{Runs: []RunSpec{{Scenario: "basic_test"}}})
	if !errors.Is(err, context.Canceled) || len(outcomes) != 0 {
		t.Errorf("expected an immediate cancel, got %v with %d outcomes", err, len(outcomes))
	}
}
