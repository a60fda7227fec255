// Package automation runs batches of harness sessions: scripted suites read
// from YAML, and seed ensembles of one scenario in parallel. Each run gets
// its own export file, which is read back to check the record count.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ndisim/internal/config"
	"github.com/san-kum/ndisim/internal/harness"
	"github.com/san-kum/ndisim/internal/logging"
	"github.com/san-kum/ndisim/internal/store"
)

var (
	ErrEmptySuite = errors.New("automation: suite has no runs")
	ErrBadRuns    = errors.New("automation: run count must be positive")
)

// Suite is a scripted list of harness runs.
type Suite struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Runs        []RunSpec `yaml:"runs"`
}

// RunSpec is one suite entry. Zero values fall back to the runner's base
// options; ExpectRecords defaults to what the scenario schedule implies.
type RunSpec struct {
	Scenario      string        `yaml:"scenario"`
	Seed          int64         `yaml:"seed,omitempty"`
	RealTime      bool          `yaml:"realtime,omitempty"`
	Period        time.Duration `yaml:"period,omitempty"`
	OOVEvery      int           `yaml:"oov_every,omitempty"`
	ExpectRecords *int          `yaml:"expect_records,omitempty"`
}

func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(suite.Runs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySuite, path)
	}
	return &suite, nil
}

// Resolver turns a scenario reference into a scenario.
type Resolver func(name string) (*config.Scenario, error)

// Outcome is the verdict on one run.
type Outcome struct {
	Scenario string
	Seed     int64
	Expected int
	Counted  int
	Report   *harness.Report
	Err      error
	Passed   bool
	Reason   string
}

type Runner struct {
	Resolve Resolver
	// OutDir receives one export file per run.
	OutDir string
	Base   harness.Options
	Log    logging.Logger
}

func NewRunner(resolve Resolver, outDir string, log logging.Logger) *Runner {
	if log == nil {
		log = logging.Noop()
	}
	base := harness.DefaultOptions()
	base.Quiet = true
	base.Output = io.Discard
	return &Runner{Resolve: resolve, OutDir: outDir, Base: base, Log: log}
}

// ExpectedRecords counts record-key events scheduled before the first
// export event. Without an export event every record key counts.
func ExpectedRecords(s *config.Scenario, recordKey, exportKey string) int {
	exportAt := -1
	for _, tick := range s.Ticks() {
		if s.KeyboardSchedule[tick] == exportKey {
			exportAt = tick
			break
		}
	}
	n := 0
	for tick, key := range s.KeyboardSchedule {
		if key == recordKey && (exportAt < 0 || tick < exportAt) {
			n++
		}
	}
	return n
}

// RunSuite executes the suite in order. Individual run failures are
// reported in the outcomes; the error is only set when ctx ends early.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) ([]Outcome, error) {
	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, 0, len(suite.Runs))

	for i, spec := range suite.Runs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		r.Log.Info(ctx, "suite step",
			logging.Int("step", i+1),
			logging.Int("of", len(suite.Runs)),
			logging.String("scenario", spec.Scenario))

		s, err := r.Resolve(spec.Scenario)
		if err != nil {
			outcomes = append(outcomes, Outcome{Scenario: spec.Scenario, Seed: spec.Seed, Err: err, Reason: err.Error()})
			continue
		}
		outcomes = append(outcomes, r.runOne(ctx, s, spec, i))
	}
	return outcomes, nil
}

// RunEnsemble runs s n times with seeds seedStart, seedStart+1, ..., at
// most workers at a time. Outcomes are in seed order.
func (r *Runner) RunEnsemble(ctx context.Context, s *config.Scenario, n int, seedStart int64, workers int) ([]Outcome, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadRuns, n)
	}
	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]Outcome, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[idx] = Outcome{Scenario: s.Name, Seed: seedStart + int64(idx), Err: ctx.Err(), Reason: "cancelled"}
				return
			}
			defer func() { <-sem }()
			outcomes[idx] = r.runOne(ctx, s, RunSpec{Scenario: s.Name, Seed: seedStart + int64(idx)}, idx)
		}(i)
	}
	wg.Wait()
	return outcomes, ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, s *config.Scenario, spec RunSpec, idx int) Outcome {
	opts := r.Base
	if spec.Seed != 0 {
		opts.Seed = spec.Seed
	}
	if spec.Period > 0 {
		opts.Period = spec.Period
	}
	opts.RealTime = opts.RealTime || spec.RealTime
	if spec.OOVEvery > 0 {
		opts.OOVEvery = spec.OOVEvery
	}
	opts.ExportPath = filepath.Join(r.OutDir, fmt.Sprintf("%s_%03d_seed%d.txt", config.FileName(s.Name, ""), idx, opts.Seed))

	out := Outcome{Scenario: s.Name, Seed: opts.Seed, Counted: -1}
	out.Expected = ExpectedRecords(s, opts.RecordKey, opts.ExportKey)
	if spec.ExpectRecords != nil {
		out.Expected = *spec.ExpectRecords
	}

	h, err := harness.New(s, opts, harness.WithLogger(r.Log))
	if err != nil {
		out.Err, out.Reason = err, err.Error()
		return out
	}
	out.Report, out.Err = h.Run(ctx)
	if out.Err != nil {
		out.Reason = out.Err.Error()
		return out
	}
	if !out.Report.Exported {
		out.Reason = "no export"
		return out
	}

	f, err := os.Open(out.Report.ExportPath)
	if err != nil {
		out.Err, out.Reason = err, err.Error()
		return out
	}
	out.Counted, err = store.CountRecords(f)
	f.Close()
	if err != nil {
		out.Err, out.Reason = err, err.Error()
		return out
	}

	switch {
	case out.Counted != out.Report.Records:
		out.Reason = fmt.Sprintf("file has %d records, reader kept %d", out.Counted, out.Report.Records)
	case out.Counted != out.Expected:
		out.Reason = fmt.Sprintf("expected %d records, got %d", out.Expected, out.Counted)
	default:
		out.Passed = true
	}
	return out
}

// Stats counts passed and failed outcomes.
func Stats(outcomes []Outcome) (passed, failed int) {
	for _, o := range outcomes {
		if o.Passed {
			passed++
		} else {
			failed++
		}
	}
	return
}
