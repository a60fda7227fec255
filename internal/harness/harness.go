// Package harness runs the tracker reader against a simulated tracker with
// scripted key presses, so a full record/export session can run unattended.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/san-kum/ndisim/internal/config"
	"github.com/san-kum/ndisim/internal/device"
	"github.com/san-kum/ndisim/internal/logging"
	"github.com/san-kum/ndisim/internal/metrics"
	"github.com/san-kum/ndisim/internal/motion"
	"github.com/san-kum/ndisim/internal/reader"
	"github.com/san-kum/ndisim/internal/schedule"
	"github.com/san-kum/ndisim/internal/store"
	"github.com/san-kum/ndisim/internal/tracker"
	"github.com/san-kum/ndisim/internal/tui"
)

const (
	DefaultPeriod = 50 * time.Millisecond
	// DeadlineSlack is how many ticks past the last scheduled event a run
	// may take before the safety net fires.
	DeadlineSlack = 60
	DeviceName    = "VirtualNDI"
	stopTimeout   = time.Second
)

var (
	ErrDeadline      = errors.New("harness: safety-net deadline reached")
	ErrInvalidPeriod = errors.New("harness: period must be positive")
)

type Options struct {
	Period time.Duration
	// RealTime advances the tick from a wall-clock ticker. Otherwise every
	// reader wait advances it by one.
	RealTime bool
	// Factor divides accelerated waits; 0 means no sleeping at all.
	Factor float64
	// Deadline overrides the (last tick + slack) x period safety net.
	Deadline   time.Duration
	OOVEvery   int
	Width      int
	Seed       int64
	ExportPath string
	RecordKey  string
	ExportKey  string
	FinalHold  time.Duration
	Quiet      bool
	Output     io.Writer
}

func DefaultOptions() Options {
	return Options{
		Period:     DefaultPeriod,
		Width:      reader.DefaultConfig().Width,
		Seed:       1,
		ExportPath: store.DefaultCoordinatesFile,
		RecordKey:  reader.DefaultRecordKey,
		ExportKey:  reader.DefaultExportKey,
	}
}

// Observer sees every frame the reader accepts.
type Observer interface {
	OnFrame(f reader.Frame)
}

type ObserverFunc func(f reader.Frame)

func (fn ObserverFunc) OnFrame(f reader.Frame) { fn(f) }

// Report is what a run produced.
type Report struct {
	Scenario        string           `json:"scenario"`
	Mode            string           `json:"mode"`
	Records         int              `json:"records"`
	FramesPolled    int              `json:"frames_polled"`
	FramesDiscarded int              `json:"frames_discarded"`
	FinalTick       int              `json:"final_tick"`
	Events          []schedule.Event `json:"events"`
	Pending         []schedule.Event `json:"pending,omitempty"`
	ExportPath      string           `json:"export_path,omitempty"`
	Exported        bool             `json:"exported"`
	Elapsed         time.Duration    `json:"elapsed"`
	Samples         []store.Sample   `json:"-"`
}

type Harness struct {
	scenario  *config.Scenario
	opts      Options
	sim       *tracker.Simulator
	sched     *schedule.Scheduler
	device    *SimDevice
	renderer  *tui.DiffRenderer
	log       logging.Logger
	metrics   *metrics.Collector
	clock     motion.Clock
	observers []Observer
}

type Option func(*Harness)

func WithLogger(l logging.Logger) Option { return func(h *Harness) { h.log = l } }

func WithMetrics(c *metrics.Collector) Option { return func(h *Harness) { h.metrics = c } }

// WithClock replaces the motion clock. By default real-time runs use the
// wall clock and accelerated runs derive time from the tick.
func WithClock(c motion.Clock) Option {
	return func(h *Harness) { h.clock = c }
}

// New builds a harness for one scenario. Nothing is shared between
// harnesses.
func New(s *config.Scenario, opts Options, extra ...Option) (*Harness, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.Period <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, opts.Period)
	}
	if opts.Width <= 0 {
		opts.Width = reader.DefaultConfig().Width
	}

	h := &Harness{
		scenario: s,
		opts:     opts,
		sched:    schedule.New(s.KeyboardSchedule),
		log:      logging.Noop(),
	}

	for _, o := range extra {
		o(h)
	}
	if h.clock == nil {
		h.clock = motion.SystemClock{}
		if !opts.RealTime {
			h.clock = newTickClock(h.sched, opts.Period)
		}
	}

	h.sim = tracker.New(h.clock, rand.New(rand.NewSource(opts.Seed)))
	h.sim.SetWidth(opts.Width)
	for _, t := range s.Targets() {
		h.sim.Add(t)
	}
	h.device = NewSimDevice(h.sim, opts.OOVEvery)
	h.sched.OnFire(func(ev schedule.Event) {
		h.log.Info(context.Background(), "key event", logging.Int("tick", ev.Tick), logging.String("key", ev.Key))
	})
	h.renderer = tui.NewDiffRenderer(opts.Output)
	h.renderer.SetEnabled(!opts.Quiet)
	return h, nil
}

func (h *Harness) AddObserver(o Observer) { h.observers = append(h.observers, o) }

func (h *Harness) Scheduler() *schedule.Scheduler { return h.sched }

func (h *Harness) Device() *SimDevice { return h.device }

func (h *Harness) Simulator() *tracker.Simulator { return h.sim }

// Deadline is the safety-net bound for a run. It is a blunt wall-clock
// timeout, not a guarantee that every scheduled event was reached.
func (h *Harness) Deadline() time.Duration {
	if h.opts.Deadline > 0 {
		return h.opts.Deadline
	}
	return time.Duration(h.scenario.LastTick()+DeadlineSlack) * h.opts.Period
}

func (h *Harness) mode() string {
	if h.opts.RealTime {
		return "realtime"
	}
	return "accelerated"
}

// Run drives one reader session to completion, the deadline, or ctx's end.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	maxTick := h.scenario.LastTick() + DeadlineSlack

	runCtx := ctx
	var cancel context.CancelFunc
	if h.opts.RealTime || h.opts.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, h.Deadline())
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var (
		waiter schedule.Waiter
		ticker *schedule.Ticker
	)
	rcfg := reader.Config{
		RecordKey:  h.opts.RecordKey,
		ExportKey:  h.opts.ExportKey,
		Width:      h.opts.Width,
		// one tick in both modes keeps event order identical between them
		Debounce:   h.opts.Period,
		FinalHold:  h.opts.FinalHold,
		ExportPath: h.opts.ExportPath,
		DeviceInfo: fmt.Sprintf("%s: %s (%d spheres, %s)", DeviceName, h.scenario.Name, h.sim.Len(), h.mode()),
	}
	if h.opts.RealTime {
		ticker = schedule.NewTicker(h.sched, h.opts.Period)
		ticker.Start(runCtx)
		waiter = schedule.RealWaiter{}
		// poll twice per tick so no tick goes unobserved
		rcfg.PollInterval = h.opts.Period / 2
	} else {
		waiter = &tickBound{
			Waiter: &schedule.AcceleratedWaiter{Target: h.sched, Factor: h.opts.Factor},
			sched:  h.sched,
			max:    maxTick,
		}
		rcfg.PollInterval = h.opts.Period
	}

	h.log.Info(runCtx, "harness starting",
		logging.String("scenario", h.scenario.Name),
		logging.String("mode", h.mode()),
		logging.Int("spheres", h.sim.Len()),
		logging.Int("last_tick", h.scenario.LastTick()))

	session := device.NewSession(h.device, DeviceName)
	r := reader.New(rcfg, session, h.sched, waiter, h.renderer,
		reader.WithLogger(h.log),
		reader.WithMetrics(h.metrics),
		reader.WithTicks(h.sched),
		reader.WithFrameHook(h.notify))

	if err := h.renderer.Start(); err != nil {
		return nil, err
	}
	res, err := r.Run(runCtx)
	h.renderer.Stop()

	if ticker != nil {
		if serr := ticker.Stop(stopTimeout); serr != nil {
			h.log.Warn(ctx, "ticker did not stop", logging.Any("error", serr))
		}
	}

	report := h.report(res, time.Since(start))
	switch {
	case err == nil:
	case errors.Is(err, errTickBound):
		err = fmt.Errorf("%w: tick %d", ErrDeadline, report.FinalTick)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		err = fmt.Errorf("%w: %v", ErrDeadline, h.Deadline())
	}
	if err != nil {
		h.log.Warn(ctx, "harness stopped", logging.Any("error", err), logging.Int("tick", report.FinalTick))
		return report, err
	}

	h.log.Info(ctx, "harness finished",
		logging.Int("records", report.Records),
		logging.String("export", report.ExportPath),
		logging.Any("elapsed", report.Elapsed))
	return report, nil
}

func (h *Harness) notify(f reader.Frame) {
	for _, o := range h.observers {
		o.OnFrame(f)
	}
}

func (h *Harness) report(res *reader.Result, elapsed time.Duration) *Report {
	rep := &Report{
		Scenario:  h.scenario.Name,
		Mode:      h.mode(),
		FinalTick: h.sched.Tick(),
		Events:    h.sched.History(),
		Pending:   h.sched.Pending(),
		Elapsed:   elapsed,
	}
	if res != nil {
		rep.Records = len(res.Samples)
		rep.FramesPolled = res.FramesPolled
		rep.FramesDiscarded = res.FramesDiscarded
		rep.ExportPath = res.ExportPath
		rep.Exported = res.Exported
		rep.Samples = res.Samples
	}
	return rep
}
