// Package reader is the tracker reader's poll loop. It only sees the device
// through a session, keys through keys.Input and time through a Waiter, so
// it runs unchanged against hardware or the simulator.
package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/device"
	"github.com/san-kum/ndisim/internal/keys"
	"github.com/san-kum/ndisim/internal/logging"
	"github.com/san-kum/ndisim/internal/metrics"
	"github.com/san-kum/ndisim/internal/schedule"
	"github.com/san-kum/ndisim/internal/store"
	"github.com/san-kum/ndisim/internal/tui"
)

const (
	DefaultRecordKey    = "c"
	DefaultExportKey    = "e"
	DefaultPollInterval = 50 * time.Millisecond
	DefaultSettle       = 500 * time.Millisecond
	DefaultDebounce     = 200 * time.Millisecond
	DefaultFinalHold    = 2 * time.Second
)

type Config struct {
	RecordKey    string
	ExportKey    string
	Width        int
	PollInterval time.Duration
	Settle       time.Duration
	Debounce     time.Duration
	FinalHold    time.Duration
	ExportPath   string
	DeviceInfo   string
}

func DefaultConfig() Config {
	return Config{
		RecordKey:    DefaultRecordKey,
		ExportKey:    DefaultExportKey,
		Width:        codec.DefaultWidth,
		PollInterval: DefaultPollInterval,
		Settle:       DefaultSettle,
		Debounce:     DefaultDebounce,
		FinalHold:    DefaultFinalHold,
		ExportPath:   store.DefaultCoordinatesFile,
	}
}

// Renderer is what the loop draws its screen with.
type Renderer interface {
	Render(lines []string) error
	Reset() error
}

// Frame is one accepted poll, handed to the frame hook.
type Frame struct {
	Seq     int
	Tick    int
	Status  string
	Spheres [][3]string
	Points  []codec.Point3
}

// Result summarizes a finished run.
type Result struct {
	Samples         []store.Sample
	FramesPolled    int
	FramesDiscarded int
	ExportPath      string
	Exported        bool
}

type Reader struct {
	cfg      Config
	session  *device.Session
	keys     keys.Input
	waiter   schedule.Waiter
	renderer Renderer
	log      logging.Logger
	metrics  *metrics.Collector
	ticks    interface{ Tick() int }
	onFrame  func(Frame)

	result Result
}

type Option func(*Reader)

func WithLogger(l logging.Logger) Option { return func(r *Reader) { r.log = l } }

func WithMetrics(c *metrics.Collector) Option { return func(r *Reader) { r.metrics = c } }

// WithTicks reports ticks from a scheduler instead of the poll count.
func WithTicks(t interface{ Tick() int }) Option { return func(r *Reader) { r.ticks = t } }

// WithFrameHook is called with every accepted frame before keys are checked.
func WithFrameHook(fn func(Frame)) Option { return func(r *Reader) { r.onFrame = fn } }

func New(cfg Config, session *device.Session, in keys.Input, waiter schedule.Waiter, renderer Renderer, opts ...Option) *Reader {
	if cfg.Width <= 0 {
		cfg.Width = codec.DefaultWidth
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = store.DefaultCoordinatesFile
	}
	r := &Reader{
		cfg:      cfg,
		session:  session,
		keys:     in,
		waiter:   waiter,
		renderer: renderer,
		log:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run connects, polls until the export key is pressed or ctx ends, and
// always stops the session on the way out.
func (r *Reader) Run(ctx context.Context) (*Result, error) {
	if err := r.renderer.Reset(); err != nil {
		return nil, err
	}
	if err := r.renderer.Render(tui.StartupLines(r.cfg.DeviceInfo)); err != nil {
		return nil, err
	}
	if err := r.session.Connect(ctx); err != nil {
		return nil, err
	}
	if err := r.session.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := r.session.Close(cleanup); err != nil && !errors.Is(err, device.ErrNotStarted) {
			r.log.Warn(ctx, "closing session", logging.Any("error", err))
		}
	}()

	if err := r.wait(ctx, r.cfg.Settle); err != nil {
		return &r.result, err
	}

	for {
		done, debounced, err := r.step(ctx)
		if err != nil {
			return &r.result, err
		}
		if done {
			return &r.result, nil
		}
		// the debounce wait stands in for the poll wait, so a cycle never
		// spans more than one of them
		if debounced {
			continue
		}
		if err := r.wait(ctx, r.cfg.PollInterval); err != nil {
			return &r.result, err
		}
	}
}

// step performs one poll cycle. done is true once the export finished;
// debounced is true when the cycle already waited out the debounce.
func (r *Reader) step(ctx context.Context) (done, debounced bool, err error) {
	raw, err := r.session.Command(ctx, device.CmdTX)
	if err != nil {
		return false, false, fmt.Errorf("poll: %w", err)
	}
	r.result.FramesPolled++

	spheres, ok := codec.Group(codec.Decode(raw, r.cfg.Width))
	if !ok {
		r.result.FramesDiscarded++
		r.metrics.Discarded()
		r.log.Debug(ctx, "discarded frame", logging.String("raw", raw))
		return false, false, nil
	}

	status := codec.Status(raw)
	r.metrics.Frame(len(spheres), status == codec.StatusOOV)
	tick := r.tick()
	r.metrics.SetTick(tick)

	if r.onFrame != nil {
		points, _ := codec.Points(spheres)
		r.onFrame(Frame{Seq: r.result.FramesPolled, Tick: tick, Status: status, Spheres: spheres, Points: points})
	}

	// the export key is only read when no record happened, so a latched
	// export press survives until the next cycle
	switch {
	case r.keys.IsPressed(r.cfg.RecordKey):
		r.metrics.Key(r.cfg.RecordKey)
		r.metrics.Record()
		r.result.Samples = append(r.result.Samples, store.Sample{Tick: tick, Spheres: spheres})
		r.log.Info(ctx, "recorded sample",
			logging.Int("record", len(r.result.Samples)),
			logging.Int("tick", tick),
			logging.Int("spheres", len(spheres)))
		if err := r.wait(ctx, r.cfg.Debounce); err != nil {
			return false, false, err
		}
		debounced = r.cfg.Debounce > 0
	case r.keys.IsPressed(r.cfg.ExportKey):
		r.metrics.Key(r.cfg.ExportKey)
		return true, false, r.export(ctx)
	}

	return false, debounced, r.renderer.Render(tui.ReaderLines(spheres, tui.Status{
		RecordKey:  r.cfg.RecordKey,
		ExportKey:  r.cfg.ExportKey,
		Recorded:   len(r.result.Samples),
		Tick:       tick,
		Discarded:  r.result.FramesDiscarded,
		DeviceInfo: r.cfg.DeviceInfo,
		OutOfRange: status == codec.StatusOOV,
	}))
}

func (r *Reader) export(ctx context.Context) error {
	path, err := store.ExportCoordinates(r.cfg.ExportPath, r.result.Samples)
	if err != nil {
		return fmt.Errorf("export coordinates: %w", err)
	}
	r.result.ExportPath = path
	r.result.Exported = true
	r.log.Info(ctx, "exported coordinates",
		logging.String("path", path),
		logging.Int("records", len(r.result.Samples)))

	if err := r.renderer.Render(tui.ExportLines(path, len(r.result.Samples))); err != nil {
		return err
	}
	return r.wait(ctx, r.cfg.FinalHold)
}

func (r *Reader) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return r.waiter.Wait(ctx, d)
}

func (r *Reader) tick() int {
	if r.ticks == nil {
		return r.result.FramesPolled - 1
	}
	return r.ticks.Tick()
}
