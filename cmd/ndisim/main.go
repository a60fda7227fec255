package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/ndisim/internal/analysis"
	"github.com/san-kum/ndisim/internal/automation"
	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/config"
	"github.com/san-kum/ndisim/internal/device"
	"github.com/san-kum/ndisim/internal/export"
	"github.com/san-kum/ndisim/internal/harness"
	"github.com/san-kum/ndisim/internal/keys"
	"github.com/san-kum/ndisim/internal/logging"
	"github.com/san-kum/ndisim/internal/metrics"
	"github.com/san-kum/ndisim/internal/motion"
	"github.com/san-kum/ndisim/internal/reader"
	"github.com/san-kum/ndisim/internal/schedule"
	"github.com/san-kum/ndisim/internal/store"
	"github.com/san-kum/ndisim/internal/stream"
	"github.com/san-kum/ndisim/internal/tracker"
	"github.com/san-kum/ndisim/internal/tui"
	"github.com/san-kum/ndisim/internal/viz"
)

var (
	dataDir     string
	scenarioDir string
	logLevel    string
	logFormat   string
	// harness
	preset     string
	realtime   bool
	period     time.Duration
	deadline   time.Duration
	factor     float64
	oovEvery   int
	width      int
	seed       int64
	exportPath string
	jsonPath   string
	quiet      bool
	noArchive  bool
	finalHold  time.Duration
	// device reader
	port      string
	baud      int
	timeout   time.Duration
	recordKey string
	exportKey string
	// console, frame and view
	framePreset  string
	cliInterval  time.Duration
	viewInterval time.Duration
	liveSeed     int64
	duration     time.Duration
	oov          bool
	svgPath      string
	listenAddr   string
	// batches and analysis
	suiteOut     string
	ensembleOut  string
	ensembleRuns int
	workers      int
	seedStart    int64
	spectrumLen  int
	// archived runs
	sphere int
	axis   string
	plane  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ndisim",
		Short:        "NDI tracker reader and simulation harness",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ndisim", "run archive directory")
	rootCmd.PersistentFlags().StringVar(&scenarioDir, "dir", "configs", "scenario directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run the reader against the simulated tracker",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHarness,
	}
	addHarnessFlags(runCmd)
	runCmd.Flags().StringVar(&jsonPath, "json", "", "also write recorded samples as JSON")
	runCmd.Flags().BoolVar(&noArchive, "no-archive", false, "do not archive the run")

	readCmd := &cobra.Command{
		Use:   "read",
		Short: "read a real tracker over a serial port",
		RunE:  runReader,
	}
	readCmd.Flags().StringVar(&port, "port", "", "serial device (e.g. /dev/ttyUSB0, COM3)")
	readCmd.Flags().IntVar(&baud, "baud", 9600, "baud rate")
	readCmd.Flags().DurationVar(&timeout, "timeout", time.Second, "reply timeout")
	readCmd.Flags().StringVar(&recordKey, "record-key", reader.DefaultRecordKey, "key that records a sample")
	readCmd.Flags().StringVar(&exportKey, "export-key", reader.DefaultExportKey, "key that exports and exits")
	readCmd.Flags().StringVar(&exportPath, "export", store.DefaultCoordinatesFile, "export file")
	readCmd.Flags().IntVar(&width, "width", codec.DefaultWidth, "coordinate digit width")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "manage scenario files",
	}
	scenariosCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list scenario files and built-in presets",
			RunE:  listScenarios,
		},
		&cobra.Command{
			Use:   "show [scenario]",
			Short: "describe a scenario",
			Args:  cobra.ExactArgs(1),
			RunE:  showScenario,
		},
		&cobra.Command{
			Use:   "init",
			Short: "write the preset scenarios to the scenario directory",
			RunE:  initScenarios,
		},
	)

	cliCmd := &cobra.Command{
		Use:   "cli [scenario]",
		Short: "print simulated positions to the console",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConsole,
	}
	cliCmd.Flags().StringVar(&preset, "preset", "", "sphere preset instead of a scenario ("+strings.Join(tracker.ListPresets(), ", ")+")")
	cliCmd.Flags().DurationVar(&duration, "time", 5*time.Second, "how long to print")
	cliCmd.Flags().DurationVar(&cliInterval, "period", 500*time.Millisecond, "print interval")
	cliCmd.Flags().Int64Var(&liveSeed, "seed", time.Now().UnixNano(), "random seed")

	frameCmd := &cobra.Command{
		Use:   "frame",
		Short: "print one wire frame for a sphere preset",
		RunE:  printFrame,
	}
	frameCmd.Flags().StringVar(&framePreset, "preset", "static_3", "sphere preset")
	frameCmd.Flags().BoolVar(&oov, "oov", false, "flag the frame out of volume")
	frameCmd.Flags().IntVar(&width, "width", codec.DefaultWidth, "coordinate digit width")
	frameCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	frameCmd.Flags().StringVar(&svgPath, "svg", "", "also draw the markers in the tracking volume as SVG")

	viewCmd := &cobra.Command{
		Use:   "view [scenario]",
		Short: "live 3-D view of the simulated spheres",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runView,
	}
	viewCmd.Flags().StringVar(&preset, "preset", "", "sphere preset instead of a scenario")
	viewCmd.Flags().DurationVar(&viewInterval, "period", harness.DefaultPeriod, "sample interval")
	viewCmd.Flags().Int64Var(&liveSeed, "seed", time.Now().UnixNano(), "random seed")

	serveCmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "run the harness and stream frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addHarnessFlags(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "listen address for /ws and /metrics")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "inspect archived harness runs",
	}
	runsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list runs",
			RunE:  listRuns,
		},
		&cobra.Command{
			Use:   "show [run_id]",
			Short: "print run metadata",
			Args:  cobra.ExactArgs(1),
			RunE:  showRun,
		},
	)
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one sphere axis across the recorded samples",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&sphere, "sphere", 1, "sphere number")
	plotCmd.Flags().StringVar(&axis, "axis", "", "x, y or z (default: all)")
	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "draw one sphere's recorded path as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().IntVar(&sphere, "sphere", 1, "sphere number")
	svgCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (xy, xz, yz)")
	svgCmd.Flags().StringVar(&svgPath, "out", "", "output file (default <run_id>.svg)")
	runsCmd.AddCommand(plotCmd, svgCmd)

	suiteCmd := &cobra.Command{
		Use:   "suite [file]",
		Short: "run a YAML list of harness sessions and check their exports",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuite,
	}
	suiteCmd.Flags().StringVar(&suiteOut, "out", "suite-out", "directory for per-run exports")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scenario]",
		Short: "run one scenario across many seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().StringVar(&preset, "preset", "", "sphere preset instead of a scenario")
	ensembleCmd.Flags().StringVar(&ensembleOut, "out", "ensemble-out", "directory for per-run exports")
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 8, "number of runs")
	ensembleCmd.Flags().IntVar(&workers, "workers", 4, "runs in flight at once")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first run")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [scenario]",
		Short: "check each sphere's dominant motion frequency",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSpectrum,
	}
	spectrumCmd.Flags().StringVar(&preset, "preset", "", "sphere preset instead of a scenario")
	spectrumCmd.Flags().IntVar(&spectrumLen, "samples", 1024, "samples per axis")
	spectrumCmd.Flags().DurationVar(&period, "period", harness.DefaultPeriod, "sample step")
	spectrumCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	rootCmd.AddCommand(runCmd, readCmd, scenariosCmd, cliCmd, frameCmd, viewCmd, serveCmd, runsCmd,
		suiteCmd, ensembleCmd, spectrumCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addHarnessFlags(cmd *cobra.Command) {
	def := harness.DefaultOptions()
	cmd.Flags().StringVar(&preset, "preset", "", "sphere preset instead of a scenario ("+strings.Join(tracker.ListPresets(), ", ")+")")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "advance ticks on the wall clock")
	cmd.Flags().DurationVar(&period, "period", def.Period, "tick period")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "safety-net timeout (default (last tick + 60) x period)")
	cmd.Flags().Float64Var(&factor, "factor", 0, "accelerated sleep divisor (0 = no sleep)")
	cmd.Flags().IntVar(&oovEvery, "oov-every", 0, "flag every Nth frame out of volume")
	cmd.Flags().IntVar(&width, "width", def.Width, "coordinate digit width")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "random seed")
	cmd.Flags().StringVar(&exportPath, "export", def.ExportPath, "export file")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not draw the reader screen")
	cmd.Flags().DurationVar(&finalHold, "final-hold", 0, "how long the export screen stays up (default 2s in real time, 0 accelerated)")
}

func newLogger() logging.Logger {
	return logging.New(logging.Config{Level: envOr("LOG_LEVEL", logLevel), Format: envOr("LOG_FORMAT", logFormat)})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadScenario resolves, in order: --preset, a file path, a name in the
// scenario directory, or the basic preset when nothing is given.
func loadScenario(args []string) (*config.Scenario, error) {
	if preset != "" {
		fn, ok := tracker.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("%w: %s (available: %v)", tracker.ErrUnknownPreset, preset, tracker.ListPresets())
		}
		return config.FromTargets(preset, fn(), config.GetPreset("basic_test").KeyboardSchedule), nil
	}
	if len(args) == 0 {
		return config.GetPreset("basic_test"), nil
	}
	if _, err := os.Stat(args[0]); err == nil {
		return config.Load(args[0])
	}
	s, err := config.NewManager(scenarioDir).Load(args[0])
	if errors.Is(err, config.ErrScenarioNotFound) {
		if p := config.GetPreset(config.FileName(args[0], "")); p != nil {
			return p, nil
		}
	}
	return s, err
}

func harnessOptions(cmd *cobra.Command) harness.Options {
	opts := harness.DefaultOptions()
	opts.RealTime = realtime
	opts.Period = period
	opts.Deadline = deadline
	opts.Factor = factor
	opts.OOVEvery = oovEvery
	opts.Width = width
	opts.Seed = seed
	opts.ExportPath = exportPath
	opts.Quiet = quiet
	opts.Output = os.Stdout
	if cmd.Flags().Changed("final-hold") {
		opts.FinalHold = finalHold
	} else if realtime {
		// leave the export screen up like the device reader does
		opts.FinalHold = reader.DefaultFinalHold
	}
	return opts
}

func runHarness(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(args)
	if err != nil {
		return err
	}
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	opts := harnessOptions(cmd)
	h, err := harness.New(scenario, opts, harness.WithLogger(log))
	if err != nil {
		return err
	}

	rep, runErr := h.Run(ctx)
	if rep == nil {
		return runErr
	}

	if jsonPath != "" {
		if err := store.ExportJSON(jsonPath, scenario.Name, opts.Width, rep.Samples); err != nil {
			return err
		}
	}

	var runID string
	if !noArchive {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(store.RunMetadata{
			Scenario:        scenario.Name,
			Seed:            opts.Seed,
			Mode:            rep.Mode,
			Period:          opts.Period,
			FramesPolled:    rep.FramesPolled,
			FramesDiscarded: rep.FramesDiscarded,
			FinalTick:       rep.FinalTick,
			ExportPath:      rep.ExportPath,
		}, rep.Samples)
		if err != nil {
			return err
		}
	}

	printReport(rep, runID)
	return runErr
}

func printReport(rep *harness.Report, runID string) {
	fmt.Printf("\nscenario: %s (%s)\n", rep.Scenario, rep.Mode)
	fmt.Printf("completed in %v, final tick %d\n", rep.Elapsed.Round(time.Millisecond), rep.FinalTick)
	fmt.Printf("frames: %d polled, %d discarded\n", rep.FramesPolled, rep.FramesDiscarded)
	fmt.Printf("records: %d\n", rep.Records)
	for _, ev := range rep.Events {
		fmt.Printf("  tick %4d: '%s'\n", ev.Tick, ev.Key)
	}
	if len(rep.Pending) > 0 {
		fmt.Printf("never fired: %v\n", rep.Pending)
	}
	if rep.Exported {
		fmt.Printf("export: %s\n", rep.ExportPath)
	}
	if runID != "" {
		fmt.Printf("run id: %s\n", runID)
	}
}

func runReader(cmd *cobra.Command, args []string) error {
	if port == "" {
		ports, _ := device.Ports()
		return fmt.Errorf("--port is required (available: %v)", ports)
	}
	log := newLogger()

	transport, err := device.OpenSerial(port, baud, timeout)
	if err != nil {
		return err
	}
	defer transport.Close()

	term, err := keys.OpenTerminal()
	if err != nil {
		return err
	}
	defer term.Close()

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		select {
		case <-term.Interrupted():
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg := reader.DefaultConfig()
	cfg.RecordKey = recordKey
	cfg.ExportKey = exportKey
	cfg.Width = width
	cfg.ExportPath = exportPath
	cfg.DeviceInfo = fmt.Sprintf("device: %s @ %d baud", port, baud)

	renderer := tui.NewDiffRenderer(os.Stdout)
	if err := renderer.Start(); err != nil {
		return err
	}
	defer renderer.Stop()

	session := device.NewSession(transport, port)
	r := reader.New(cfg, session, term, schedule.RealWaiter{}, renderer, reader.WithLogger(log))
	res, err := r.Run(ctx)
	if err != nil {
		return err
	}
	log.Info(ctx, "reader finished",
		logging.Int("records", len(res.Samples)),
		logging.Int("frames", res.FramesPolled),
		logging.Int("discarded", res.FramesDiscarded))
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	m := config.NewManager(scenarioDir)
	names, err := m.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("no scenario files in %s (run `ndisim scenarios init`)\n", scenarioDir)
	} else {
		fmt.Printf("scenarios in %s:\n", scenarioDir)
		for _, n := range names {
			fmt.Printf("  %s\n", n)
		}
	}
	fmt.Println("\nbuilt-in presets:")
	for _, p := range config.ListPresets() {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println("\nsphere presets (--preset):")
	for _, p := range tracker.ListPresets() {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func showScenario(cmd *cobra.Command, args []string) error {
	s, err := loadScenario(args)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		fmt.Printf("warning: %v\n", err)
	}

	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Printf("name:        %s\n", s.Name)
	fmt.Printf("description: %s\n", s.Description)
	fmt.Printf("axis range:  ±%d mm\n", s.AxisRange)
	fmt.Printf("spheres:     %d\n\n", len(s.Spheres))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tCENTER\tMOTION\tAMPLITUDE\tFREQ\tPHASE\tNOISE")
	for i, sp := range s.Spheres {
		fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%.0f\t%.2f\t%.2f\t%.0f\n",
			i+1, sp.Name, sp.Center, sp.MotionType, sp.Amplitude, sp.Frequency, sp.Phase, sp.NoiseLevel)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nkey events: %d\n", len(s.KeyboardSchedule))
	for _, tick := range s.Ticks() {
		fmt.Printf("  tick %3d: '%s'\n", tick, s.KeyboardSchedule[tick])
	}
	fmt.Println(rule)
	return nil
}

func initScenarios(cmd *cobra.Command, args []string) error {
	paths, err := config.NewManager(scenarioDir).CreatePresets()
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%d preset scenarios in %s\n", len(paths), scenarioDir)
	return nil
}

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func newSimulator(s *config.Scenario, w int) (*tracker.Simulator, error) {
	sim := tracker.New(motion.SystemClock{}, newRand(liveSeed))
	sim.SetWidth(w)
	for _, t := range s.Targets() {
		if err := motion.Validate(t); err != nil {
			return nil, err
		}
		sim.Add(t)
	}
	return sim, nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	s, err := loadScenario(args)
	if err != nil {
		return err
	}
	sim, err := newSimulator(s, codec.DefaultWidth)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	ctx, stop := context.WithTimeout(ctx, duration)
	defer stop()

	fmt.Printf("%s: %d spheres, printing every %v for %v\n", s.Name, sim.Len(), cliInterval, duration)
	ticker := time.NewTicker(cliInterval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		frame := sim.Response()
		spheres, _ := codec.Group(codec.Decode(frame, sim.Width()))
		fmt.Printf("\n[%d] %s\n", n, frame)
		for i, sp := range spheres {
			fmt.Printf("  Sphere %d: X=%s Y=%s Z=%s\n", i+1, sp[0], sp[1], sp[2])
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printFrame(cmd *cobra.Command, args []string) error {
	sim := tracker.New(motion.SystemClock{}, newRand(seed))
	sim.SetWidth(width)
	if err := sim.AddPreset(framePreset); err != nil {
		return err
	}
	points := sim.Positions()
	for _, p := range points {
		for _, v := range []int{p.X, p.Y, p.Z} {
			if codec.Overflows(v, width) {
				fmt.Fprintf(os.Stderr, "warning: %d does not fit in %d digits, saturated\n", v, width)
			}
		}
	}
	status := codec.StatusOK
	if oov {
		status = codec.StatusOOV
	}
	fmt.Println(sim.WireFrameStatus(points, status))

	if svgPath == "" {
		return nil
	}
	cv := viz.Snapshot(points, config.DefaultAxisRange, 48, 24)
	if err := os.WriteFile(svgPath, []byte(export.CanvasToSVG(cv, 4)), 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", svgPath)
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	s, err := loadScenario(args)
	if err != nil {
		return err
	}
	sim, err := newSimulator(s, codec.DefaultWidth)
	if err != nil {
		return err
	}
	names := make([]string, len(s.Spheres))
	for i, sp := range s.Spheres {
		names[i] = sp.Name
	}
	return viz.Run(sim, names, s.AxisRange, viewInterval)
}

func runServe(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(args)
	if err != nil {
		return err
	}
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	srv := stream.NewServer(listenAddr, log, m)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	opts := harnessOptions(cmd)
	h, err := harness.New(scenario, opts, harness.WithLogger(log), harness.WithMetrics(m))
	if err != nil {
		return err
	}
	h.AddObserver(srv)
	h.Scheduler().OnFire(func(ev schedule.Event) {
		srv.Broadcast(stream.Message{Type: stream.TypeInfo, Tick: ev.Tick, Text: "key " + ev.Key})
	})

	rep, err := h.Run(ctx)
	if err != nil {
		log.Warn(ctx, "harness run ended", logging.Any("error", err))
	}
	if rep != nil {
		printReport(rep, "")
	}
	fmt.Printf("serving /ws and /metrics on %s, ctrl+c to stop\n", listenAddr)

	select {
	case <-ctx.Done():
		return <-errc
	case err := <-errc:
		return err
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tMODE\tRECORDS\tFRAMES\tDISCARDED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Records,
			run.FramesPolled,
			run.FramesDiscarded,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := store.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("run %s has %d samples, need at least 2 to plot", meta.ID, len(samples))
	}

	axes := map[string]int{"x": 0, "y": 1, "z": 2}
	names := []string{"x", "y", "z"}
	if axis != "" {
		if _, ok := axes[strings.ToLower(axis)]; !ok {
			return fmt.Errorf("unknown axis %q", axis)
		}
		names = []string{strings.ToLower(axis)}
	}

	fmt.Printf("run: %s\nscenario: %s\nsamples: %d\n\n", meta.ID, meta.Scenario, len(samples))
	for _, name := range names {
		data := make([]float64, 0, len(samples))
		for _, s := range samples {
			if sphere < 1 || sphere > len(s.Spheres) {
				return fmt.Errorf("sphere %d out of range (1-%d)", sphere, len(s.Spheres))
			}
			v, err := codec.TokenFloat(s.Spheres[sphere-1][axes[name]])
			if err != nil {
				return err
			}
			data = append(data, v)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("sphere %d %s", sphere, strings.ToUpper(name))),
		))
		fmt.Println()
	}
	return nil
}

func svgRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	points, err := export.SamplePath(samples, sphere-1, plane)
	if err != nil {
		return err
	}

	out := svgPath
	if out == "" {
		out = meta.ID + ".svg"
	}
	if err := os.WriteFile(out, []byte(export.TrajectoryToSVG(points, 600, 600, "#00ff88")), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d points, sphere %d, %s plane)\n", out, len(points), sphere, strings.ToUpper(plane))
	return nil
}

// resolveScenario is the suite resolver: a file path, a name in the
// scenario directory, or a built-in preset.
func resolveScenario(name string) (*config.Scenario, error) {
	return loadScenario([]string{name})
}

func printOutcomes(outcomes []automation.Outcome) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCENARIO\tSEED\tEXPECTED\tRECORDS\tRESULT")
	for i, o := range outcomes {
		result := "PASS"
		if !o.Passed {
			result = "FAIL: " + o.Reason
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n", i+1, o.Scenario, o.Seed, o.Expected, o.Counted, result)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	passed, failed := automation.Stats(outcomes)
	fmt.Printf("\n%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(outcomes))
	}
	return nil
}

func runSuite(cmd *cobra.Command, args []string) error {
	suite, err := automation.LoadSuite(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("suite: %s (%d runs)\n", suite.Name, len(suite.Runs))
	r := automation.NewRunner(resolveScenario, suiteOut, newLogger())
	outcomes, err := r.RunSuite(ctx, suite)
	if perr := printOutcomes(outcomes); err == nil {
		err = perr
	}
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	s, err := loadScenario(args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("ensemble: %s, %d runs from seed %d, %d workers\n", s.Name, ensembleRuns, seedStart, workers)
	r := automation.NewRunner(resolveScenario, ensembleOut, newLogger())
	outcomes, err := r.RunEnsemble(ctx, s, ensembleRuns, seedStart, workers)
	if perr := printOutcomes(outcomes); err == nil {
		err = perr
	}
	return err
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	s, err := loadScenario(args)
	if err != nil {
		return err
	}
	results, err := analysis.Analyze(s.Targets(), spectrumLen, period, seed)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d samples every %v, resolution %.3f rad/s\n\n", s.Name, spectrumLen, period, analysis.Resolution(spectrumLen, period))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tMOTION\tCONFIGURED\tPEAK X\tPEAK Y\tPEAK Z")
	for _, r := range results {
		name := ""
		if r.Index < len(s.Spheres) {
			name = s.Spheres[r.Index].Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f", r.Index+1, name, r.Type, r.Configured)
		for _, b := range r.Peaks {
			if b.Power == 0 {
				fmt.Fprint(w, "\t-")
			} else {
				fmt.Fprintf(w, "\t%.3f", b.Freq)
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
