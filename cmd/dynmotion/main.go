package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynmotion/internal/config"
	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
	"github.com/san-kum/dynmotion/internal/orchestrate"
	"github.com/san-kum/dynmotion/internal/spring"
	"github.com/san-kum/dynmotion/internal/storage"
	"github.com/san-kum/dynmotion/internal/timeline"
	"github.com/san-kum/dynmotion/internal/trail"
	"github.com/san-kum/dynmotion/internal/tui"
	"github.com/san-kum/dynmotion/internal/tune"
	"github.com/san-kum/dynmotion/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	themeName  string

	stiffness float64
	damping   float64
	mass      float64
	restSpeed float64
	restDelta float64
	from      float64
	to        float64
	velocity  float64
	stepper   string
	clamp     bool
	maxSteps  int
	save      bool
	realtime  bool
	timeout   time.Duration

	count     int
	step      float64
	columns   int
	origin    int
	frequency float64
	seed      uint64
	simulate  bool

	samples  int
	play     bool
	legs     string
	parallel bool
	kind     string
	output   string
	asCSV    bool
	asSVG    bool

	kRange       []float64
	cRange       []float64
	gridSize     int
	maxOvershoot float64
	workers      int
	top          int
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dynmotion"})

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynmotion",
		Short:         "spring animation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			motion.SetLogger(logger.WithPrefix("motion"))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			return runPreview(cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", viz.DefaultTheme.Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))
	springFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "animate one value to rest and chart it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSpring,
	}
	springFlags(runCmd)
	runCmd.Flags().BoolVar(&clamp, "clamp", false, "keep values inside [from, to]")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", spring.DefaultMaxSteps, "frame limit")
	runCmd.Flags().BoolVar(&save, "save", false, "record the run")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "run on a 60 fps wall clock")
	runCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "realtime wait limit")

	classifyCmd := &cobra.Command{
		Use:   "classify [preset]",
		Short: "print period, damping ratio and regime",
		Args:  cobra.MaximumNArgs(1),
		RunE:  classifySpring,
	}
	springFlags(classifyCmd)

	trailCmd := &cobra.Command{
		Use:   "trail [preset]",
		Short: "simulate a follower chain",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrail,
	}
	springFlags(trailCmd)
	trailCmd.Flags().IntVar(&count, "count", config.DefaultTrailCount, "followers")
	trailCmd.Flags().BoolVar(&save, "save", false, "record the run")

	staggerCmd := &cobra.Command{
		Use:   "stagger [pattern]",
		Short: "print a stagger delay table",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStagger,
	}
	springFlags(staggerCmd)
	staggerCmd.Flags().IntVar(&count, "count", config.DefaultStaggerCount, "targets")
	staggerCmd.Flags().Float64Var(&step, "step", orchestrate.DefaultStep, "seconds between ranks")
	staggerCmd.Flags().IntVar(&columns, "columns", 0, "grid width")
	staggerCmd.Flags().IntVar(&origin, "origin", 0, "grid origin index")
	staggerCmd.Flags().Float64Var(&frequency, "frequency", 1, "wave half periods")
	staggerCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	staggerCmd.Flags().BoolVar(&simulate, "simulate", false, "animate one spring per target")

	chainCmd := &cobra.Command{
		Use:   "chain",
		Short: "run legs one after another, or all at once with --parallel",
		RunE:  runChain,
	}
	springFlags(chainCmd)
	chainCmd.Flags().StringVar(&legs, "legs", "100,0,50", "comma separated targets")
	chainCmd.Flags().BoolVar(&parallel, "parallel", false, "animate every leg as its own key at once")

	timelineCmd := &cobra.Command{
		Use:   "timeline [script.yaml]",
		Short: "build a timeline and print seek samples",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTimeline,
	}
	timelineCmd.Flags().IntVar(&samples, "samples", 8, "seek points")
	timelineCmd.Flags().BoolVar(&play, "play", false, "play to the end frame by frame")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&kind, "kind", "", "only runs of this kind")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "chart a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as json or csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&asCSV, "csv", false, "write samples as csv")
	exportCmd.Flags().BoolVar(&asSVG, "svg", false, "write the chart as svg")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search stiffness and damping for the fastest spring within an overshoot limit",
		RunE:  runTune,
	}
	springFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kRange, "k-range", []float64{50, 400}, "stiffness range lo,hi")
	tuneCmd.Flags().Float64SliceVar(&cRange, "c-range", []float64{5, 60}, "damping range lo,hi")
	tuneCmd.Flags().IntVar(&gridSize, "grid", 12, "points per axis")
	tuneCmd.Flags().Float64Var(&maxOvershoot, "max-overshoot", 0.02, "allowed overshoot fraction")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default GOMAXPROCS)")
	tuneCmd.Flags().IntVar(&top, "top", 5, "results to print")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the run index from disk",
		RunE:  reindexRuns,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "interactive spring preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			return runPreview(cfg)
		},
	}
	springFlags(liveCmd)
	liveCmd.Flags().IntVar(&count, "count", config.DefaultTrailCount, "trail followers")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list spring presets, steppers, patterns and eases",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, classifyCmd, trailCmd, staggerCmd, chainCmd, timelineCmd, tuneCmd,
		listCmd, plotCmd, exportCmd, deleteCmd, reindexCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func springFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&stiffness, "stiffness", spring.DefaultStiffness, "spring constant")
	f.Float64Var(&damping, "damping", spring.DefaultDamping, "damping coefficient")
	f.Float64Var(&mass, "mass", spring.DefaultMass, "mass")
	f.Float64Var(&restSpeed, "rest-speed", spring.DefaultRestSpeed, "rest speed threshold")
	f.Float64Var(&restDelta, "rest-delta", spring.DefaultRestDelta, "rest distance threshold")
	f.Float64Var(&from, "from", config.DefaultFrom, "start value")
	f.Float64Var(&to, "to", config.DefaultTo, "target value")
	f.Float64Var(&velocity, "velocity", 0, "initial velocity")
	f.StringVar(&stepper, "stepper", "euler", "integrator: "+strings.Join(spring.ListSteppers(), ", "))
}

// loadConfig layers defaults, the config file, a preset argument and then
// any flag the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		if err := cfg.ApplyPreset(args[0]); err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(config.ListPresets(), ", "))
		}
	}

	flags := cmd.Flags()
	set := func(name string, dst *float64, v float64) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("stiffness", &cfg.Spring.Stiffness, stiffness)
	set("damping", &cfg.Spring.Damping, damping)
	set("mass", &cfg.Spring.Mass, mass)
	set("rest-speed", &cfg.Spring.RestSpeed, restSpeed)
	set("rest-delta", &cfg.Spring.RestDelta, restDelta)
	set("from", &cfg.From, from)
	set("to", &cfg.To, to)
	set("velocity", &cfg.Velocity, velocity)
	if flags.Changed("stepper") {
		cfg.Stepper = stepper
	}
	if flags.Changed("clamp") {
		cfg.Clamp = clamp
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("count") {
		cfg.Trail.Count = count
		cfg.Stagger.Count = count
	}
	if flags.Changed("data") || configFile == "" {
		cfg.Storage.Dir = dataDir
	}
	if !flags.Changed("log-level") {
		if level, err := cfg.LogLevel(); err == nil {
			logger.SetLevel(level)
		}
	}
	return cfg, cfg.Validate()
}

func runPreview(cfg *config.Config) error {
	mc, err := cfg.MotionConfig()
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Spring:  mc.Config,
		Stepper: mc.Stepper,
		From:    cfg.From,
		To:      cfg.To,
		Trail:   cfg.Trail.Count,
		Theme:   themeName,
	})
}

// recorder collects one driver's samples frame by frame.
type recorder struct {
	d          *motion.Driver
	positions  []float64
	velocities []float64
}

func record(d *motion.Driver) *recorder {
	r := &recorder{d: d}
	d.Subscribe(func(v float64) {
		r.positions = append(r.positions, v)
		r.velocities = append(r.velocities, d.Velocity())
	})
	return r
}

func (r *recorder) trajectory(settled bool) *spring.Trajectory {
	return &spring.Trajectory{
		Positions:  r.positions,
		Velocities: r.velocities,
		Steps:      len(r.positions) - 1,
		Settled:    settled,
	}
}

func runSpring(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	mc, err := cfg.MotionConfig()
	if err != nil {
		return err
	}

	start := time.Now()
	var tr *spring.Trajectory
	if realtime {
		tr, err = springRealtime(cmd.Context(), cfg, mc)
	} else {
		tr, err = springManual(cfg, mc)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := viz.GetTheme(themeName).Styles()
	fmt.Println(st.Title.Render("spring") + "  " + st.Regime(spring.Classify(mc.Config)))
	fmt.Println(st.Field("frames", tr.Steps))
	fmt.Println(st.Field("settle time", fmt.Sprintf("%.3fs", tr.Duration())))
	fmt.Println(st.Field("overshoot", fmt.Sprintf("%.2f%%", tr.Overshoot()*100)))
	fmt.Println(st.Field("settled", tr.Settled))
	fmt.Println(st.Field("energy", fmt.Sprintf("%.2f", spring.Energy(cfg.From, cfg.Velocity, cfg.To, mc.Config))))
	fmt.Println(st.Field("wall time", elapsed.Round(time.Microsecond)))
	fmt.Println()
	target := cfg.To
	fmt.Println(viz.Chart(tr.Positions, viz.ChartOptions{Height: 12, Width: 60, Caption: "position", Target: &target, Theme: viz.GetTheme(themeName)}))

	if !save {
		return nil
	}
	return saveRun(cmd.Context(), "spring", cfg, mc.Config, tr, storage.FromTrajectory(tr))
}

func springManual(cfg *config.Config, mc motion.Config) (*spring.Trajectory, error) {
	clock := frame.NewManual()
	d, err := motion.New(clock, cfg.From, cfg.To, mc)
	if err != nil {
		return nil, err
	}
	defer d.Destroy()

	rec := record(d)
	d.Start()
	limit := cfg.MaxSteps
	if limit <= 0 {
		limit = spring.DefaultMaxSteps
	}
	settled := clock.RunUntil(d.IsComplete, limit)
	if !settled {
		logger.Warn("spring did not settle", "frames", limit)
	}
	return rec.trajectory(settled), nil
}

// springRealtime drives the spring from a 60 fps loop goroutine and waits on
// its completion from this one.
func springRealtime(ctx context.Context, cfg *config.Config, mc motion.Config) (*spring.Trajectory, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	loop := frame.NewLoop(0)
	loop.Start(loopCtx)

	var (
		d   *motion.Driver
		rec *recorder
		err error
	)
	if cerr := loop.Call(loopCtx, func() {
		d, err = motion.New(loop, cfg.From, cfg.To, mc)
		if err != nil {
			return
		}
		rec = record(d)
		d.Start()
	}); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	werr := d.Finished().Wait(waitCtx)

	var tr *spring.Trajectory
	if cerr := loop.Call(loopCtx, func() {
		tr = rec.trajectory(werr == nil)
		d.Destroy()
	}); cerr != nil {
		return nil, cerr
	}
	if werr != nil {
		logger.Warn("spring did not settle in time", "timeout", timeout, "err", werr)
	}
	return tr, nil
}

func saveRun(ctx context.Context, kind string, cfg *config.Config, sc spring.Config, tr *spring.Trajectory, s *storage.Samples) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := storage.Open(ctx, cfg.Storage.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	meta := storage.RunMetadata{
		Kind:    kind,
		Stepper: cfg.Stepper,
		Spring:  sc,
		From:    cfg.From,
		To:      cfg.To,
		Steps:   tr.Steps,
		Settled: tr.Settled,
		Metrics: map[string]float64{
			"settle_time":   tr.Duration(),
			"overshoot":     tr.Overshoot(),
			"damping_ratio": spring.DampingRatio(sc),
			"period":        spring.Period(sc),
			"energy":        spring.Energy(cfg.From, cfg.Velocity, cfg.To, sc),
		},
	}
	id, err := st.Save(ctx, meta, s)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", id, "kind", kind)
	fmt.Printf("run id: %s\n", id)
	return nil
}

func classifySpring(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sc := cfg.Spring.WithDefaults()
	st := viz.GetTheme(themeName).Styles()

	fmt.Println(st.Field("stiffness", sc.Stiffness))
	fmt.Println(st.Field("damping", sc.Damping))
	fmt.Println(st.Field("mass", sc.Mass))
	fmt.Println(st.Separator(40))
	fmt.Println(st.Field("period", fmt.Sprintf("%.4fs", spring.Period(sc))))
	fmt.Println(st.Field("omega", fmt.Sprintf("%.4f rad/s", spring.AngularFrequency(sc))))
	fmt.Println(st.Field("ratio", spring.DampingRatio(sc)))
	fmt.Println(st.Label.Render("regime") + st.Regime(spring.Classify(sc)))
	return nil
}

func runTrail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	mc, err := cfg.MotionConfig()
	if err != nil {
		return err
	}

	clock := frame.NewManual()
	tr, err := trail.New(clock, cfg.Trail.Count, cfg.From, mc)
	if err != nil {
		return err
	}
	defer tr.Destroy()

	history := make([][]float64, tr.Len())
	tr.Subscribe(func(vals []float64) {
		for i, v := range vals {
			history[i] = append(history[i], v)
		}
	})
	tr.Set(cfg.To)
	if !clock.RunUntil(tr.Finished().IsDone, cfg.MaxSteps) {
		logger.Warn("trail did not settle", "frames", cfg.MaxSteps)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FOLLOWER\tREST FRAME\tREST TIME")
	for i, f := range tr.SettleFrames() {
		fmt.Fprintf(w, "%d\t%d\t%.3fs\n", i, f, float64(f)*spring.Dt)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	target := cfg.To
	fmt.Println(viz.ChartMany(history, viz.ChartOptions{Height: 12, Width: 60, Caption: "followers", Target: &target, Theme: viz.GetTheme(themeName)}))

	if !save || len(history) == 0 {
		return nil
	}
	s := &storage.Samples{}
	for i := range history {
		s.Columns = append(s.Columns, fmt.Sprintf("follower%d", i))
	}
	last := history[len(history)-1]
	for n := range last {
		row := make([]float64, len(history))
		for i := range history {
			row[i] = history[i][min(n, len(history[i])-1)]
		}
		s.Times = append(s.Times, float64(n)*spring.Dt)
		s.Rows = append(s.Rows, row)
	}
	summary := &spring.Trajectory{Positions: last, Steps: len(last) - 1, Settled: tr.Finished().IsDone()}
	return saveRun(cmd.Context(), "trail", cfg, mc.Config, summary, s)
}

func runStagger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	pattern := cfg.Stagger.Pattern
	if len(args) > 0 {
		pattern = args[0]
	}
	params := cfg.Stagger.Params
	if cmd.Flags().Changed("step") {
		params.Step = step
	}
	if cmd.Flags().Changed("columns") {
		params.Columns = columns
	}
	if cmd.Flags().Changed("origin") {
		params.Origin = origin
	}
	if cmd.Flags().Changed("frequency") {
		params.Frequency = frequency
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = seed
	}

	delays, err := orchestrate.Delays(pattern, cfg.Stagger.Count, params)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(orchestrate.ListPatterns(), ", "))
	}
	fmt.Printf("pattern: %s  targets: %d\n\n", pattern, len(delays))
	fmt.Print(viz.DelayTable(delays, 30))

	if !simulate {
		return nil
	}
	mc, err := cfg.MotionConfig()
	if err != nil {
		return err
	}
	mc.AutoPlay = true

	clock := frame.NewManual()
	targets := make([]int, len(delays))
	for i := range targets {
		targets[i] = i
	}
	restFrame := make([]int, len(delays))
	st, err := orchestrate.StaggerDelays(clock, targets, func(i int) orchestrate.Animation {
		d, err := motion.New(clock, cfg.From, cfg.To, mc)
		if err != nil {
			logger.Error("build", "target", i, "err", err)
			return nil
		}
		d.On(motion.EventRest, func() { restFrame[i] = clock.Frame() })
		return d
	}, delays)
	if err != nil {
		return err
	}
	defer st.Destroy()

	done := orchestrate.Run(st)
	if !clock.RunUntil(done.IsDone, cfg.MaxSteps) {
		logger.Warn("stagger did not finish", "frames", cfg.MaxSteps)
	}
	fmt.Printf("\nall %d springs at rest after %d frames (%.3fs)\n", len(delays), clock.Frame(), clock.Now().Seconds())
	fmt.Println(viz.SparklineChart(toFloats(restFrame), max(len(restFrame), 1)))
	return nil
}

func runChain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	mc, err := cfg.MotionConfig()
	if err != nil {
		return err
	}
	targets, err := parseFloats(legs)
	if err != nil {
		return err
	}

	clock := frame.NewManual()
	var comp *orchestrate.Composite
	var snapshot func() string

	if parallel {
		fromVals, toVals := motion.Structured{}, motion.Structured{}
		for i, t := range targets {
			key := fmt.Sprintf("leg%d", i)
			fromVals[key], toVals[key] = cfg.From, t
		}
		var anim orchestrate.Animation
		comp = orchestrate.Parallel(func() orchestrate.Animation {
			anim, err = orchestrate.Animate(clock, fromVals, toVals, mc)
			if err != nil {
				return nil
			}
			return anim
		})
		snapshot = func() string {
			if g, ok := anim.(interface{ Get() map[string]float64 }); ok {
				return fmt.Sprint(g.Get())
			}
			return ""
		}
	} else {
		var current *motion.Driver
		factories := make([]orchestrate.UnstartedFactory, len(targets))
		for i, t := range targets {
			factories[i] = func() orchestrate.Animation {
				start := cfg.From
				if current != nil {
					start = current.Value()
					current.Destroy()
				}
				d, err := motion.New(clock, start, t, mc)
				if err != nil {
					logger.Error("leg", "index", i, "err", err)
					return nil
				}
				logger.Debug("leg", "index", i, "from", start, "to", t, "frame", clock.Frame())
				current = d
				return d
			}
		}
		comp = orchestrate.Sequence(factories...)
		snapshot = func() string {
			if current == nil {
				return ""
			}
			return strconv.FormatFloat(current.Value(), 'g', 6, 64)
		}
	}
	defer comp.Destroy()

	done := orchestrate.Run(comp)
	if err != nil {
		return err
	}
	if !clock.RunUntil(done.IsDone, cfg.MaxSteps*max(len(targets), 1)) {
		logger.Warn("chain did not finish")
	}
	if err := done.Err(); err != nil {
		return err
	}
	fmt.Printf("%s of %d legs finished after %d frames (%.3fs): %s\n",
		comp.Kind(), len(targets), clock.Frame(), clock.Now().Seconds(), snapshot())
	return nil
}

const demoTimeline = `
initial:
  box: {x: 0, opacity: 0}
tracks:
  - target: box
    to: {opacity: 1}
    ease: out-quad
    duration: 0.3
    name: intro
  - target: box
    to: {x: 200}
    label: intro
    offset: 0.1
  - target: badge
    to: {scale: 1}
    after: -0.4
    spring: {stiffness: 400, damping: 18, mass: 1}
  - target: box
    to: {opacity: 0.4}
    after: 0
    ease: in-out-sine
    duration: 0.5
`

func runTimeline(cmd *cobra.Command, args []string) error {
	var (
		script *timeline.Script
		err    error
	)
	if len(args) > 0 {
		script, err = timeline.LoadScript(args[0])
	} else {
		script, err = timeline.ParseScript([]byte(demoTimeline))
	}
	if err != nil {
		return err
	}

	clock := frame.NewManual()
	completed := 0
	tl, err := script.Build(clock, timeline.Callbacks{
		OnComplete: func() { completed++ },
	})
	if err != nil {
		return err
	}
	defer tl.Kill()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tSTART\tDURATION\tVALUES")
	for _, t := range tl.Tracks() {
		fmt.Fprintf(w, "%s\t%.3fs\t%.3fs\t%v\n", t.Target, t.Start, t.Duration, t.Values)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nduration: %.3fs\n\n", tl.Duration())

	n := max(samples, 2)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROGRESS\tTIME\tVALUES")
	for i := 0; i < n; i++ {
		p := float64(i) / float64(n-1)
		tl.SeekProgress(p)
		fmt.Fprintf(w, "%.0f%%\t%.3fs\t%v\n", p*100, tl.Elapsed(), tl.Values())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !play {
		return nil
	}
	tl.Seek(0)
	tl.Play()
	limit := int(tl.Duration()/spring.Dt) + 2
	clock.RunUntil(func() bool { return tl.State() == timeline.StateIdle }, limit)
	fmt.Printf("\nplayed %d frames, completed %d time(s)\n", clock.Frame(), completed)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	mc, err := cfg.MotionConfig()
	if err != nil {
		return err
	}
	if len(kRange) != 2 || len(cRange) != 2 {
		return fmt.Errorf("ranges take exactly two values: lo,hi")
	}

	grid := tune.Grid{
		Stiffness: tune.Range(kRange[0], kRange[1], gridSize),
		Damping:   tune.Range(cRange[0], cRange[1], gridSize),
		Base:      mc.Config,
	}
	goal := tune.Goal{From: cfg.From, To: cfg.To, MaxOvershoot: maxOvershoot, MaxSteps: cfg.MaxSteps}

	start := time.Now()
	results, err := tune.NewSearcher(mc.Stepper, workers).Search(cmd.Context(), grid, goal)
	if err != nil {
		return err
	}
	logger.Debug("tune finished", "candidates", len(results), "elapsed", time.Since(start))

	if _, ok := tune.Best(results, goal); !ok {
		return fmt.Errorf("no spring in the grid settles within %.1f%% overshoot", maxOvershoot*100)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSTIFFNESS\tDAMPING\tSETTLE\tOVERSHOOT\tREGIME")
	for i, r := range results[:min(top, len(results))] {
		if !r.Accepted(goal) {
			break
		}
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%.3fs\t%.2f%%\t%s\n",
			i+1, r.Spring.Stiffness, r.Spring.Damping, r.SettleTime, r.Overshoot*100, r.Regime)
	}
	return w.Flush()
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	return storage.Open(cmd.Context(), cfg.Storage.Dir)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context(), kind)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSTEPPER\tK\tC\tM\tFRAMES\tSETTLED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%g\t%d\t%t\n",
			run.ID,
			run.Kind,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Stepper,
			run.Spring.Stiffness,
			run.Spring.Damping,
			run.Spring.Mass,
			run.Steps,
			run.Settled,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	s, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(s.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("kind: %s\n", meta.Kind)
	fmt.Printf("samples: %d\n\n", len(s.Rows))

	target := meta.To
	theme := viz.GetTheme(themeName)
	if meta.Kind == "trail" {
		series := make([][]float64, 0, len(s.Columns))
		for _, c := range s.Columns {
			col, _ := s.Column(c)
			series = append(series, col)
		}
		fmt.Println(viz.ChartMany(series, viz.ChartOptions{Height: 12, Width: 60, Caption: "followers", Target: &target, Theme: theme}))
		return nil
	}
	for _, c := range s.Columns {
		col, _ := s.Column(c)
		opts := viz.ChartOptions{Height: 10, Width: 60, Caption: c, Theme: theme}
		if c == "position" {
			opts.Target = &target
		}
		fmt.Println(viz.Chart(col, opts))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if !asCSV && !asSVG {
		return st.ExportJSON(out, runID)
	}
	s, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if asSVG {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		var series [][]float64
		for _, c := range s.Columns {
			if c == "velocity" {
				continue
			}
			col, _ := s.Column(c)
			series = append(series, col)
		}
		_, err = fmt.Fprint(out, viz.SVG(series, 800, 400, &meta.To, viz.GetTheme(themeName)))
		return err
	}
	w := csv.NewWriter(out)
	if err := w.Write(append([]string{"time"}, s.Columns...)); err != nil {
		return err
	}
	for i, row := range s.Rows {
		rec := []string{strconv.FormatFloat(s.Times[i], 'f', 6, 64)}
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func reindexRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	n, err := st.Reindex(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d runs\n", n)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	st := viz.GetTheme(themeName).Styles()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTIFFNESS\tDAMPING\tMASS\tRATIO\tREGIME")
	for _, name := range config.ListPresets() {
		p, _ := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%.3f\t%s\n", name, p.Stiffness, p.Damping, p.Mass, spring.DampingRatio(p), spring.Classify(p))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(st.Field("steppers", strings.Join(spring.ListSteppers(), ", ")))
	fmt.Println(st.Field("patterns", strings.Join(orchestrate.ListPatterns(), ", ")))
	fmt.Println(st.Field("eases", strings.Join(timeline.ListEases(), ", ")))
	fmt.Println(st.Field("themes", strings.Join(viz.ThemeNames(), ", ")))
	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid leg %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func toFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
