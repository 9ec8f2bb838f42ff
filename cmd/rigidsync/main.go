package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rigidsync/internal/analysis"
	"github.com/san-kum/rigidsync/internal/collision"
	"github.com/san-kum/rigidsync/internal/config"
	"github.com/san-kum/rigidsync/internal/demo"
	"github.com/san-kum/rigidsync/internal/metrics"
	"github.com/san-kum/rigidsync/internal/sim"
	"github.com/san-kum/rigidsync/internal/storage"
	"github.com/san-kum/rigidsync/internal/tui"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	subSteps   int
	maxDelta   float64
	keyPolicy  string
	tracks     []string
	watch      []string

	axis    string
	outFile string
	runs    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rigidsync",
		Short:        "rigid body scenes with collision events",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(tui.Options{
				Build:    demo.DefaultOptions(),
				Dt:       config.DefaultDt,
				Duration: config.DefaultDuration,
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsync", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store its trajectories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	sceneFlags(runCmd)
	runCmd.Flags().StringSliceVar(&tracks, "track", nil, "proxies to record (default all)")
	runCmd.Flags().StringSliceVar(&watch, "watch", nil, "collision keys to report, as nameA-nameB")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "watch a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "run seeded copies of a scene in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	sceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 4, "number of copies")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [proxy]",
		Short: "plot one coordinate of a proxy",
		Args:  cobra.ExactArgs(2),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&axis, "axis", "y", "coordinate to plot (x, y, z)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id] [proxy]",
		Short: "frequency and settling analysis of a proxy",
		Args:  cobra.ExactArgs(2),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&axis, "axis", "y", "coordinate to analyze (x, y, z)")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list available scenes",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tDESCRIPTION")
			for _, name := range demo.Names() {
				fmt.Fprintf(w, "%s\t%s\n", name, demo.Description(name))
			}
			w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				return fmt.Errorf("no presets for scene: %s", args[0])
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, analyzeCmd, exportCmd, scenesCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame delta")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&subSteps, "substeps", config.DefaultSubSteps, "max physics sub steps per frame")
	cmd.Flags().Float64Var(&maxDelta, "max-delta", config.DefaultMaxDelta, "largest frame delta handed to physics")
	cmd.Flags().StringVar(&keyPolicy, "key-policy", "canonical", "collision key policy (canonical, discovery)")
}

// resolveConfig layers the preset, the config file and the changed flags, in
// that order, over the defaults.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scene = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scene))
		}
		cfg = p
	}

	if configFile != "" {
		fc, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fc
		if len(args) > 0 {
			cfg.Scene = args[0]
		}
	}

	if cmd.Flags().Changed("dt") {
		cfg.Run.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Run.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed = seed
	}
	if cmd.Flags().Changed("substeps") {
		cfg.Physics.SubSteps = subSteps
	}
	if cmd.Flags().Changed("max-delta") {
		cfg.Physics.MaxDelta = maxDelta
	}
	if cmd.Flags().Changed("key-policy") {
		cfg.Physics.KeyPolicy = keyPolicy
	}
	if cmd.Flags().Changed("log-level") || cfg.Log.Level == "" {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "rigidsync",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}

func buildOptions(cfg *config.Config, logger *log.Logger) (demo.Options, error) {
	pc, err := cfg.PhysicsConfig()
	if err != nil {
		return demo.Options{}, err
	}
	return demo.Options{
		Physics: pc,
		Gravity: cfg.GravityVec(),
		Seed:    cfg.Run.Seed,
		Logger:  logger,
	}, nil
}

func simConfig(cfg *config.Config) sim.Config {
	sc := sim.DefaultConfig()
	sc.Dt = cfg.Run.Dt
	sc.Duration = cfg.Run.Duration
	sc.Seed = cfg.Run.Seed
	sc.Track = tracks
	return sc
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg, logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := demo.Build(cfg.Scene, opts)
	if err != nil {
		return err
	}
	watched, err := resolveWatch(s.World.Tracker(), watch)
	if err != nil {
		return err
	}
	d := s.Driver()
	d.AddMetric(metrics.NewKineticEnergy())
	d.AddMetric(metrics.NewMaxSpeed())
	d.AddMetric(metrics.NewContactOnsets())
	d.AddMetric(metrics.NewStability(50))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := d.Run(ctx, simConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Scene:     cfg.Scene,
		Preset:    preset,
		Seed:      cfg.Run.Seed,
		Dt:        cfg.Run.Dt,
		Duration:  cfg.Run.Duration,
		KeyPolicy: cfg.Physics.KeyPolicy,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("scene: %s\n", cfg.Scene)
	fmt.Printf("frames: %d (%s)\n", len(result.Times), elapsed.Round(time.Millisecond))
	fmt.Printf("onsets: %d\n", len(result.Onsets))
	for _, o := range result.Onsets {
		fmt.Printf("  %8.3fs  %s\n", o.Time, o.Key)
	}
	if len(watched) > 0 {
		fmt.Println("\nwatched:")
		tr := s.World.Tracker()
		for _, k := range watched {
			fmt.Printf("  %s: %d onsets, set=%t\n", k, countOnsets(result.Onsets, k), tr.Query(k))
		}
	}
	fmt.Println("\nmetrics:")
	for name, v := range result.Metrics {
		fmt.Printf("  %s: %.4f\n", name, v)
	}
	for _, e := range result.Errors {
		logger.Warn("run stopped early", "err", e)
	}
	return nil
}

func resolveWatch(tr *collision.Tracker, keys []string) ([]collision.Key, error) {
	out := make([]collision.Key, 0, len(keys))
	for _, s := range keys {
		k, err := tr.ResolveKey(s)
		if err != nil {
			return nil, fmt.Errorf("watch %q: %w", s, err)
		}
		out = append(out, k)
	}
	return out, nil
}

func countOnsets(onsets []sim.Onset, k collision.Key) int {
	n := 0
	for _, o := range onsets {
		if o.Key == k {
			n++
		}
	}
	return n
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	// the view owns the terminal, so scene logs are dropped
	opts, err := buildOptions(cfg, log.New(io.Discard))
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Scene:    cfg.Scene,
		Build:    opts,
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
	})
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", runs)
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	quiet := log.New(io.Discard)

	ens := sim.NewEnsemble(func(seed int64) (*sim.Driver, error) {
		c := *cfg
		c.Run.Seed = seed
		opts, err := buildOptions(&c, quiet)
		if err != nil {
			return nil, err
		}
		s, err := demo.Build(c.Scene, opts)
		if err != nil {
			return nil, err
		}
		d := s.Driver()
		d.AddMetric(metrics.NewContactOnsets())
		return d, nil
	}, runs, cfg.Run.Seed)

	logger.Info("benchmarking", "scene", cfg.Scene, "runs", runs, "duration", cfg.Run.Duration)
	start := time.Now()
	results, err := ens.Run(cmd.Context(), simConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSEED\tFRAMES\tONSETS")
	total := 0
	for i, r := range results {
		total += r.StepsTaken
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", i, cfg.Run.Seed+int64(i), len(r.Times), len(r.Onsets))
	}
	w.Flush()

	fmt.Printf("\n%d frames in %s (%.0f frames/sec)\n", total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tFRAMES\tONSETS\tPOLICY")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Frames,
			len(run.Onsets),
			run.KeyPolicy,
		)
	}

	return w.Flush()
}

func axisIndex() (int, error) {
	idx := map[string]int{"x": 0, "y": 1, "z": 2}
	i, ok := idx[axis]
	if !ok {
		return 0, fmt.Errorf("unknown axis: %s (available: x, y, z)", axis)
	}
	return i, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID, proxy := args[0], args[1]

	i, err := axisIndex()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, positions, err := st.LoadTrajectory(runID, proxy)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return fmt.Errorf("no data to plot")
	}

	data := make([]float64, len(positions))
	for j, p := range positions {
		data[j] = p[i]
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(data))

	graph := asciigraph.Plot(data,
		asciigraph.Height(15),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s.%s vs time", proxy, axis)),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID, proxy := args[0], args[1]

	i, err := axisIndex()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, positions, err := st.LoadTrajectory(runID, proxy)
	if err != nil {
		return err
	}
	if len(positions) < 2 {
		return fmt.Errorf("no data")
	}

	data := make([]float64, len(positions))
	for j, p := range positions {
		data[j] = p[i]
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	ps := analysis.PowerSpectrum(data)
	if plotData := ps[:len(ps)/4+1]; len(plotData) > 1 {
		graph := asciigraph.Plot(plotData,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (%s.%s)", proxy, axis)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if freq, ok := analysis.DominantFrequency(data, meta.Dt); ok {
		fmt.Printf("dominant frequency: %.3f hz\n", freq)
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	} else {
		fmt.Println("no oscillation found")
	}
	fmt.Printf("settled at: %.3f s\n", analysis.SettleTime(times, positions, 0.01))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	data := storage.ExportData{
		Scene:    meta.Scene,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    meta.Frames,
		Onsets:   meta.Onsets,
		Metrics:  meta.Metrics,
	}
	for _, name := range meta.Tracks {
		times, positions, err := st.LoadTrajectory(runID, name)
		if err != nil {
			return err
		}
		data.Times = times
		et := storage.ExportTrack{Name: name, Positions: make([][3]float64, len(positions))}
		for i, p := range positions {
			et.Positions[i] = p
		}
		data.Tracks = append(data.Tracks, et)
	}

	if outFile == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}
