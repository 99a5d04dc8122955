package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/integrators"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/physics"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	integrator string
	gradient   string
	fdStep     float64
	dt         float64
	endTime    float64
	samples    int
	adaptive   bool
	tolerance  float64
	// plot axes
	particleIdx int
	pairIdx     int
	axis        string
	// animation
	frameRate int
	// export
	outFile string
	svgSize int
	// ensemble
	numRuns int
	jitter  float64
	seed    int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "partsim",
		Short: "n-body particle interaction simulator",
		Long: `partsim simulates point particles coupled by gravitational,
electrostatic or spring-like pair forces, integrates their equations of
motion, and animates the resulting trajectories.`,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a state component or a pair separation",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&particleIdx, "particle", 0, "particle index")
	plotCmd.Flags().IntVar(&pairIdx, "pair", -1, "plot separation to this particle instead of a component")
	plotCmd.Flags().StringVar(&axis, "axis", "x", "component: x, y, z, vx, vy or vz")

	animateCmd := &cobra.Command{
		Use:   "animate [run_id]",
		Short: "play a stored trajectory in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  animateRun,
	}
	animateCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFORCE\tPARTICLES\tDURATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%g\n", name, cfg.Force, len(cfg.Particles), cfg.End-cfg.Start)
			}
			return w.Flush()
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and trajectory to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outFile, "out", "", "output file (default <run_id>.json)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export trajectory paths to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&outFile, "out", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")

	exportDBCmd := &cobra.Command{
		Use:   "export-db [run_id]",
		Short: "export trajectory to a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDB,
	}
	exportDBCmd.Flags().StringVar(&outFile, "out", "", "output file (default <run_id>.db)")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "run the same scenario under several integrators",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	compareCmd.Flags().StringVar(&preset, "preset", "spring-pair", "scenario preset")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run perturbed copies of a scenario concurrently",
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	ensembleCmd.Flags().StringVar(&preset, "preset", "spring-pair", "scenario preset")
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")
	ensembleCmd.Flags().Float64Var(&jitter, "jitter", 1e-3, "initial-state perturbation scale")
	ensembleCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "perturbation seed")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, animateCmd, presetsCmd,
		exportJSONCmd, exportSVGCmd, exportDBCmd, compareCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "scenario preset")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, leapfrog, rk4, rk45)")
	cmd.Flags().StringVar(&gradient, "gradient", "", "force gradient: analytic or forward-difference")
	cmd.Flags().Float64Var(&fdStep, "fd-step", 0, "forward-difference step size")
	cmd.Flags().Float64Var(&dt, "dt", 0, "internal timestep")
	cmd.Flags().Float64Var(&endTime, "time", 0, "end time")
	cmd.Flags().IntVar(&samples, "samples", 0, "number of output samples")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "adaptive error tolerance")
}

// loadConfig resolves preset and config file, then applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("gradient") {
		cfg.Gradient = gradient
	}
	if cmd.Flags().Changed("fd-step") {
		cfg.FDStep = fdStep
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.End = cfg.Start + endTime
	}
	if cmd.Flags().Changed("samples") {
		cfg.Samples = samples
	}
	if cmd.Flags().Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	return cfg, nil
}

func buildSimulator(cfg *config.Config) (*physics.System, *sim.Simulator, error) {
	sys, err := cfg.BuildSystem()
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}

	s := sim.New(sys, integ)
	s.AddMetric(metrics.NewEnergyDrift(sys))
	s.AddMetric(metrics.NewMomentum(sys))
	if sys.N() >= 2 {
		s.AddMetric(metrics.NewSeparation(sys, 0, 1))
	}
	return sys, s, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sys, s, err := buildSimulator(cfg)
	if err != nil {
		return err
	}
	times, err := cfg.SampleTimes()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s simulation: %d particles, %d samples over [%g, %g]\n",
		cfg.Force, sys.N(), len(times), cfg.Start, cfg.End)
	start := time.Now()

	result, err := s.Run(context.Background(), sys.InitialState(), times, cfg.SimConfig())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Force, cfg.Integrator, gradientName(cfg), cfg.Dt, sys.N(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	if sys.N() >= 2 {
		sep := make([]float64, len(result.States))
		for i, x := range result.States {
			sep[i] = sys.Separation(x, 0, 1)
		}
		fmt.Println()
		fmt.Println(viz.Plot(sep, "separation p0-p1", 10))
	}

	return nil
}

func gradientName(cfg *config.Config) string {
	if cfg.Gradient == "" {
		return "analytic"
	}
	return cfg.Gradient
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
	fmt.Fprintln(w, "ID\tFORCE\tTIME\tPARTICLES\tSAMPLES\tDT\tINTEG\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4g\t%s\t%.2e\n",
			run.ID,
			run.Force,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Samples,
			run.Dt,
			run.Integrator,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func stateColumn(meta *storage.RunMetadata, particle int, axis string) (int, error) {
	offsets := map[string]int{"x": 0, "y": 1, "z": 2, "vx": 0, "vy": 1, "vz": 2}
	off, ok := offsets[axis]
	if !ok {
		return 0, fmt.Errorf("unknown axis %q (want x, y, z, vx, vy or vz)", axis)
	}
	if particle < 0 || particle >= meta.Particles {
		return 0, fmt.Errorf("particle %d out of range [0, %d)", particle, meta.Particles)
	}
	col := 3*particle + off
	if axis[0] == 'v' {
		col += 3 * meta.Particles
	}
	return col, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	var series []float64
	var caption string
	if pairIdx >= 0 {
		if pairIdx >= meta.Particles || particleIdx >= meta.Particles {
			return fmt.Errorf("pair (%d,%d) out of range for %d particles", particleIdx, pairIdx, meta.Particles)
		}
		series = make([]float64, len(states))
		for i, state := range states {
			dx := state[3*particleIdx] - state[3*pairIdx]
			dy := state[3*particleIdx+1] - state[3*pairIdx+1]
			dz := state[3*particleIdx+2] - state[3*pairIdx+2]
			series[i] = norm3(dx, dy, dz)
		}
		caption = fmt.Sprintf("%s: separation p%d-p%d", meta.ID, particleIdx, pairIdx)
	} else {
		col, err := stateColumn(meta, particleIdx, axis)
		if err != nil {
			return err
		}
		series = make([]float64, len(states))
		for i, state := range states {
			series[i] = state[col]
		}
		caption = fmt.Sprintf("%s: p%d %s", meta.ID, particleIdx, axis)
	}

	fmt.Println(viz.Plot(series, caption, 15))
	return nil
}

func norm3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

func animateRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return fmt.Errorf("run %s has no trajectory to animate", args[0])
	}

	return viz.NewPlayer(meta.Particles, states, times, frameRate).Run()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	out := outFile
	if out == "" {
		out = args[0] + ".json"
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	payload := struct {
		Meta   *storage.RunMetadata `json:"meta"`
		Times  []float64            `json:"times"`
		States [][]float64          `json:"states"`
	}{meta, times, states}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return err
	}

	fmt.Printf("exported to %s\n", out)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	svg := export.TrajectoryToSVG(meta.Particles, states, svgSize, svgSize)
	if svg == "" {
		return fmt.Errorf("run %s has no trajectory to export", args[0])
	}

	out := outFile
	if out == "" {
		out = args[0] + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}

	fmt.Printf("exported to %s\n", out)
	return nil
}

func exportDB(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	out := outFile
	if out == "" {
		out = args[0] + ".db"
	}
	if err := storage.ExportSQLite(out, meta.Particles, states, times); err != nil {
		return err
	}

	fmt.Printf("exported %d samples to %s\n", len(states), out)
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	times, err := cfg.SampleTimes()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tENERGY DRIFT\tMOMENTUM MAX\tELAPSED")

	for _, name := range args {
		cfg.Integrator = name
		sys, s, err := buildSimulator(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := s.Run(context.Background(), sys.InitialState(), times, cfg.SimConfig())
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%v\n",
			name, result.StepsTaken, result.EnergyDrift, result.Metrics["momentum_max"], time.Since(start))
	}

	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := cfg.BuildSystem()
	if err != nil {
		return err
	}
	times, err := cfg.SampleTimes()
	if err != nil {
		return err
	}

	newIntegrator := func() dynamo.Integrator {
		integ, err := integrators.New(cfg.Integrator)
		if err != nil {
			panic(err) // validated below before any goroutine starts
		}
		return integ
	}
	if _, err := integrators.New(cfg.Integrator); err != nil {
		return err
	}

	ensemble := sim.NewEnsemble(sys, newIntegrator, numRuns, seed, jitter)

	start := time.Now()
	results, err := ensemble.Run(context.Background(), sys.InitialState(), times, cfg.SimConfig())
	if err != nil {
		return err
	}

	fmt.Printf("%d runs completed in %v\n\n", len(results), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTEPS\tENERGY DRIFT\tFINAL SEPARATION")
	for i, result := range results {
		finalSep := ""
		if sys.N() >= 2 {
			last := result.States[len(result.States)-1]
			finalSep = fmt.Sprintf("%.6g", sys.Separation(last, 0, 1))
		}
		fmt.Fprintf(w, "%d\t%d\t%.3e\t%s\n", i, result.StepsTaken, result.EnergyDrift, finalSep)
	}

	return w.Flush()
}
