// Command pipekit runs map extraction pipelines: it loads candidate
// cities, computes extraction bounding boxes around them and writes the
// bounded set out, either through the built-in pipeline or a YAML-defined
// program.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scenariotools/pipekit/config"
	"github.com/scenariotools/pipekit/logger"
	"github.com/scenariotools/pipekit/observability"
	"github.com/scenariotools/pipekit/pipeline"
	"github.com/scenariotools/pipekit/scenario"
	"github.com/scenariotools/pipekit/version"
)

var (
	cfgFile string

	citiesPath string
	radiusKm   float64
	country    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pipekit",
		Short:         "Composable map/reduce pipeline runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the bounding-box pipeline or a YAML program",
		RunE:  runPipeline,
	}
	run.Flags().StringVar(&citiesPath, "cities", "cities.csv", "candidate cities CSV (Country,City,Lat,Lon)")
	run.Flags().Float64Var(&radiusKm, "radius", 5.0, "extraction radius around each city in km")
	run.Flags().StringVar(&country, "country", "", "keep only cities of this country")
	run.Flags().String("program", "", "YAML pipeline definition (overrides the built-in pipeline)")
	run.Flags().String("output", "", "base output path")
	run.Flags().Int64("seed", 0, "deterministic run seed")
	run.Flags().Int("workers", 0, "parallelism for the map stages (0 or 1 is sequential)")
	run.Flags().Bool("fail-on-error", true, "exit non-zero when any step invocation failed")
	return run
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Short())
		},
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	log := logger.New(&cfg.Log, "pipekit")
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := initTelemetry(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	pctx := pipeline.NewContext(cfg.Output, cfg.Seed)
	p := pipeline.New(pctx, pipeline.WithLogger(log.WithComponent("pipeline")))

	log.Info("starting run", logger.Fields(
		logger.FieldSeed, cfg.Seed,
		logger.FieldWorkers, cfg.Workers,
		"output", cfg.Output,
	))

	if cfg.Program != "" {
		reg := pipeline.NewRegistry()
		scenario.Register(reg,
			scenario.LoadCitiesArgs{Path: citiesPath},
			scenario.BoundingBoxArgs{RadiusKm: radiusKm},
		)
		prog, err := pipeline.LoadProgram(cfg.Program)
		if err != nil {
			return err
		}
		log.Info("running program", logger.Fields(logger.FieldProgram, prog.Name))
		if err := prog.Run(ctx, p, reg); err != nil {
			return err
		}
	} else if err := runBuiltin(ctx, p, cfg.Workers); err != nil {
		return err
	}

	p.ReportResults()
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")
	if failed := len(p.Errors()); failed > 0 && failOnError {
		return fmt.Errorf("%d step invocation(s) failed", failed)
	}
	log.Info("run finished", logger.Fields(logger.FieldItems, p.Size()))
	return nil
}

// runBuiltin executes the default load/filter/box/write pipeline.
func runBuiltin(ctx context.Context, p *pipeline.Pipeline, workers int) error {
	if err := p.Populate(ctx, scenario.LoadCities(scenario.LoadCitiesArgs{Path: citiesPath})); err != nil {
		return err
	}
	if country != "" {
		filter := pipeline.BindFilterStep(scenario.CountryFilterArgs{Country: country}, scenario.InCountry)
		if err := p.Filter(ctx, filter); err != nil {
			return err
		}
	}
	box := pipeline.BindStep(scenario.BoundingBoxArgs{RadiusKm: radiusKm}, scenario.ComputeBoundingBox)
	var opts []pipeline.MapOption
	if workers > 1 {
		opts = append(opts, pipeline.Parallel(workers))
	}
	if err := p.Map(ctx, box, opts...); err != nil {
		return err
	}
	return p.Reduce(ctx, scenario.WriteBoundedCities)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("program") {
		cfg.Program, _ = flags.GetString("program")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
}

func initTelemetry(ctx context.Context, cfg *config.Config) (func(), error) {
	tcfg := observability.DefaultTracerConfig("pipekit")
	tcfg.ServiceVersion = version.Short()
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.Insecure = cfg.Telemetry.Insecure
	tp, err := observability.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}

	mcfg := observability.DefaultMeterConfig("pipekit")
	mcfg.ServiceVersion = version.Short()
	mcfg.Endpoint = cfg.Telemetry.Endpoint
	mcfg.Insecure = cfg.Telemetry.Insecure
	mp, err := observability.InitMeter(ctx, mcfg)
	if err != nil {
		return nil, fmt.Errorf("initializing meter: %w", err)
	}

	return func() {
		shutdownCtx := context.Background()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("meter shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
	}, nil
}
