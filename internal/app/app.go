// Package app runs the configured scenarios and, optionally, the HTTP API.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/frasertheking/toy-snowmodel/internal/controllers/restserver"
	"github.com/frasertheking/toy-snowmodel/internal/log"
	"github.com/frasertheking/toy-snowmodel/internal/managers"
	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
	"github.com/frasertheking/toy-snowmodel/pkg/series"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options adjust a run from the command line
type Options struct {
	// Scenario limits the run to one named scenario
	Scenario string
	// Workers overrides every scenario's sweep worker count when > 0
	Workers int
	// Diagnostics writes a report for every sample
	Diagnostics bool
	// OutputDir overrides the configured output directory
	OutputDir string
	// Serve keeps the HTTP API running after the scenarios finish
	Serve bool
}

// ScenarioResult summarizes one finished scenario
type ScenarioResult struct {
	Name       string
	RunID      uuid.UUID
	Points     []snowmelt.Point
	Comparison snowmelt.Comparison
	Files      []string
	Failed     int
}

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	opts           Options
	out            io.Writer
}

// New creates a new application instance. Diagnostic reports go to stdout.
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger, opts Options) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		configProvider: configProvider,
		logger:         logger,
		opts:           opts,
		out:            os.Stdout,
	}
}

// SetOutput sets where diagnostic reports are written
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Run runs every selected scenario, then serves the HTTP API until shutdown
// if Options.Serve is set
func (a *App) Run(ctx context.Context) ([]ScenarioResult, error) {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := storageManager.Close(); err != nil {
			log.Errorf("error closing storage: %v", err)
		}
	}()

	results, err := a.RunScenarios(ctx, cfg, storageManager)
	if err != nil {
		return results, err
	}

	if !a.opts.Serve {
		return results, nil
	}

	ctrl, err := restserver.NewController(ctx, &wg, cfg, storageManager, a.logger)
	if err != nil {
		return results, err
	}
	if err := ctrl.StartController(); err != nil {
		return results, err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return results, nil
}

// RunScenarios sweeps every selected scenario, writes its series files and
// queues the run for storage. store may be nil.
func (a *App) RunScenarios(ctx context.Context, cfg *config.ConfigData, store restserver.RunStore) ([]ScenarioResult, error) {
	scenarios := cfg.Scenarios
	if a.opts.Scenario != "" {
		sc, ok := cfg.Scenario(a.opts.Scenario)
		if !ok {
			return nil, fmt.Errorf("scenario %q is not configured", a.opts.Scenario)
		}
		scenarios = []config.ScenarioData{sc}
	}

	output := cfg.Output
	if a.opts.OutputDir != "" {
		output.Directory = a.opts.OutputDir
	}
	formats := make([]series.Format, 0, len(output.Formats))
	for _, name := range output.Formats {
		f, err := series.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	if len(formats) > 0 {
		if err := os.MkdirAll(output.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("could not create output directory: %w", err)
		}
	}

	results := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := a.runScenario(ctx, sc, output.Directory, formats, store)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *App) runScenario(ctx context.Context, sc config.ScenarioData, dir string, formats []series.Format, store restserver.RunStore) (ScenarioResult, error) {
	weather, err := sc.WeatherConfig()
	if err != nil {
		return ScenarioResult{}, err
	}
	samples, err := sc.Samples()
	if err != nil {
		return ScenarioResult{}, err
	}

	e, err := snowmelt.NewEvaluator(sc.Site, weather, a.logger.With("scenario", sc.Name))
	if err != nil {
		return ScenarioResult{}, err
	}

	workers := sc.Sweep.Workers
	if a.opts.Workers > 0 {
		workers = a.opts.Workers
	}

	a.logger.Infow("running sweep", "scenario", sc.Name, "samples", len(samples), "workers", workers,
		"clear_sky_solar_rad", weather.ClearSkySolarRad)

	sweep := &snowmelt.Sweep{Evaluator: e, Workers: workers}
	points, err := sweep.Run(ctx, samples)
	if ctx.Err() != nil {
		return ScenarioResult{}, ctx.Err()
	}

	res := ScenarioResult{
		Name:       sc.Name,
		Points:     points,
		Comparison: snowmelt.Compare(points),
	}
	res.Failed = len(points) - res.Comparison.Samples
	if err != nil {
		a.logger.Warnw("sweep had failed samples", "scenario", sc.Name, "failed", res.Failed, "error", err)
	}

	if sc.Diagnostics || a.opts.Diagnostics {
		for _, p := range snowmelt.Succeeded(points) {
			if werr := snowmelt.WriteReport(a.out, sc.Site, weather, p.Result); werr != nil {
				a.logger.Warnf("could not write diagnostic report: %v", werr)
				break
			}
		}
	}

	table := series.FromSweep(points)
	for _, f := range formats {
		path := filepath.Join(dir, series.Filename(sc.Name, f))
		if err := series.WriteFile(path, table); err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
		a.logger.Infow("wrote series", "scenario", sc.Name, "path", path)
	}

	run := storage.NewRun(sc.Name, sc.Site, weather, points)
	res.RunID = run.ID
	if store != nil {
		if err := store.Store(ctx, run); err != nil {
			return res, fmt.Errorf("could not queue run for storage: %w", err)
		}
	}

	c := res.Comparison
	a.logger.Infow("sweep complete",
		"scenario", sc.Name,
		"run_id", run.ID.String(),
		"samples", c.Samples,
		"mean_melt", c.MeanMelt,
		"mean_ti_melt", c.MeanTIMelt,
		"correlation", c.Correlation,
		"rmse", c.RMSE,
	)

	return res, nil
}
