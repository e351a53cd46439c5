package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/frasertheking/toy-snowmodel/internal/app"
	"github.com/frasertheking/toy-snowmodel/internal/log"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	var err error

	cfgFile := flag.String("config", "config.yaml", "Path to configuration file (YAML) or database (SQLite)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend: 'yaml' or 'sqlite'")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	scenario := flag.String("scenario", "", "Run only the named scenario")
	diagnostics := flag.Bool("diagnostics", false, "Print a diagnostic report for every sample")
	serve := flag.Bool("serve", false, "Keep serving the HTTP API after the scenarios finish")
	workers := flag.Int("workers", 0, "Override the sweep worker count of every scenario")
	outputDir := flag.String("output-dir", "", "Override the configured output directory")
	flag.Parse()

	if *showVersion {
		fmt.Printf("snowmodel version %s\n", version)
		os.Exit(0)
	}

	// Initialize logging
	if err = log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Infof("snowmodel %s starting", version)

	configProvider, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	defer configProvider.Close()

	application := app.New(configProvider, log.GetSugaredLogger(), app.Options{
		Scenario:    *scenario,
		Workers:     *workers,
		Diagnostics: *diagnostics,
		OutputDir:   *outputDir,
		Serve:       *serve,
	})

	results, err := application.Run(context.Background())
	printSummary(results)
	if err != nil {
		log.Fatalf("snowmodel failed: %v", err)
	}
}

func loadConfig(filename, backend string) (config.ConfigProvider, error) {
	switch backend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		return config.NewSQLiteProvider(filename)
	default:
		return nil, fmt.Errorf("unsupported config backend: %s (supported: yaml, sqlite)", backend)
	}
}

func printSummary(results []app.ScenarioResult) {
	for _, r := range results {
		c := r.Comparison
		fmt.Printf("Scenario %s (run %s)\n", r.Name, r.RunID)
		fmt.Printf("  Samples:          %d (%d failed)\n", c.Samples, r.Failed)
		fmt.Printf("  Mean melt:        %.3f mm/day energy balance, %.3f mm/day temperature index\n", c.MeanMelt, c.MeanTIMelt)
		fmt.Printf("  Correlation:      %.4f\n", c.Correlation)
		fmt.Printf("  RMSE:             %.3f mm/day\n", c.RMSE)
		fmt.Printf("  Mean bias:        %.3f mm/day\n", c.MeanBias)
		if c.MeltOnset != nil {
			fmt.Printf("  Melt onset:       %.2f C\n", *c.MeltOnset)
		}
		if c.TIMeltOnset != nil {
			fmt.Printf("  TI melt onset:    %.2f C\n", *c.TIMeltOnset)
		}
		for _, f := range r.Files {
			fmt.Printf("  Wrote:            %s\n", f)
		}
	}
}
