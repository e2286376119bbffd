// Command solar-snapshot builds one aggregate report and prints it as JSON.
// It uses the same configuration and pipeline as the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"solarguardian/internal/config"
	"solarguardian/internal/logger"
	"solarguardian/internal/models"
	"solarguardian/internal/server"
)

type options struct {
	out     string
	mock    bool
	strict  bool
	storms  bool
	pretty  bool
	timeout time.Duration
}

func main() {
	var opts options
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.StringVar(&opts.out, "out", "", "write the report to this file instead of stdout")
	flag.BoolVar(&opts.mock, "mock", false, "use the embedded NOAA fixtures")
	flag.BoolVar(&opts.strict, "strict", false, "fail on the first malformed flare row")
	flag.BoolVar(&opts.storms, "storms", false, "classify geomagnetic storm levels")
	flag.BoolVar(&opts.pretty, "pretty", true, "indent the JSON output")
	flag.DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	flag.Parse()

	if *showVersion {
		fmt.Println(config.GetVersion())
		return
	}

	// Logs go to stderr so stdout stays valid JSON
	log := logger.NewFromStrings(os.Getenv("LOG_LEVEL"), "text", os.Stderr).WithComponent("snapshot")

	if err := run(opts, os.Stdout, log); err != nil {
		log.Error("Snapshot failed", err)
		os.Exit(1)
	}
}

func run(opts options, stdout io.Writer, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cfg, opts)

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	start := time.Now()
	report, err := srv.Aggregator.BuildReport(ctx)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	if err := writeReport(report, opts, stdout); err != nil {
		return err
	}

	log.Info("Snapshot written", logger.Fields{
		"flares":      len(report.Flares),
		"geomagnetic": len(report.Geomagnetic),
		"duration_ms": time.Since(start).Milliseconds(),
		"out":         opts.out,
	})
	return nil
}

// applyFlags layers command-line switches over the environment config
func applyFlags(cfg *config.Config, opts options) {
	if opts.mock {
		cfg.MockupMode = true
	}
	if opts.strict {
		cfg.FlareRowPolicy = config.FlareRowsStrict
	}
	if opts.storms {
		cfg.ClassifyStorms = true
	}
	// one shot: nothing to keep warm
	cfg.CacheWarmInterval = 0
}

func writeReport(report *models.AggregateReport, opts options, stdout io.Writer) error {
	var (
		data []byte
		err  error
	)
	if opts.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if opts.out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}
	return nil
}
