package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/justjake/fntimer/pkg/config"
	"github.com/justjake/fntimer/pkg/harness"
	"github.com/justjake/fntimer/pkg/observability"
	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/runinfo"
	"github.com/justjake/fntimer/pkg/suites"
	"github.com/justjake/fntimer/pkg/timer"
)

// cliFlags holds the command-line settings. Flags left at their zero value
// keep whatever the config file says.
type cliFlags struct {
	suite           string
	input           string
	overhead        bool
	overheadArgs    bool
	configPath      string
	duration        time.Duration
	strategy        string
	continueOnFault bool
	outputDir       string
	metricsFile     string
	metricsListen   string
	traceExporter   string
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(f cliFlags) (*config.Config, error) {
	cfg := &config.Config{}
	if f.configPath != "" {
		var err error
		cfg, err = config.ReadConfigFile(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, f cliFlags) {
	if f.duration > 0 {
		cfg.TargetDuration = config.Duration(f.duration)
	}
	if f.strategy != "" {
		cfg.Strategy = f.strategy
	}
	if f.continueOnFault {
		cfg.OnFault = config.OnFaultContinue
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.metricsFile != "" || f.metricsListen != "" {
		prom := cfg.Prometheus
		if prom == nil {
			prom = &config.PrometheusConfig{}
		}
		if listen := config.ParsePrometheusListen(f.metricsListen); listen != nil {
			prom.Listen = listen.Listen
			prom.Path = listen.Path
		}
		if f.metricsFile != "" {
			prom.Textfile = f.metricsFile
		}
		cfg.Prometheus = prom
	}
	if otel := config.ParseTraceExporter(f.traceExporter); otel != nil {
		if cfg.OpenTelemetry != nil {
			otel.ServiceName = cfg.OpenTelemetry.ServiceName
			otel.OTLPEndpoint = cfg.OpenTelemetry.OTLPEndpoint
			otel.OTLPProtocol = cfg.OpenTelemetry.OTLPProtocol
			otel.SamplingRate = cfg.OpenTelemetry.SamplingRate
			if otel.Exporter == config.ExporterStdout {
				otel.OTLPEndpoint = ""
			}
		}
		cfg.OpenTelemetry = otel
	}
}

// comparison is one table's worth of measurement.
type comparison struct {
	title string
	args  timer.ArgumentSet
	run   func(ctx context.Context) ([]report.RankedResult, error)
}

// selectComparisons lists what the flags ask for: the overhead groups
// first, then every group of the selected suite.
func selectComparisons(f cliFlags, hopts []harness.Option) ([]comparison, error) {
	var out []comparison
	if f.overhead {
		out = append(out, comparison{
			title: "overhead",
			args:  timer.Single(harness.OverheadInput),
			run: func(ctx context.Context) ([]report.RankedResult, error) {
				return harness.Overhead(ctx, hopts...)
			},
		})
	}
	if f.overheadArgs {
		out = append(out, comparison{
			title: "overhead (argument array)",
			args:  timer.Multi(harness.OverheadInput),
			run: func(ctx context.Context) ([]report.RankedResult, error) {
				return harness.OverheadArgArray(ctx, hopts...)
			},
		})
	}
	if f.suite != "" {
		suite, err := suites.Lookup(f.suite)
		if err != nil {
			return nil, err
		}
		h := harness.New(hopts...)
		for _, g := range suite.Build(f.input) {
			out = append(out, comparison{
				title: suite.Name + ": " + g.Title,
				args:  g.Args,
				run: func(ctx context.Context) ([]report.RankedResult, error) {
					return h.Measure(ctx, g.Args, g.Candidates...)
				},
			})
		}
	}
	return out, nil
}

func run(ctx context.Context, f cliFlags, logger *slog.Logger) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	executionID := runinfo.NewExecutionID()
	startedAt := time.Now()
	logger = logger.With("execution_id", executionID)

	previewLen := cfg.TimerOptions().GetPreviewLength()

	git, err := runinfo.GetGitMetadata(ctx, ".")
	if err != nil {
		logger.Debug("no git metadata", "error", err)
	}

	var observers harness.Observers

	var metrics *observability.Metrics
	if cfg.Prometheus != nil {
		labels := map[string]string{}
		maps.Copy(labels, git.PrometheusLabels())
		maps.Copy(labels, cfg.Prometheus.ExtraLabels)
		metrics = observability.NewMetrics(labels)
		observers = append(observers, metrics)
	}

	if cfg.OpenTelemetry != nil && cfg.OpenTelemetry.Enabled {
		tp, err := observability.NewTracerProvider(ctx, cfg.OpenTelemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			// ctx may already be cancelled; give the exporter a chance to flush.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shut down tracer provider", "error", err)
			}
		}()
		tracing := observability.NewTracing(tp.Tracer(observability.TracerName))
		tracing.PreviewLength = previewLen
		tracing.Attributes = git.OTELAttributes()
		observers = append(observers, tracing)
	}

	hopts := []harness.Option{
		harness.WithOptions(cfg.TimerOptions()),
		harness.WithFaultMode(harness.FaultMode(cfg.GetOnFault())),
		harness.WithLogger(logger),
		harness.WithOutput(os.Stdout),
	}
	if len(observers) > 0 {
		hopts = append(hopts, harness.WithObserver(observers))
	}

	todo, err := selectComparisons(f, hopts)
	if err != nil {
		return err
	}

	record := &runinfo.Run{
		ExecutionID: executionID,
		Timestamp:   startedAt,
		Git:         git,
		Suite:       f.suite,
		Settings:    runinfo.SettingsFrom(cfg.TimerOptions(), cfg.GetOnFault()),
	}

	var errs []error
	for _, c := range todo {
		logger.Info("measuring", "comparison", c.title)
		ranked, err := c.run(ctx)
		if ranked != nil {
			record.Comparisons = append(record.Comparisons, runinfo.Comparison{
				Title:   c.title,
				Args:    timer.Preview(c.args, previewLen),
				Results: ranked,
			})
		}
		if err == nil {
			continue
		}
		err = fmt.Errorf("%s: %w", c.title, err)
		errs = append(errs, err)
		record.Errors = append(record.Errors, err.Error())
		if cfg.GetOnFault() != config.OnFaultContinue || ctx.Err() != nil {
			break
		}
	}
	runErr := errors.Join(errs...)

	if cfg.OutputDir != "" {
		if err := writeArtifacts(cfg.OutputDir, record, metrics, logger); err != nil {
			logger.Error("failed to write run artifacts", "error", err)
			runErr = errors.Join(runErr, err)
		}
	}

	if metrics != nil && cfg.Prometheus.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Prometheus.Textfile); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to write metrics: %w", err))
		} else {
			logger.Info("wrote metrics", "path", cfg.Prometheus.Textfile)
		}
	}

	if metrics != nil && ctx.Err() == nil {
		if err := serveMetrics(ctx, cfg.Prometheus, metrics, logger); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	logger.Info("run finished",
		"comparisons", len(record.Comparisons),
		"errors", len(record.Errors),
		"elapsed", time.Since(startedAt).Round(time.Millisecond))
	return runErr
}

func writeArtifacts(base string, record *runinfo.Run, metrics *observability.Metrics, logger *slog.Logger) error {
	dir, err := runinfo.CreateOutputDir(base, record.ExecutionID, record.Timestamp, logger)
	if err != nil {
		return err
	}
	if err := dir.WriteResults(record); err != nil {
		return err
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(filepath.Join(dir.Path(), "metrics.prom")); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if err := dir.WriteReport(record); err != nil {
		return err
	}
	logger.Info("wrote run artifacts", "dir", dir.Path())
	return nil
}

// serveMetrics keeps the metrics endpoint up until ctx is cancelled. It
// returns immediately when no listen address is configured.
func serveMetrics(ctx context.Context, cfg *config.PrometheusConfig, metrics *observability.Metrics, logger *slog.Logger) error {
	server := observability.NewMetricsServer(cfg, metrics.Registry(), logger)
	if !server.Enabled() {
		return nil
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	logger.Info("serving metrics until interrupted", "server", server.String())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
