// Command etl builds the Tochigi COVID-19 dashboard data file from the
// prefecture's published workbooks.
//
// Usage:
//
//	etl -o data/data.json -d 1          # one pass, then exit
//	etl serve --interval 30m            # rerun periodically, serve /data.json
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/covid19-data-etl/internal/adapter/excel"
	"github.com/couchcryptid/covid19-data-etl/internal/adapter/file"
	httpadapter "github.com/couchcryptid/covid19-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/covid19-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid19-data-etl/internal/adapter/source"
	"github.com/couchcryptid/covid19-data-etl/internal/config"
	"github.com/couchcryptid/covid19-data-etl/internal/observability"
	"github.com/couchcryptid/covid19-data-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:           "etl",
		Short:         "Build the dashboard data file from the published workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			if err := applyFlags(cmd, loaded); err != nil {
				slog.Error("invalid flags", "error", err)
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringP("output", "o", "", "output path of the JSON document (env OUTPUT_PATH)")
	cmd.PersistentFlags().IntP("deaths", "d", 0, "number of known deaths (env KNOWN_DEATHS)")
	cmd.PersistentFlags().String("source-url", "", "page linking the source workbooks (env SOURCE_URL)")

	cmd.AddCommand(newServeCmd(&cfg))
	return cmd
}

func newServeCmd(cfg **config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rerun the pipeline on an interval and serve health, metrics and the latest document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().String("http-addr", "", "listen address (env HTTP_ADDR)")
	cmd.Flags().Duration("interval", 0, "time between runs (env REFRESH_INTERVAL)")
	return cmd
}

// applyFlags overrides environment settings with flags set on the command
// line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("output") {
		cfg.OutputPath, err = flags.GetString("output")
	}
	if err == nil && flags.Changed("deaths") {
		cfg.KnownDeaths, err = flags.GetInt("deaths")
	}
	if err == nil && flags.Changed("source-url") {
		cfg.SourceURL, err = flags.GetString("source-url")
	}
	if err == nil && flags.Lookup("http-addr") != nil && flags.Changed("http-addr") {
		cfg.HTTPAddr, err = flags.GetString("http-addr")
	}
	if err == nil && flags.Lookup("interval") != nil && flags.Changed("interval") {
		cfg.RefreshInterval, err = flags.GetDuration("interval")
	}
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// components are the pipeline and the sinks that need closing.
type components struct {
	pipeline *pipeline.Pipeline
	latest   *httpadapter.LatestDocument
	closers  []func() error
}

func build(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, withLatest bool) *components {
	c := &components{}

	loaders := []pipeline.Loader{file.NewWriter(cfg.OutputPath, logger)}
	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		loaders = append(loaders, w)
		c.closers = append(c.closers, w.Close)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if withLatest {
		c.latest = httpadapter.NewLatestDocument()
		loaders = append(loaders, c.latest)
	}

	c.pipeline = pipeline.New(
		source.NewClient(cfg.SourceURL, cfg.UserAgent, cfg.FetchTimeout, logger),
		excel.NewDecoder(logger),
		pipeline.NewTransformer(cfg.KnownDeaths, logger),
		loaders,
		logger,
		metrics,
	)
	return c
}

func (c *components) close(logger *slog.Logger) {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
}

func runOnce(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg)
	c := build(cfg, logger, observability.NewMetrics(), false)
	defer c.close(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.pipeline.RunOnce(ctx); err != nil {
		logger.Error("pipeline run failed", "error", err)
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	c := build(cfg, logger, metrics, true)

	srv := httpadapter.NewServer(cfg.HTTPAddr, c.pipeline, c.latest, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.pipeline.Run(ctx, cfg.RefreshInterval); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	c.close(logger)

	logger.Info("shutdown complete")
	return nil
}
