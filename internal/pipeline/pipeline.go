package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid19-data-etl/internal/domain"
	"github.com/couchcryptid/covid19-data-etl/internal/observability"
	"github.com/google/uuid"
)

// Fetcher retrieves the raw source workbooks.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.SourceFiles, error)
}

// Decoder turns workbook bytes into raw tables.
type Decoder interface {
	DecodeInspections(data []byte) (domain.RawTable, error)
	DecodeCases(data []byte) (domain.RawTable, error)
}

// Transformer computes the published document from decoded tables.
type Transformer interface {
	Transform(ctx context.Context, src domain.SourceTables) (Result, error)
}

// Loader delivers a finished document to a destination.
type Loader interface {
	Load(ctx context.Context, doc domain.Document) error
}

// Pipeline orchestrates the fetch-decode-transform-load run.
type Pipeline struct {
	fetcher     Fetcher
	decoder     Decoder
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Loaders
// run in order, and only after the document was computed in full.
func New(f Fetcher, d Decoder, t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:     f,
		decoder:     d,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced a document yet")
	}
	return nil
}

// Ready reports whether a run has completed successfully.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes one pass immediately and then one per interval until the
// context is cancelled. Failed passes are logged; the next tick retries.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", "interval", interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("pipeline run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single fetch-decode-transform-load pass. No loader is
// invoked unless every earlier stage succeeded.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = domain.WithRunID(ctx, runID)
	logger := p.logger.With("run_id", runID)
	start := time.Now()

	files, err := p.fetcher.Fetch(ctx)
	p.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.Runs.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetch: %w", err)
	}

	src, err := p.decode(files)
	if err != nil {
		p.metrics.Runs.WithLabelValues("decode_error").Inc()
		return fmt.Errorf("decode: %w", err)
	}

	result, err := p.transformer.Transform(ctx, src)
	if err != nil {
		p.metrics.Runs.WithLabelValues("transform_error").Inc()
		return fmt.Errorf("transform: %w", err)
	}
	p.metrics.RetractedRows.Add(float64(result.Stats.Retracted))
	p.metrics.RepositiveRows.Add(float64(result.Stats.Repositive))

	var loadErrs []error
	for _, l := range p.loaders {
		if err := l.Load(ctx, result.Document); err != nil {
			logger.Error("load failed", "loader", fmt.Sprintf("%T", l), "error", err)
			loadErrs = append(loadErrs, err)
		}
	}
	if err := errors.Join(loadErrs...); err != nil {
		p.metrics.Runs.WithLabelValues("load_error").Inc()
		return fmt.Errorf("load: %w", err)
	}

	p.recordSuccess(result)
	logger.Info("pipeline run complete",
		"last_update", result.Document.LastUpdate,
		"tested", result.Tested,
		"cases", result.Cases,
		"hospitalized", result.Counts.Hospitalized,
		"discharged", result.Counts.Discharged,
		"deceased", result.Counts.Deceased,
		"duration", time.Since(start),
	)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

func (p *Pipeline) decode(files domain.SourceFiles) (domain.SourceTables, error) {
	inspections, err := p.decoder.DecodeInspections(files.Inspections)
	if err != nil {
		return domain.SourceTables{}, err
	}
	cases, err := p.decoder.DecodeCases(files.Cases)
	if err != nil {
		return domain.SourceTables{}, err
	}
	p.metrics.SourceRows.WithLabelValues("inspections").Add(float64(len(inspections.Rows)))
	p.metrics.SourceRows.WithLabelValues("cases").Add(float64(len(cases.Rows)))
	return domain.SourceTables{Inspections: inspections, Cases: cases}, nil
}

func (p *Pipeline) recordSuccess(r Result) {
	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.SetToCurrentTime()
	p.metrics.Cases.Set(float64(r.Cases))
	p.metrics.Tested.Set(float64(r.Tested))
	if r.Counts.Overdrawn() {
		p.metrics.DeathsOverdrawn.Set(1)
	} else {
		p.metrics.DeathsOverdrawn.Set(0)
	}
}
