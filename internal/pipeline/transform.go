package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid19-data-etl/internal/domain"
)

// Result is a computed document plus the figures reported alongside it.
type Result struct {
	Document domain.Document
	Counts   domain.StatusCounts
	Stats    domain.ReconcileStats
	Tested   int
	Cases    int
}

// ReportTransformer implements Transformer using the domain operations,
// applying the operator-supplied death count.
type ReportTransformer struct {
	knownDeaths int
	logger      *slog.Logger
}

// NewTransformer creates a ReportTransformer.
func NewTransformer(knownDeaths int, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		knownDeaths: knownDeaths,
		logger:      logger,
	}
}

func (t *ReportTransformer) Transform(_ context.Context, src domain.SourceTables) (Result, error) {
	report, counts, stats, err := domain.BuildReport(src, t.knownDeaths)
	if err != nil {
		return Result{}, err
	}

	if counts.Overdrawn() {
		t.logger.Warn("known deaths exceed discharged cases",
			"known_deaths", t.knownDeaths,
			"discharged", counts.Discharged,
		)
	}
	t.logger.Debug("cases reconciled",
		"rows", stats.Rows,
		"retracted", stats.Retracted,
		"repositive", stats.Repositive,
		"records", len(report.Cases),
	)

	return Result{
		Document: domain.AssembleDocument(report, domain.Now()),
		Counts:   counts,
		Stats:    stats,
		Tested:   report.Inspections.Tested,
		Cases:    len(report.Cases),
	}, nil
}
