package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across layers.
var (
	ErrRetrieval      = errors.New("retrieval failed")
	ErrDateParse      = errors.New("unrecognized date")
	ErrAggregation    = errors.New("inspection aggregation failed")
	ErrReconciliation = errors.New("case reconciliation failed")
)

// RetrievalError reports a failure to locate or download a source workbook.
type RetrievalError struct {
	URL    string
	Reason string
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retrieve %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("retrieve %s: %s", e.URL, e.Reason)
}

func (e *RetrievalError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRetrieval}
	}
	return []error{ErrRetrieval, e.Err}
}

// DateParseError reports a cell that is neither a serial day count nor a
// recognizable date string.
type DateParseError struct {
	Table  string
	Column string
	Row    int // sheet row number, 0 when unknown
	Value  string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: cannot parse %q as a date", e.Table, e.Column, e.Row, e.Value)
}

func (e *DateParseError) Unwrap() error { return ErrDateParse }

// AggregationError reports a test-count table that cannot be aggregated.
type AggregationError struct {
	Column string
	Row    int
	Reason string
}

func (e *AggregationError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("inspections: column %q row %d: %s", e.Column, e.Row, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("inspections: column %q: %s", e.Column, e.Reason)
	default:
		return "inspections: " + e.Reason
	}
}

func (e *AggregationError) Unwrap() error { return ErrAggregation }

// ReconciliationError reports a case table missing identifying data.
type ReconciliationError struct {
	Column string
	Row    int
	Value  string
	Reason string
}

func (e *ReconciliationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("cases: column %q row %d: %s (value %q)", e.Column, e.Row, e.Reason, e.Value)
	}
	return fmt.Sprintf("cases: column %q row %d: %s", e.Column, e.Row, e.Reason)
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }
