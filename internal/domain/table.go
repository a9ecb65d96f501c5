package domain

import (
	"math"
	"strconv"
	"strings"
)

// CellKind tags how a spreadsheet cell was encoded at ingestion.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellSerial
	CellText
)

// Cell is a single decoded spreadsheet value. Exactly one of Serial or Text
// is meaningful, selected by Kind.
type Cell struct {
	Kind   CellKind
	Serial float64
	Text   string
}

// EmptyCell returns a blank cell.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// SerialCell returns a numeric cell.
func SerialCell(v float64) Cell { return Cell{Kind: CellSerial, Serial: v} }

// TextCell returns a textual cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// ParseCell classifies a raw cell string once: blank strings are empty,
// anything strconv accepts as a finite number is serial, everything else is
// text.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyCell()
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return SerialCell(v)
	}
	return TextCell(s)
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String renders the cell the way it appeared in the source.
func (c Cell) String() string {
	switch c.Kind {
	case CellSerial:
		return strconv.FormatFloat(c.Serial, 'f', -1, 64)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// RawRow is one data row of a sheet. Number is the 1-based sheet row, kept
// for error messages.
type RawRow struct {
	Number int
	Cells  map[string]Cell
}

// Cell returns the value under label, or an empty cell when the row has none.
func (r RawRow) Cell(label string) Cell {
	if c, ok := r.Cells[label]; ok {
		return c
	}
	return EmptyCell()
}

// RawTable is a decoded sheet: column labels plus data rows in source order.
type RawTable struct {
	Name    string
	Columns []string
	Rows    []RawRow
}

// HasColumn reports whether the table has a column with the given label.
func (t RawTable) HasColumn(label string) bool {
	for _, c := range t.Columns {
		if c == label {
			return true
		}
	}
	return false
}

// FirstColumn returns the first of the candidate labels present in the table.
func (t RawTable) FirstColumn(candidates ...string) (string, bool) {
	for _, label := range candidates {
		if t.HasColumn(label) {
			return label, true
		}
	}
	return "", false
}

// SourceTables holds the two decoded source workbooks.
type SourceTables struct {
	Inspections RawTable
	Cases       RawTable
}

// SourceFiles holds the raw bytes of both published workbooks.
type SourceFiles struct {
	Inspections []byte
	Cases       []byte
}
