// Package excel decodes the published xlsx workbooks into domain tables.
package excel

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/covid19-data-etl/internal/domain"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Layout describes where the header and data live on the first sheet.
type Layout struct {
	// HeaderRows are 0-based row indexes of the header, top level first.
	// With two rows, labels are flattened to "top/sub"; blank top-level
	// cells inherit from the left (merged cells).
	HeaderRows []int
	// FooterRows trailing rows are notes, not data.
	FooterRows int
}

// Default layouts of the two Tochigi workbooks.
var (
	InspectionLayout = Layout{HeaderRows: []int{1, 2}}
	CaseLayout       = Layout{HeaderRows: []int{1}, FooterRows: 2}
)

// Decoder reads workbooks into domain.RawTable values.
type Decoder struct {
	inspections Layout
	cases       Layout
	logger      *slog.Logger
}

// NewDecoder creates a Decoder for the default workbook layouts.
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{
		inspections: InspectionLayout,
		cases:       CaseLayout,
		logger:      logger,
	}
}

// DecodeInspections decodes the test-count workbook.
func (d *Decoder) DecodeInspections(data []byte) (domain.RawTable, error) {
	return d.decode("inspections", data, d.inspections)
}

// DecodeCases decodes the case line-list workbook.
func (d *Decoder) DecodeCases(data []byte) (domain.RawTable, error) {
	return d.decode("cases", data, d.cases)
}

func (d *Decoder) decode(name string, data []byte, layout Layout) (domain.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open %s workbook: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.RawTable{}, fmt.Errorf("%s workbook has no sheets", name)
	}

	// Raw values keep date cells as serial numbers instead of the
	// display format, so the domain sees one encoding per cell.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read %s sheet %q: %w", name, sheets[0], err)
	}

	table, err := buildTable(name, rows, layout)
	if err != nil {
		return domain.RawTable{}, err
	}

	d.logger.Debug("workbook decoded",
		"table", name,
		"sheet", sheets[0],
		"columns", len(table.Columns),
		"rows", len(table.Rows),
	)
	return table, nil
}

// buildTable turns sheet rows into a labelled table. Row numbers are 1-based
// sheet rows.
func buildTable(name string, rows [][]string, layout Layout) (domain.RawTable, error) {
	if len(layout.HeaderRows) == 0 {
		return domain.RawTable{}, fmt.Errorf("%s: layout has no header rows", name)
	}
	lastHeader := layout.HeaderRows[len(layout.HeaderRows)-1]
	if len(rows) <= lastHeader {
		return domain.RawTable{}, fmt.Errorf("%s: sheet has %d rows, header expected at row %d", name, len(rows), lastHeader+1)
	}

	labels := headerLabels(rows, layout.HeaderRows)

	end := len(rows) - layout.FooterRows
	if end < lastHeader+1 {
		end = lastHeader + 1
	}

	table := domain.RawTable{Name: name, Columns: compact(labels)}
	for i := lastHeader + 1; i < end; i++ {
		cells := make(map[string]domain.Cell, len(labels))
		blank := true
		for col, label := range labels {
			if label == "" || col >= len(rows[i]) {
				continue
			}
			c := domain.ParseCell(fold(rows[i][col]))
			if c.IsEmpty() {
				continue
			}
			cells[label] = c
			blank = false
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, domain.RawRow{Number: i + 1, Cells: cells})
	}
	return table, nil
}

// headerLabels flattens one or two header rows into a label per column.
func headerLabels(rows [][]string, headerRows []int) []string {
	width := 0
	for _, h := range headerRows {
		width = max(width, len(rows[h]))
	}

	top := cellsAt(rows[headerRows[0]], width)
	if len(headerRows) == 1 {
		return top
	}

	sub := cellsAt(rows[headerRows[1]], width)
	labels := make([]string, width)
	carry := ""
	for i := range width {
		if top[i] != "" {
			carry = top[i]
		}
		switch {
		case top[i] == "" && sub[i] == "":
			labels[i] = ""
		case sub[i] == "" || sub[i] == carry:
			labels[i] = carry
		case carry == "":
			labels[i] = sub[i]
		default:
			labels[i] = carry + "/" + sub[i]
		}
	}
	return labels
}

func cellsAt(row []string, width int) []string {
	out := make([]string, width)
	for i := range width {
		if i < len(row) {
			out[i] = fold(row[i])
		}
	}
	return out
}

// fold applies NFKC so full-width digits, half-width katakana and the
// various middle dots compare equal to their canonical forms.
func fold(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// compact drops unlabelled columns.
func compact(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
