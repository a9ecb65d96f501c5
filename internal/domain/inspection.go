package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InspectionColumns names the columns of the test-count table. Labels are
// the flattened "group/sub" form produced by the workbook decoder.
type InspectionColumns struct {
	Date                string
	Prefecture          string
	PrefectureDelegated string
	City                string
	CityDelegated       string
	Cumulative          string
}

// DefaultInspectionColumns is the layout of the Tochigi test-count workbook.
var DefaultInspectionColumns = InspectionColumns{
	Date:                "検査日",
	Prefecture:          "検査件数/栃木県",
	PrefectureDelegated: "検査件数/県委託分",
	City:                "検査件数/宇都宮市",
	CityDelegated:       "検査件数/市委託分",
	Cumulative:          "累積検査件数/合計",
}

// InspectionDay is one reported day of tests. Prefecture and City already
// include tests delegated by each jurisdiction.
type InspectionDay struct {
	Date            CalendarDate
	Prefecture      int
	City            int
	CumulativeTotal int
}

// InspectionSummary is the aggregated test-count table.
type InspectionSummary struct {
	Days []InspectionDay
	// Tested is the cumulative total of the most recent day.
	Tested int
}

// LastDate returns the most recent reported date.
func (s InspectionSummary) LastDate() (CalendarDate, bool) {
	if len(s.Days) == 0 {
		return CalendarDate{}, false
	}
	return s.Days[len(s.Days)-1].Date, true
}

// AggregateInspections merges delegated tests into each jurisdiction's own
// count and orders the days ascending. The reporting cadence is preserved:
// no missing days are inserted.
func AggregateInspections(t RawTable, cols InspectionColumns) (InspectionSummary, error) {
	if !t.HasColumn(cols.Cumulative) {
		return InspectionSummary{}, &AggregationError{Column: cols.Cumulative, Reason: "cumulative total column is missing"}
	}
	for _, c := range []string{cols.Date, cols.Prefecture, cols.PrefectureDelegated, cols.City, cols.CityDelegated} {
		if !t.HasColumn(c) {
			return InspectionSummary{}, &AggregationError{Column: c, Reason: "required column is missing"}
		}
	}
	if len(t.Rows) == 0 {
		return InspectionSummary{}, &AggregationError{Reason: "table has no data rows"}
	}

	rows, err := NormalizeDateColumn(t, cols.Date)
	if err != nil {
		return InspectionSummary{}, err
	}

	days := make([]InspectionDay, 0, len(rows))
	for i, r := range rows {
		if i > 0 && r.Date == rows[i-1].Date {
			return InspectionSummary{}, &AggregationError{
				Column: cols.Date,
				Row:    r.Row.Number,
				Reason: fmt.Sprintf("date %s reported more than once", r.Date),
			}
		}

		counts := make(map[string]int, 5)
		for _, c := range []string{cols.Prefecture, cols.PrefectureDelegated, cols.City, cols.CityDelegated, cols.Cumulative} {
			n, err := countAt(r.Row, c)
			if err != nil {
				return InspectionSummary{}, err
			}
			counts[c] = n
		}

		days = append(days, InspectionDay{
			Date:            r.Date,
			Prefecture:      counts[cols.Prefecture] + counts[cols.PrefectureDelegated],
			City:            counts[cols.City] + counts[cols.CityDelegated],
			CumulativeTotal: counts[cols.Cumulative],
		})
	}

	return InspectionSummary{
		Days:   days,
		Tested: days[len(days)-1].CumulativeTotal,
	}, nil
}

// countAt coerces a count cell to a non-negative integer. Blank cells are a
// day with zero tests.
func countAt(row RawRow, column string) (int, error) {
	c := row.Cell(column)
	switch c.Kind {
	case CellEmpty:
		return 0, nil
	case CellSerial:
		if c.Serial >= 0 && c.Serial == math.Trunc(c.Serial) && c.Serial <= math.MaxInt32 {
			return int(c.Serial), nil
		}
	case CellText:
		// Thousands separators appear in hand-typed cells.
		if n, err := strconv.Atoi(strings.ReplaceAll(c.Text, ",", "")); err == nil && n >= 0 {
			return n, nil
		}
	}
	return 0, &AggregationError{
		Column: column,
		Row:    row.Number,
		Reason: fmt.Sprintf("%q is not a non-negative integer count", c.String()),
	}
}
