package domain

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial bounds serial day counts to year 9999.
const maxSerial = 2958465

// textDateLayouts are tried in order for textual dates.
var textDateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"2006年1月2日",
	"2006/1/2 15:04",
	"2006/1/2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// eraDateRe matches Japanese era dates: "令和2年3月1日", "R2.3.1", "H31/4/30".
var eraDateRe = regexp.MustCompile(`^(令和|平成|R|H)\s*(\d{1,2}|元)\s*[年./-]\s*(\d{1,2})\s*[月./-]\s*(\d{1,2})\s*日?$`)

// eraBase maps an era name to the Gregorian year preceding its first year.
var eraBase = map[string]int{
	"令和": 2018,
	"R":  2018,
	"平成": 1988,
	"H":  1988,
}

// CalendarDate is a timezone-naive calendar day.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate returns the date for y-m-d, normalizing out-of-range values
// the way time.Date does.
func NewCalendarDate(y int, m time.Month, d int) CalendarDate {
	return DateOf(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (earlier for negative n).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return NewCalendarDate(d.Year, d.Month, d.Day+n)
}

// Before reports whether d is strictly earlier than o.
func (d CalendarDate) Before(o CalendarDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// After reports whether d is strictly later than o.
func (d CalendarDate) After(o CalendarDate) bool { return o.Before(d) }

// IsZero reports whether d is the zero value.
func (d CalendarDate) IsZero() bool { return d == CalendarDate{} }

// String formats the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return d.Time().Format("2006-01-02")
}

// ParseCalendarDate parses a YYYY-MM-DD string.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CalendarDate{}, err
	}
	return DateOf(t), nil
}

// DateFromSerial converts a spreadsheet serial day count to a date. The
// fractional part (time of day) is discarded.
func DateFromSerial(serial float64) (CalendarDate, bool) {
	if math.IsNaN(serial) || serial < 0 || serial > maxSerial {
		return CalendarDate{}, false
	}
	days := int(math.Floor(serial))
	return DateOf(serialEpoch.AddDate(0, 0, days)), true
}

// parseTextDate parses a textual date in any supported locale format.
func parseTextDate(s string) (CalendarDate, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return parseEraDate(s)
}

func parseEraDate(s string) (CalendarDate, bool) {
	m := eraDateRe.FindStringSubmatch(s)
	if m == nil {
		return CalendarDate{}, false
	}
	year := 1
	if m[2] != "元" {
		year, _ = strconv.Atoi(m[2])
	}
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[4])
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return CalendarDate{}, false
	}
	d := NewCalendarDate(eraBase[m[1]]+year, time.Month(month), day)
	// Reject overflow such as 2月30日 that time.Date would roll forward.
	if d.Month != time.Month(month) || d.Day != day {
		return CalendarDate{}, false
	}
	return d, true
}

// NormalizeDate converts one cell to a date. Empty cells and unrecognized
// text fail with *DateParseError; callers fill in Table/Column/Row context.
func NormalizeDate(c Cell) (CalendarDate, error) {
	switch c.Kind {
	case CellSerial:
		if d, ok := DateFromSerial(c.Serial); ok {
			return d, nil
		}
	case CellText:
		if d, ok := parseTextDate(c.Text); ok {
			return d, nil
		}
	}
	return CalendarDate{}, &DateParseError{Value: c.String()}
}

// normalizeDateAt is NormalizeDate with table/column/row context attached.
func normalizeDateAt(table, column string, row RawRow) (CalendarDate, error) {
	d, err := NormalizeDate(row.Cell(column))
	if err != nil {
		return CalendarDate{}, &DateParseError{
			Table:  table,
			Column: column,
			Row:    row.Number,
			Value:  row.Cell(column).String(),
		}
	}
	return d, nil
}

// DatedRow pairs a source row with its normalized index date.
type DatedRow struct {
	Date CalendarDate
	Row  RawRow
}

// NormalizeDateColumn normalizes column for every row of t and returns the
// rows ordered by date ascending. The sort is stable and duplicate dates are
// kept; any unparseable cell fails the whole table.
func NormalizeDateColumn(t RawTable, column string) ([]DatedRow, error) {
	out := make([]DatedRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		d, err := normalizeDateAt(t.Name, column, row)
		if err != nil {
			return nil, err
		}
		out = append(out, DatedRow{Date: d, Row: row})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
