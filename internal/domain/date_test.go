package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Cell
	}{
		{"blank", "", EmptyCell()},
		{"whitespace", "   ", EmptyCell()},
		{"integer", "43891", SerialCell(43891)},
		{"float", "43891.75", SerialCell(43891.75)},
		{"padded number", " 12 ", SerialCell(12)},
		{"slash date", "2020/3/1", TextCell("2020/3/1")},
		{"japanese text", "宇都宮市", TextCell("宇都宮市")},
		{"infinity is text", "Inf", TextCell("Inf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCell(tt.raw))
		})
	}
}

func TestDateFromSerial(t *testing.T) {
	tests := []struct {
		name   string
		serial float64
		want   CalendarDate
	}{
		{"epoch", 0, NewCalendarDate(1899, time.December, 30)},
		{"first of march 2020", 43891, NewCalendarDate(2020, time.March, 1)},
		{"leap day 2020", 43890, NewCalendarDate(2020, time.February, 29)},
		{"time of day discarded", 43891.99, NewCalendarDate(2020, time.March, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DateFromSerial(tt.serial)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("negative rejected", func(t *testing.T) {
		_, ok := DateFromSerial(-1)
		assert.False(t, ok)
	})
}

func TestNormalizeDate_SerialAndTextAgree(t *testing.T) {
	start := NewCalendarDate(2020, time.January, 1)
	for n := 0; n < 800; n += 7 {
		d := start.AddDays(n)
		serial := float64(43831 + n) // 43831 = 2020-01-01

		fromSerial, err := NormalizeDate(SerialCell(serial))
		require.NoError(t, err)

		for _, text := range []string{
			d.String(),
			d.Time().Format("2006/1/2"),
			d.Time().Format("2006年1月2日"),
		} {
			fromText, err := NormalizeDate(TextCell(text))
			require.NoError(t, err, text)
			assert.Equal(t, fromSerial, fromText, "serial %v vs %q", serial, text)
		}
	}
}

func TestNormalizeDate_TextFormats(t *testing.T) {
	want := NewCalendarDate(2020, time.March, 1)
	for _, text := range []string{
		"2020/3/1",
		"2020/03/01",
		"2020-03-01",
		"2020.3.1",
		"2020年3月1日",
		"2020/3/1 10:30",
		"2020-03-01T10:30:00",
		"2020-03-01T10:30:00+09:00",
		"令和2年3月1日",
		"R2.3.1",
		"R2/3/1",
	} {
		t.Run(text, func(t *testing.T) {
			got, err := NormalizeDate(TextCell(text))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("first year of reiwa", func(t *testing.T) {
		got, err := NormalizeDate(TextCell("令和元年5月1日"))
		require.NoError(t, err)
		assert.Equal(t, NewCalendarDate(2019, time.May, 1), got)
	})

	t.Run("heisei", func(t *testing.T) {
		got, err := NormalizeDate(TextCell("H31.4.30"))
		require.NoError(t, err)
		assert.Equal(t, NewCalendarDate(2019, time.April, 30), got)
	})
}

func TestNormalizeDate_Errors(t *testing.T) {
	for _, c := range []Cell{
		EmptyCell(),
		TextCell("調査中"),
		TextCell("3月1日"),
		TextCell("令和2年2月30日"),
		SerialCell(-5),
	} {
		t.Run(c.String(), func(t *testing.T) {
			_, err := NormalizeDate(c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDateParse))
		})
	}
}

func TestNormalizeDateColumn(t *testing.T) {
	table := RawTable{
		Name:    "inspections",
		Columns: []string{"検査日"},
		Rows: []RawRow{
			{Number: 4, Cells: map[string]Cell{"検査日": SerialCell(43893)}},
			{Number: 5, Cells: map[string]Cell{"検査日": TextCell("2020/3/1")}},
			{Number: 6, Cells: map[string]Cell{"検査日": SerialCell(43891)}},
		},
	}

	t.Run("sorted with duplicates kept", func(t *testing.T) {
		rows, err := NormalizeDateColumn(table, "検査日")
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, NewCalendarDate(2020, time.March, 1), rows[0].Date)
		assert.Equal(t, 5, rows[0].Row.Number, "stable sort keeps source order for equal dates")
		assert.Equal(t, NewCalendarDate(2020, time.March, 1), rows[1].Date)
		assert.Equal(t, 6, rows[1].Row.Number)
		assert.Equal(t, NewCalendarDate(2020, time.March, 3), rows[2].Date)
	})

	t.Run("unparseable cell fails the table", func(t *testing.T) {
		bad := table
		bad.Rows = append([]RawRow{}, table.Rows...)
		bad.Rows = append(bad.Rows, RawRow{Number: 9, Cells: map[string]Cell{"検査日": TextCell("不明")}})

		_, err := NormalizeDateColumn(bad, "検査日")
		var dpe *DateParseError
		require.ErrorAs(t, err, &dpe)
		assert.Equal(t, "inspections", dpe.Table)
		assert.Equal(t, "検査日", dpe.Column)
		assert.Equal(t, 9, dpe.Row)
		assert.Equal(t, "不明", dpe.Value)
	})
}

func TestCalendarDate(t *testing.T) {
	d := NewCalendarDate(2020, time.February, 28)

	assert.Equal(t, "2020-02-29", d.AddDays(1).String())
	assert.Equal(t, "2020-03-01", d.AddDays(2).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
	assert.True(t, CalendarDate{}.IsZero())

	parsed, err := ParseCalendarDate("2020-02-28")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}
