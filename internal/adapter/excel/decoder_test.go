package excel

import (
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/covid19-data-etl/internal/domain"
	"github.com/couchcryptid/covid19-data-etl/internal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDecoder() *Decoder {
	return NewDecoder(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDecodeInspections(t *testing.T) {
	data, err := mock.InspectionWorkbook(mock.SampleInspections())
	require.NoError(t, err)

	table, err := testDecoder().DecodeInspections(data)
	require.NoError(t, err)

	assert.Equal(t, "inspections", table.Name)
	assert.Equal(t, []string{
		"検査日",
		"検査件数/栃木県",
		"検査件数/県委託分",
		"検査件数/宇都宮市",
		"検査件数/市委託分",
		"累積検査件数/合計",
	}, table.Columns)
	require.Len(t, table.Rows, 6)

	first := table.Rows[0]
	assert.Equal(t, 4, first.Number)
	assert.Equal(t, domain.SerialCell(43891), first.Cell("検査日"))
	assert.Equal(t, domain.SerialCell(5), first.Cell("検査件数/栃木県"))
	assert.Equal(t, domain.TextCell("2020/3/3"), table.Rows[2].Cell("検査日"))
}

func TestDecodeInspections_FeedsAggregator(t *testing.T) {
	data, err := mock.InspectionWorkbook(mock.SampleInspections())
	require.NoError(t, err)
	table, err := testDecoder().DecodeInspections(data)
	require.NoError(t, err)

	summary, err := domain.AggregateInspections(table, domain.DefaultInspectionColumns)
	require.NoError(t, err)
	assert.Equal(t, 48, summary.Tested)
	assert.Len(t, summary.Days, 6)
}

func TestDecodeCases(t *testing.T) {
	data, err := mock.CaseWorkbook(mock.SampleCases())
	require.NoError(t, err)

	table, err := testDecoder().DecodeCases(data)
	require.NoError(t, err)

	// Half-width middle dot is folded to the canonical label.
	assert.Contains(t, table.Columns, "退院・退所日")
	require.Len(t, table.Rows, 7, "footer rows are skipped")
	assert.Equal(t, 3, table.Rows[0].Number)
	assert.True(t, table.Rows[2].Cell("番号").IsEmpty(), "continuation row keeps a blank number")
	assert.Equal(t, domain.TextCell("県外からの帰省者"), table.Rows[2].Cell("備考"))

	records, stats, err := domain.ReconcileCases(table, domain.DefaultCaseColumns)
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, domain.ReconcileStats{Rows: 7, Retracted: 1, Repositive: 2}, stats)
}

func TestDecode_InvalidWorkbook(t *testing.T) {
	_, err := testDecoder().DecodeCases([]byte("not a zip archive"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open cases workbook")
}

func TestBuildTable(t *testing.T) {
	rows := [][]string{
		{"title"},
		{"検査日", "検査件数", "", "累積"},
		{"", "県", "市", ""},
		{"43891", "１２", "", "20"},
		{},
		{"43892", "", "3", "23"},
	}

	table, err := buildTable("t", rows, Layout{HeaderRows: []int{1, 2}})
	require.NoError(t, err)

	assert.Equal(t, []string{"検査日", "検査件数/県", "検査件数/市", "累積"}, table.Columns)
	require.Len(t, table.Rows, 2, "blank rows are skipped")
	assert.Equal(t, domain.SerialCell(12), table.Rows[0].Cell("検査件数/県"), "full-width digits are folded")
	assert.Equal(t, 6, table.Rows[1].Number)
}

func TestBuildTable_TooShort(t *testing.T) {
	_, err := buildTable("t", [][]string{{"title"}}, CaseLayout)
	require.Error(t, err)
}
