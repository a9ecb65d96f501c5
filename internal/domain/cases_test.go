package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCaseTable = "cases"

var caseLabels = []string{"番号", "陽性確認日", "年代", "性別", "居住地", "退院・退所日", "備考"}

// caseRow builds a line-list row; empty strings become empty cells and
// numeric strings become serial cells, as the decoder would produce.
func caseRow(number int, values ...string) RawRow {
	row := RawRow{Number: number, Cells: make(map[string]Cell, len(values))}
	for i, v := range values {
		row.Cells[caseLabels[i]] = ParseCell(v)
	}
	return row
}

func caseTable(rows ...RawRow) RawTable {
	return RawTable{Name: testCaseTable, Columns: caseLabels, Rows: rows}
}

func TestReconcileCases_RepositiveKeepsFirst(t *testing.T) {
	table := caseTable(
		caseRow(3, "1", "43891", "30代", "男性", "宇都宮市", "", ""),
		caseRow(4, "1", "43900", "30代", "男性", "宇都宮市", "", ""),
		caseRow(5, "2", "43892", "50代", "女性", "小山市", "43905", ""),
	)

	records, stats, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].CaseNumber)
	assert.Equal(t, NewCalendarDate(2020, time.March, 1), records[0].ConfirmedDate)
	assert.Nil(t, records[0].DischargeDate)
	assert.Equal(t, Hospitalized, records[0].Status)

	assert.Equal(t, 2, records[1].CaseNumber)
	require.NotNil(t, records[1].DischargeDate)
	assert.Equal(t, NewCalendarDate(2020, time.March, 15), *records[1].DischargeDate)
	assert.Equal(t, Discharged, records[1].Status)

	assert.Equal(t, ReconcileStats{Rows: 3, Repositive: 1}, stats)

	counts := TallyStatuses(records, 0)
	assert.Equal(t, StatusCounts{Hospitalized: 1, Discharged: 1, Deceased: 0}, counts)

	adjusted := TallyStatuses(records, 1)
	assert.Equal(t, StatusCounts{Hospitalized: 1, Discharged: 0, Deceased: 1}, adjusted)
}

func TestReconcileCases_ForwardFill(t *testing.T) {
	table := caseTable(
		caseRow(3, "7", "2020/3/5", "20代", "女性", "足利市", "", "濃厚接触者"),
		caseRow(4, "", "", "", "", "", "", "県外在住"),
		caseRow(5, "8", "2020/3/6", "", "男性", "佐野市", "", ""),
	)

	records, stats, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 7, records[0].CaseNumber)
	assert.Equal(t, "濃厚接触者", records[0].Remarks)
	assert.Equal(t, 1, stats.Repositive, "continuation row collapses into its case")

	// Age group is filled independently of the case number.
	assert.Equal(t, 8, records[1].CaseNumber)
	assert.Equal(t, "20代", records[1].AgeGroup)
	assert.Equal(t, "男性", records[1].Sex)
	assert.Equal(t, "佐野市", records[1].Residence)
}

func TestReconcileCases_Retracted(t *testing.T) {
	table := caseTable(
		caseRow(3, "1", "43891", "30代", "男性", "宇都宮市", "", ""),
		caseRow(4, "2", "43892", "40代", "女性", "宇都宮市", "", "誤報告のため削除"),
		caseRow(5, "3", "43893", "60代", "男性", "鹿沼市", "", ""),
	)

	records, stats, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)

	numbers := make([]int, len(records))
	for i, r := range records {
		numbers[i] = r.CaseNumber
	}
	assert.Equal(t, []int{1, 3}, numbers)
	assert.Equal(t, 1, stats.Retracted)
}

func TestReconcileCases_RetractedFirstOccurrence(t *testing.T) {
	// A retracted first row does not shadow a later valid row for the same number.
	table := caseTable(
		caseRow(3, "5", "43891", "30代", "男性", "宇都宮市", "", "削除"),
		caseRow(4, "5", "43895", "30代", "男性", "宇都宮市", "", ""),
	)

	records, _, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, NewCalendarDate(2020, time.March, 5), records[0].ConfirmedDate)
}

func TestReconcileCases_DedupeProperty(t *testing.T) {
	for k := 1; k <= 5; k++ {
		rows := []RawRow{caseRow(3, "9", "43891", "10代", "女性", "栃木市", "", "")}
		for i := 1; i < k; i++ {
			rows = append(rows, caseRow(3+i, "9", "43900", "10代", "女性", "栃木市", "43910", ""))
		}

		records, stats, err := ReconcileCases(caseTable(rows...), DefaultCaseColumns)
		require.NoError(t, err)
		require.Len(t, records, 1, "k=%d", k)
		assert.Equal(t, NewCalendarDate(2020, time.March, 1), records[0].ConfirmedDate)
		assert.Nil(t, records[0].DischargeDate)
		assert.Equal(t, k-1, stats.Repositive)
	}
}

func TestReconcileCases_DischargeEncodings(t *testing.T) {
	table := caseTable(
		caseRow(3, "1", "43891", "30代", "男性", "宇都宮市", "2020/3/20", ""),
		caseRow(4, "2", "43891", "30代", "男性", "宇都宮市", "-", ""),
		caseRow(5, "3", "43891", "30代", "男性", "宇都宮市", "43910.5", ""),
	)

	records, _, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NotNil(t, records[0].DischargeDate)
	assert.Equal(t, "2020-03-20", records[0].DischargeDate.String())
	assert.Nil(t, records[1].DischargeDate)
	require.NotNil(t, records[2].DischargeDate)
	assert.Equal(t, "2020-03-20", records[2].DischargeDate.String())
}

func TestReconcileCases_LegacyDischargeLabel(t *testing.T) {
	table := RawTable{
		Name:    testCaseTable,
		Columns: []string{"番号", "陽性確認日", "退院日"},
		Rows: []RawRow{
			{Number: 3, Cells: map[string]Cell{"番号": SerialCell(1), "陽性確認日": SerialCell(43891), "退院日": SerialCell(43900)}},
		},
	}

	records, _, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)
	require.NotNil(t, records[0].DischargeDate)
	assert.Equal(t, "2020-03-10", records[0].DischargeDate.String())
	assert.Equal(t, "", records[0].Remarks)
}

func TestReconcileCases_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table RawTable
		errIs error
		row   int
	}{
		{
			name:  "blank first case number",
			table: caseTable(caseRow(3, "", "43891", "30代", "男性", "宇都宮市", "", "")),
			errIs: ErrReconciliation,
			row:   3,
		},
		{
			name:  "non-numeric case number",
			table: caseTable(caseRow(3, "欠番", "43891", "30代", "男性", "宇都宮市", "", "")),
			errIs: ErrReconciliation,
			row:   3,
		},
		{
			name:  "zero case number",
			table: caseTable(caseRow(3, "0", "43891", "30代", "男性", "宇都宮市", "", "")),
			errIs: ErrReconciliation,
			row:   3,
		},
		{
			name:  "bad confirmed date",
			table: caseTable(caseRow(3, "1", "調査中", "30代", "男性", "宇都宮市", "", "")),
			errIs: ErrDateParse,
		},
		{
			name:  "bad discharge date",
			table: caseTable(caseRow(3, "1", "43891", "30代", "男性", "宇都宮市", "近日", "")),
			errIs: ErrDateParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReconcileCases(tt.table, DefaultCaseColumns)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.errIs), "got %v", err)

			var re *ReconciliationError
			if errors.As(err, &re) {
				assert.Equal(t, tt.row, re.Row)
				assert.Equal(t, "番号", re.Column)
			}
		})
	}
}

func TestReconcileCases_ContinuationDatesIgnored(t *testing.T) {
	// Continuation rows are dropped before dates are parsed, so their blank
	// or free-text date cells never fail the table.
	table := caseTable(
		caseRow(3, "4", "43891", "70代", "女性", "日光市", "", ""),
		caseRow(4, "", "同上", "", "", "", "", "続き"),
	)

	records, _, err := ReconcileCases(table, DefaultCaseColumns)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
