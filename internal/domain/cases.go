package domain

import (
	"math"
	"strconv"
	"strings"
)

// RetractionMarker in a remark marks a row withdrawn by the publisher.
const RetractionMarker = "削除"

// CaseColumns names the columns of the case line list. Discharge lists
// accepted labels in order of preference; the publisher renamed it once.
type CaseColumns struct {
	Number    string
	AgeGroup  string
	Sex       string
	Residence string
	Confirmed string
	Discharge []string
	Remarks   string
}

// DefaultCaseColumns is the layout of the Tochigi case workbook, with labels
// in NFKC form.
var DefaultCaseColumns = CaseColumns{
	Number:    "番号",
	AgeGroup:  "年代",
	Sex:       "性別",
	Residence: "居住地",
	Confirmed: "陽性確認日",
	Discharge: []string{"退院・退所日", "退院日"},
	Remarks:   "備考",
}

// CaseRecord is one reconciled case.
type CaseRecord struct {
	CaseNumber    int
	ConfirmedDate CalendarDate
	Residence     string
	AgeGroup      string
	Sex           string
	DischargeDate *CalendarDate
	Remarks       string
	Status        Status
}

// ReconcileStats counts what reconciliation dropped.
type ReconcileStats struct {
	Rows       int
	Retracted  int
	Repositive int
}

// filledRow is a source row after forward-fill and case number coercion.
type filledRow struct {
	row       RawRow
	number    int
	ageGroup  string
	sex       string
	residence string
	remarks   string
}

// ReconcileCases turns the raw line list into one record per case.
//
// Steps run in this order, and the order is load-bearing: forward-fill the
// identifying columns, coerce the case number, drop retracted rows, keep the
// first row of each case number in source order, then parse dates of the
// surviving rows only (continuation rows often have no dates at all).
func ReconcileCases(t RawTable, cols CaseColumns) ([]CaseRecord, ReconcileStats, error) {
	stats := ReconcileStats{Rows: len(t.Rows)}

	filled, err := forwardFill(t, cols)
	if err != nil {
		return nil, stats, err
	}

	discharge, hasDischarge := t.FirstColumn(cols.Discharge...)

	seen := make(map[int]struct{}, len(filled))
	records := make([]CaseRecord, 0, len(filled))
	for _, f := range filled {
		if strings.Contains(f.remarks, RetractionMarker) {
			stats.Retracted++
			continue
		}
		if _, dup := seen[f.number]; dup {
			stats.Repositive++
			continue
		}
		seen[f.number] = struct{}{}

		confirmed, err := normalizeDateAt(t.Name, cols.Confirmed, f.row)
		if err != nil {
			return nil, stats, err
		}

		var dischargeDate *CalendarDate
		if hasDischarge && !isAbsentDate(f.row.Cell(discharge)) {
			d, err := normalizeDateAt(t.Name, discharge, f.row)
			if err != nil {
				return nil, stats, err
			}
			dischargeDate = &d
		}

		rec := CaseRecord{
			CaseNumber:    f.number,
			ConfirmedDate: confirmed,
			Residence:     f.residence,
			AgeGroup:      f.ageGroup,
			Sex:           f.sex,
			DischargeDate: dischargeDate,
			Remarks:       f.remarks,
		}
		rec.Status = ClassifyStatus(rec)
		records = append(records, rec)
	}

	return records, stats, nil
}

// forwardFill carries the last non-blank case number, age group, sex and
// residence down over continuation rows. Each column is filled
// independently, in source row order.
func forwardFill(t RawTable, cols CaseColumns) ([]filledRow, error) {
	var (
		lastNumber    Cell
		lastAgeGroup  string
		lastSex       string
		lastResidence string
	)

	out := make([]filledRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		if c := row.Cell(cols.Number); !c.IsEmpty() {
			lastNumber = c
		}
		if lastNumber.IsEmpty() {
			return nil, &ReconciliationError{
				Column: cols.Number,
				Row:    row.Number,
				Reason: "no case number on or above this row",
			}
		}
		number, ok := caseNumber(lastNumber)
		if !ok {
			return nil, &ReconciliationError{
				Column: cols.Number,
				Row:    row.Number,
				Value:  lastNumber.String(),
				Reason: "case number is not a positive integer",
			}
		}

		lastAgeGroup = fillText(row.Cell(cols.AgeGroup), lastAgeGroup)
		lastSex = fillText(row.Cell(cols.Sex), lastSex)
		lastResidence = fillText(row.Cell(cols.Residence), lastResidence)

		out = append(out, filledRow{
			row:       row,
			number:    number,
			ageGroup:  lastAgeGroup,
			sex:       lastSex,
			residence: lastResidence,
			remarks:   row.Cell(cols.Remarks).String(),
		})
	}
	return out, nil
}

func fillText(c Cell, last string) string {
	if c.IsEmpty() {
		return last
	}
	return c.String()
}

func caseNumber(c Cell) (int, bool) {
	switch c.Kind {
	case CellSerial:
		if c.Serial >= 1 && c.Serial == math.Trunc(c.Serial) && c.Serial <= math.MaxInt32 {
			return int(c.Serial), true
		}
	case CellText:
		if n, err := strconv.Atoi(strings.TrimSpace(c.Text)); err == nil && n >= 1 {
			return n, true
		}
	}
	return 0, false
}

// isAbsentDate reports whether a discharge cell means "not discharged":
// blank, or one of the dash placeholders the publisher types by hand.
func isAbsentDate(c Cell) bool {
	if c.IsEmpty() {
		return true
	}
	if c.Kind != CellText {
		return false
	}
	switch strings.TrimSpace(c.Text) {
	case "-", "－", "ー", "―", "‐":
		return true
	}
	return false
}
