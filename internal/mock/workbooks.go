// Package mock builds sample source workbooks and the index page that links
// them, in the same layout the prefecture publishes. It backs cmd/genmock and
// the adapter and pipeline tests.
package mock

import (
	"fmt"
	"html"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// Anchor texts as they appear on the prefecture page.
const (
	InspectionsLinkText = "新型コロナウイルス感染症検査件数（エクセル：16KB）"
	CasesLinkText       = "栃木県における新型コロナウイルス感染症の発生状況一覧（エクセル：25KB）"
)

// InspectionRow is one day of the test-count sheet. Date is written as-is:
// an int or float becomes a serial date cell, a string a text cell.
type InspectionRow struct {
	Date                any
	Prefecture          int
	PrefectureDelegated int
	City                int
	CityDelegated       int
	Cumulative          int
}

// CaseRow is one row of the line list. Nil values leave the cell blank.
type CaseRow struct {
	Number    any
	Confirmed any
	AgeGroup  string
	Sex       string
	Residence string
	Discharge any
	Remarks   string
}

// InspectionWorkbook renders a test-count workbook: a title row, a two-row
// header with merged group cells, then one row per day.
func InspectionWorkbook(rows []InspectionRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := map[string]any{
		"A1": "新型コロナウイルス感染症検査件数",
		"A2": "検査日", "B2": "検査件数", "F2": "累積検査件数",
		"B3": "栃木県", "C3": "県委託分", "D3": "宇都宮市", "E3": "市委託分", "F3": "合計",
	}
	if err := setCells(f, header); err != nil {
		return nil, err
	}
	if err := f.MergeCell(sheet, "B2", "E2"); err != nil {
		return nil, fmt.Errorf("merge header: %w", err)
	}
	if err := f.MergeCell(sheet, "A2", "A3"); err != nil {
		return nil, fmt.Errorf("merge header: %w", err)
	}

	for i, r := range rows {
		values := []any{r.Date, r.Prefecture, r.PrefectureDelegated, r.City, r.CityDelegated, r.Cumulative}
		if err := setRow(f, i+4, values); err != nil {
			return nil, err
		}
	}
	return write(f)
}

// CaseWorkbook renders a line-list workbook: a title row, the header, one
// row per entry and two footer note rows.
func CaseWorkbook(rows []CaseRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetCellValue(sheet, "A1", "栃木県における新型コロナウイルス感染症の発生状況一覧"); err != nil {
		return nil, err
	}
	// The publisher uses a half-width middle dot in the discharge label.
	header := []any{"番号", "陽性確認日", "年代", "性別", "居住地", "退院･退所日", "備考"}
	if err := setRow(f, 2, header); err != nil {
		return nil, err
	}

	for i, r := range rows {
		values := []any{r.Number, r.Confirmed, r.AgeGroup, r.Sex, r.Residence, r.Discharge, r.Remarks}
		if err := setRow(f, i+3, values); err != nil {
			return nil, err
		}
	}

	footer := len(rows) + 3
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", footer), "※退院には退所を含む"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", footer+1), "※再陽性の事例は初回の番号で掲載"); err != nil {
		return nil, err
	}
	return write(f)
}

// IndexPage renders an HTML page linking both workbooks.
func IndexPage(inspectionsHref, casesHref string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>新型コロナウイルス感染症の検査・発生状況</title></head>
<body>
<ul>
<li><a href="%s">%s</a></li>
<li><a href="%s">%s</a></li>
<li><a href="/other.pdf">関連資料（PDF）</a></li>
</ul>
</body>
</html>
`, html.EscapeString(inspectionsHref), InspectionsLinkText, html.EscapeString(casesHref), CasesLinkText)
}

// SampleInspections returns a week of test counts mixing serial and text dates.
func SampleInspections() []InspectionRow {
	return []InspectionRow{
		{Date: 43891, Prefecture: 5, PrefectureDelegated: 1, City: 2, Cumulative: 8},
		{Date: 43892, Prefecture: 0, PrefectureDelegated: 2, City: 1, CityDelegated: 1, Cumulative: 12},
		{Date: "2020/3/3", Prefecture: 3, City: 4, Cumulative: 19},
		{Date: 43894, Prefecture: 7, PrefectureDelegated: 3, City: 0, CityDelegated: 2, Cumulative: 31},
		{Date: 43896, Prefecture: 4, PrefectureDelegated: 1, City: 3, Cumulative: 39},
		{Date: "2020/3/7", Prefecture: 6, City: 2, CityDelegated: 1, Cumulative: 48},
	}
}

// SampleCases returns a line list with a continuation row, a re-positive
// case and a retracted row.
func SampleCases() []CaseRow {
	return []CaseRow{
		{Number: 1, Confirmed: 43891, AgeGroup: "30代", Sex: "男性", Residence: "宇都宮市", Discharge: 43905},
		{Number: 2, Confirmed: 43892, AgeGroup: "50代", Sex: "女性", Residence: "小山市", Remarks: "濃厚接触者"},
		{Confirmed: nil, Remarks: "県外からの帰省者"},
		{Number: 3, Confirmed: "2020/3/4", AgeGroup: "20代", Sex: "男性", Residence: "足利市", Discharge: "2020/3/20"},
		{Number: 4, Confirmed: 43894, AgeGroup: "60代", Sex: "女性", Residence: "宇都宮市", Remarks: "誤報告のため削除"},
		{Number: 1, Confirmed: 43896, AgeGroup: "30代", Sex: "男性", Residence: "宇都宮市", Remarks: "再陽性"},
		{Number: 5, Confirmed: 43896, AgeGroup: "40代", Sex: "女性", Residence: "鹿沼市"},
	}
}

func setCells(f *excelize.File, cells map[string]any) error {
	for ref, v := range cells {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			return fmt.Errorf("set %s: %w", ref, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for i, v := range values {
		if v == nil || v == "" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			return fmt.Errorf("set %s: %w", ref, err)
		}
	}
	return nil
}

func write(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
