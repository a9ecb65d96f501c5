// Package domain models the Tochigi prefecture COVID-19 surveillance data
// and the pure transformations that turn it into the dashboard document.
//
// # Data Source
//
// The prefecture publishes an HTML page linking two Excel workbooks: a daily
// test-count table ("検査件数") and a case line list ("発生状況一覧"). Both
// are rewritten in place every day, so rows appear, disappear and change
// between publications. Adapters fetch and decode them into [RawTable]; this
// package never touches the network or the spreadsheet format.
//
// # Date Encodings
//
// A date column may mix two encodings, sometimes within one sheet:
//
//	Serial:  a day count from the spreadsheet epoch 1899-12-30, e.g. 43891 = 2020-03-01.
//	         Any fractional part is a time of day and is discarded.
//	Textual: "2020/3/1", "2020-03-01", "2020年3月1日", "令和2年3月1日", "R2.3.1".
//
// The encoding is decided once, when a cell is read ([ParseCell]), and carried
// as a [Cell] kind. Both encodings of the same day normalize to the same
// [CalendarDate].
//
// # Test Counts
//
// The test-count table reports, per day, tests conducted by the prefecture
// and by Utsunomiya city, plus tests each commissioned from third parties
// ("委託分"). Delegated tests are attributed to the commissioning
// jurisdiction, so the reported figure is own + delegated. The cadence of
// this table is preserved as published; it is not gap-filled.
//
// # Case Line List
//
// Conventions of the case table, all handled by [ReconcileCases]:
//
//	Continuation rows: a blank case number continues the previous case
//	  (multi-line remarks). Number, age group, sex and residence are
//	  forward-filled from the last non-blank row.
//	Retractions: a remark containing "削除" marks a data-entry error; the
//	  row is dropped entirely.
//	Re-positives: a case number seen again later is a re-positive event of
//	  the same case. The first row in source order wins.
//
// The line list does not distinguish deaths from discharges; both carry a
// discharge date. The true death count is supplied by the operator and moved
// from the discharged to the deceased tally (see [TallyStatuses]). The result
// is never clamped: an override larger than the discharged tally produces a
// negative discharged count so the inconsistency stays visible downstream.
package domain
