package domain

import "sort"

// DailyCount is one point of a daily series.
type DailyCount struct {
	Date  CalendarDate
	Count int
}

// BuildPatientSeries counts confirmed cases per day. The series runs from the
// earliest confirmation to the later of the latest confirmation and
// inspectionEnd, with zero for days without cases. A zero inspectionEnd is
// ignored. No records yields an empty series.
func BuildPatientSeries(records []CaseRecord, inspectionEnd CalendarDate) []DailyCount {
	if len(records) == 0 {
		return []DailyCount{}
	}

	perDay := make(map[CalendarDate]int)
	for _, rec := range records {
		perDay[rec.ConfirmedDate]++
	}

	points := make([]DailyCount, 0, len(perDay)+1)
	var last CalendarDate
	for d, n := range perDay {
		points = append(points, DailyCount{Date: d, Count: n})
		if d.After(last) {
			last = d
		}
	}
	if !inspectionEnd.IsZero() && inspectionEnd.After(last) {
		points = append(points, DailyCount{Date: inspectionEnd})
	}

	return Resample(points)
}

// Resample returns one point per calendar day from the first to the last
// date of points, summing duplicates and filling gaps with zero. Resampling
// a contiguous series returns an equal series.
func Resample(points []DailyCount) []DailyCount {
	if len(points) == 0 {
		return []DailyCount{}
	}

	sorted := make([]DailyCount, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	first, last := sorted[0].Date, sorted[len(sorted)-1].Date
	out := []DailyCount{{Date: first}}
	i := 0
	for d := first; ; {
		for i < len(sorted) && sorted[i].Date == d {
			out[len(out)-1].Count += sorted[i].Count
			i++
		}
		if d == last {
			break
		}
		d = d.AddDays(1)
		out = append(out, DailyCount{Date: d})
	}
	return out
}
