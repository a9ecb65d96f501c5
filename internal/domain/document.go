package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is the dashboard data file. Field order matches the published
// JSON.
type Document struct {
	LastUpdate         string             `json:"lastUpdate"`
	InspectionsSummary InspectionsSection `json:"inspections_summary"`
	MainSummary        SummaryNode        `json:"main_summary"`
	Patients           PatientsSection    `json:"patients"`
	PatientsSummary    PatientsSummary    `json:"patients_summary"`
}

// InspectionsSection lists tests per reported day.
type InspectionsSection struct {
	Data []InspectionPoint `json:"data"`
	Date string            `json:"date"`
}

// PatientsSection lists reconciled cases.
type PatientsSection struct {
	Data []PatientEntry `json:"data"`
	Date string         `json:"date"`
}

// PatientsSummary lists confirmed cases per calendar day.
type PatientsSummary struct {
	Data []DailyPoint `json:"data"`
	Date string       `json:"date"`
}

// PatientEntry is the published form of a case. DischargeDate is null when
// the case has not been discharged.
type PatientEntry struct {
	CaseNumber    int     `json:"番号"`
	ReleaseDate   string  `json:"リリース日"`
	Residence     string  `json:"居住地"`
	AgeGroup      string  `json:"年代"`
	Sex           string  `json:"性別"`
	DischargeDate *string `json:"退院"`
}

// InspectionPoint serializes as ["YYYY-MM-DD", prefecture, city].
type InspectionPoint struct {
	Date       string
	Prefecture int
	City       int
}

func (p InspectionPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Prefecture, p.City})
}

func (p *InspectionPoint) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("inspection point: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Date); err != nil {
		return fmt.Errorf("inspection point date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Prefecture); err != nil {
		return fmt.Errorf("inspection point prefecture: %w", err)
	}
	if err := json.Unmarshal(raw[2], &p.City); err != nil {
		return fmt.Errorf("inspection point city: %w", err)
	}
	return nil
}

// DailyPoint serializes as ["YYYY-MM-DD", count].
type DailyPoint struct {
	Date  string
	Count int
}

func (p DailyPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Count})
}

func (p *DailyPoint) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("daily point: want 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Date); err != nil {
		return fmt.Errorf("daily point date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Count); err != nil {
		return fmt.Errorf("daily point count: %w", err)
	}
	return nil
}

// Report gathers the computed parts of a document.
type Report struct {
	Inspections InspectionSummary
	Cases       []CaseRecord
	Series      []DailyCount
	Summary     SummaryNode
}

// AssembleDocument renders a report into the published document, stamped
// with generatedAt in JST.
func AssembleDocument(r Report, generatedAt time.Time) Document {
	stamp := generatedAt.In(JST).Format(lastUpdateLayout)

	inspections := make([]InspectionPoint, len(r.Inspections.Days))
	for i, d := range r.Inspections.Days {
		inspections[i] = InspectionPoint{Date: d.Date.String(), Prefecture: d.Prefecture, City: d.City}
	}

	patients := make([]PatientEntry, len(r.Cases))
	for i, c := range r.Cases {
		var discharge *string
		if c.DischargeDate != nil {
			s := c.DischargeDate.String()
			discharge = &s
		}
		patients[i] = PatientEntry{
			CaseNumber:    c.CaseNumber,
			ReleaseDate:   c.ConfirmedDate.String(),
			Residence:     c.Residence,
			AgeGroup:      c.AgeGroup,
			Sex:           c.Sex,
			DischargeDate: discharge,
		}
	}

	series := make([]DailyPoint, len(r.Series))
	for i, p := range r.Series {
		series[i] = DailyPoint{Date: p.Date.String(), Count: p.Count}
	}

	return Document{
		LastUpdate:         stamp,
		InspectionsSummary: InspectionsSection{Data: inspections, Date: stamp},
		MainSummary:        r.Summary,
		Patients:           PatientsSection{Data: patients, Date: stamp},
		PatientsSummary:    PatientsSummary{Data: series, Date: stamp},
	}
}

// BuildReport runs the core transformations over decoded source tables.
// knownDeaths is the operator-supplied death count moved out of the
// discharged tally.
func BuildReport(src SourceTables, knownDeaths int) (Report, StatusCounts, ReconcileStats, error) {
	inspections, err := AggregateInspections(src.Inspections, DefaultInspectionColumns)
	if err != nil {
		return Report{}, StatusCounts{}, ReconcileStats{}, fmt.Errorf("aggregate inspections: %w", err)
	}

	cases, stats, err := ReconcileCases(src.Cases, DefaultCaseColumns)
	if err != nil {
		return Report{}, StatusCounts{}, stats, fmt.Errorf("reconcile cases: %w", err)
	}

	counts := TallyStatuses(cases, knownDeaths)
	lastInspection, _ := inspections.LastDate()

	return Report{
		Inspections: inspections,
		Cases:       cases,
		Series:      BuildPatientSeries(cases, lastInspection),
		Summary:     BuildSummaryTree(inspections.Tested, len(cases), counts),
	}, counts, stats, nil
}
