// Command validate checks a generated data file for internal consistency:
// inspection dates sorted and unique, a contiguous patient series, summary
// totals that add up and patient counts that agree across sections.
//
// Usage:
//
//	go run ./cmd/validate -json data/data.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/covid19-data-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("json", "data/data.json", "path to the generated data file")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== COVID-19 Data File Validation ===")
	fmt.Println()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode %s: %v\n", path, err)
		return 1
	}

	phases := validate(doc)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d inspection days, %d patients, %d series days\n",
		len(doc.InspectionsSummary.Data), len(doc.Patients.Data), len(doc.PatientsSummary.Data))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(doc domain.Document) []*phase {
	return []*phase{
		validateTimestamps(doc),
		validateInspections(doc),
		validatePatients(doc),
		validateSeries(doc),
		validateSummary(doc),
	}
}

// ── Phases ──

func validateTimestamps(doc domain.Document) *phase {
	p := &phase{name: "Phase 1: Timestamps"}
	if doc.LastUpdate == "" {
		p.errorf("lastUpdate is empty")
	}
	for name, date := range map[string]string{
		"inspections_summary": doc.InspectionsSummary.Date,
		"patients":            doc.Patients.Date,
		"patients_summary":    doc.PatientsSummary.Date,
	} {
		if date != doc.LastUpdate {
			p.errorf("%s.date %q differs from lastUpdate %q", name, date, doc.LastUpdate)
		}
	}
	return p
}

func validateInspections(doc domain.Document) *phase {
	p := &phase{name: "Phase 2: Inspections sorted and unique"}
	var prev domain.CalendarDate
	for i, pt := range doc.InspectionsSummary.Data {
		d, err := domain.ParseCalendarDate(pt.Date)
		if err != nil {
			p.errorf("row %d: bad date %q", i, pt.Date)
			continue
		}
		if i > 0 && !d.After(prev) {
			p.errorf("row %d: %s does not follow %s", i, d, prev)
		}
		if pt.Prefecture < 0 || pt.City < 0 {
			p.errorf("row %d: negative count", i)
		}
		prev = d
	}
	return p
}

func validatePatients(doc domain.Document) *phase {
	p := &phase{name: "Phase 3: Patients unique with valid dates"}
	seen := make(map[int]bool, len(doc.Patients.Data))
	for i, pt := range doc.Patients.Data {
		if seen[pt.CaseNumber] {
			p.errorf("row %d: duplicate case number %d", i, pt.CaseNumber)
		}
		seen[pt.CaseNumber] = true
		if _, err := domain.ParseCalendarDate(pt.ReleaseDate); err != nil {
			p.errorf("row %d: bad release date %q", i, pt.ReleaseDate)
		}
		if pt.DischargeDate != nil {
			if _, err := domain.ParseCalendarDate(*pt.DischargeDate); err != nil {
				p.errorf("row %d: bad discharge date %q", i, *pt.DischargeDate)
			}
		}
	}
	return p
}

func validateSeries(doc domain.Document) *phase {
	p := &phase{name: "Phase 4: Patient series contiguous"}
	total := 0
	var prev domain.CalendarDate
	for i, pt := range doc.PatientsSummary.Data {
		d, err := domain.ParseCalendarDate(pt.Date)
		if err != nil {
			p.errorf("day %d: bad date %q", i, pt.Date)
			continue
		}
		if i > 0 && d != prev.AddDays(1) {
			p.errorf("day %d: %s does not follow %s", i, d, prev)
		}
		if pt.Count < 0 {
			p.errorf("day %d: negative count", i)
		}
		total += pt.Count
		prev = d
	}
	if total != len(doc.Patients.Data) {
		p.errorf("series total %d != patient count %d", total, len(doc.Patients.Data))
	}
	return p
}

func validateSummary(doc domain.Document) *phase {
	p := &phase{name: "Phase 5: Summary tree totals"}
	root := doc.MainSummary
	if root.Attr != domain.AttrTested {
		p.errorf("root attr %q, want %q", root.Attr, domain.AttrTested)
	}
	tested := 0
	for _, pt := range doc.InspectionsSummary.Data {
		tested += pt.Prefecture + pt.City
	}
	if root.Value < tested {
		p.errorf("cumulative tested %d below sum of daily inspections %d", root.Value, tested)
	}
	if len(root.Children) != 1 {
		p.errorf("root has %d children, want 1", len(root.Children))
		return p
	}
	positive := root.Children[0]
	if positive.Value != len(doc.Patients.Data) {
		p.errorf("positive %d != patient count %d", positive.Value, len(doc.Patients.Data))
	}
	if len(positive.Children) != 3 {
		p.errorf("positive node has %d children, want 3", len(positive.Children))
		return p
	}
	sum := 0
	for _, c := range positive.Children {
		sum += c.Value
	}
	if sum != positive.Value {
		p.errorf("status counts sum %d != positive %d", sum, positive.Value)
	}
	return p
}
