package domain

// Status is the current state of a case.
type Status int

const (
	Hospitalized Status = iota
	Discharged
	Deceased
)

// Label returns the dashboard label of the status.
func (s Status) Label() string {
	switch s {
	case Hospitalized:
		return "入院中"
	case Discharged:
		return "退院"
	case Deceased:
		return "死亡"
	default:
		return ""
	}
}

func (s Status) String() string {
	switch s {
	case Hospitalized:
		return "hospitalized"
	case Discharged:
		return "discharged"
	case Deceased:
		return "deceased"
	default:
		return "unknown"
	}
}

// ClassifyStatus derives a case's status from its discharge date. The line
// list never distinguishes deaths, so Deceased is not produced here.
func ClassifyStatus(rec CaseRecord) Status {
	if rec.DischargeDate != nil {
		return Discharged
	}
	return Hospitalized
}

// StatusCounts tallies cases by status.
type StatusCounts struct {
	Hospitalized int
	Discharged   int
	Deceased     int
}

// Total returns the number of cases across all statuses.
func (c StatusCounts) Total() int {
	return c.Hospitalized + c.Discharged + c.Deceased
}

// Overdrawn reports whether the death override exceeded the discharged
// tally, leaving a negative discharged count.
func (c StatusCounts) Overdrawn() bool {
	return c.Discharged < 0
}

// TallyStatuses counts records by ClassifyStatus and then moves knownDeaths
// from discharged to deceased. The result is not clamped; see Overdrawn.
func TallyStatuses(records []CaseRecord, knownDeaths int) StatusCounts {
	var c StatusCounts
	for _, rec := range records {
		switch ClassifyStatus(rec) {
		case Discharged:
			c.Discharged++
		default:
			c.Hospitalized++
		}
	}
	c.Discharged -= knownDeaths
	c.Deceased += knownDeaths
	return c
}
