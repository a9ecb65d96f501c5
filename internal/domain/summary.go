package domain

// Summary tree labels as displayed by the dashboard.
const (
	AttrTested   = "検査実施人数"
	AttrPositive = "陽性患者数"
)

// SummaryNode is one node of the main summary tree.
type SummaryNode struct {
	Attr     string        `json:"attr"`
	Value    int           `json:"value"`
	Children []SummaryNode `json:"children,omitempty"`
}

// BuildSummaryTree nests the status counts under the positive-case count
// under the cumulative test count.
func BuildSummaryTree(tested, positives int, counts StatusCounts) SummaryNode {
	return SummaryNode{
		Attr:  AttrTested,
		Value: tested,
		Children: []SummaryNode{
			{
				Attr:  AttrPositive,
				Value: positives,
				Children: []SummaryNode{
					{Attr: Hospitalized.Label(), Value: counts.Hospitalized},
					{Attr: Discharged.Label(), Value: counts.Discharged},
					{Attr: Deceased.Label(), Value: counts.Deceased},
				},
			},
		},
	}
}
