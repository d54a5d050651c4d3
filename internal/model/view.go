package model

// RankingEntry is one category and its summed posting count.
type RankingEntry struct {
	Category string  `json:"category" yaml:"category"`
	Count    float64 `json:"count" yaml:"count"`
}

// Ranking is sorted descending by Count.
type Ranking []RankingEntry

// IndustryRow is one row of the fixed-column industry projection.
type IndustryRow struct {
	Rank      int               `json:"rank" yaml:"rank"`
	NAICS     string            `json:"naics" yaml:"naics"`
	Industry  string            `json:"industry" yaml:"industry"`
	Cells     map[string]string `json:"cells" yaml:"cells"`
	Jobs      float64           `json:"jobs" yaml:"jobs"` // Occupation Jobs in Industry for the base year
	Duplicate bool              `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}

// ChartPoint is one bar in a category→count chart.
type ChartPoint struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// NoticeKind classifies a user-visible notice.
type NoticeKind string

const (
	NoticeNoData        NoticeKind = "no_data"
	NoticeParseError    NoticeKind = "parse_error"
	NoticeUnclassified  NoticeKind = "unclassified"
	NoticeNoLabel       NoticeKind = "no_label"
	NoticeMissingColumn NoticeKind = "missing_column"
	NoticeDuplicate     NoticeKind = "duplicate_industry"
	NoticeDiscrepancy   NoticeKind = "discrepancy"
)

// Notice is a textual message surfaced to the presentation layer instead of an error.
type Notice struct {
	Kind    NoticeKind `json:"kind" yaml:"kind"`
	Source  string     `json:"source,omitempty" yaml:"source,omitempty"`
	Message string     `json:"message" yaml:"message"`
}

// ViewModel is everything the presentation layer needs for one occupation selection.
type ViewModel struct {
	RequestID     string        `json:"request_id" yaml:"request_id"`
	Occupations   []string      `json:"occupations" yaml:"occupations"`
	Selected      string        `json:"selected" yaml:"selected"`
	Companies     Ranking       `json:"companies" yaml:"companies"`
	CompanyChart  []ChartPoint  `json:"company_chart" yaml:"company_chart"`
	Industries    []IndustryRow `json:"industries" yaml:"industries"`
	IndustryChart []ChartPoint  `json:"industry_chart" yaml:"industry_chart"`
	Notices       []Notice      `json:"notices,omitempty" yaml:"notices,omitempty"`
	Empty         bool          `json:"empty" yaml:"empty"` // no qualifying CSVs in the archive
}

// HasData reports whether either view has something to render.
func (v *ViewModel) HasData() bool {
	return len(v.Companies) > 0 || len(v.Industries) > 0
}
