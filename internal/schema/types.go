package schema

// Report is the top-level output structure handed to renderers.
type Report struct {
	Tool      string       `json:"tool"`
	Version   string       `json:"version"`
	RunID     string       `json:"run_id"`
	Input     Input        `json:"input"`
	Evolution *Evolution   `json:"evolution,omitempty"`
	States    *StateReport `json:"states,omitempty"`
	Meta      Meta         `json:"meta"`
}

// Input captures the parameters used for this run.
type Input struct {
	Source      string   `json:"source"` // store backend name, or "files"
	Files       []string `json:"files,omitempty"`
	Scope       string   `json:"scope"`
	RecordCount int      `json:"record_count"`
	Week        *int     `json:"week,omitempty"`
	Day         string   `json:"day,omitempty"`
}

// Meta holds runtime metadata.
type Meta struct {
	GeneratedAt string `json:"generated_at"`
	Locale      string `json:"locale"`
}

// WeekLabel is the axis label for one week: its number and calendar start date.
type WeekLabel struct {
	Week  int    `json:"week"`
	Start string `json:"start"` // YYYY-MM-DD, the Sunday that starts the week
	Label string `json:"label"` // e.g. "S. 23"
	Date  string `json:"date"`  // locale short date, e.g. "2/jun"
}

// Evolution is the temporal progress view for one scope. Every series is
// aligned positionally to Weeks; a nil entry means "no data".
type Evolution struct {
	Scope      string `json:"scope"`
	Goal       int    `json:"goal"`
	TargetWeek int    `json:"target_week"`
	// NoData is set when the scope has no records; callers suppress charts and tables.
	NoData bool `json:"no_data"`

	Weeks           []WeekLabel `json:"weeks"`
	Finalized       []*int      `json:"finalized"`
	EditorialReview []*int      `json:"editorial_review"`
	Cumulative      []*int      `json:"cumulative"`

	ProjectedIncrements []*int `json:"projected_increments"`
	ProjectedCumulative []*int `json:"projected_cumulative"`

	WeeklyIncrement     int  `json:"weekly_increment"`
	LastObservedWeek    *int `json:"last_observed_week"`
	LastKnownTotal      int  `json:"last_known_total"`
	FinalProjectedTotal int  `json:"final_projected_total"`

	Summary []string `json:"summary,omitempty"`
	Table   *Table   `json:"table,omitempty"`
}

// Table is a metric × week row-set for tabular export.
type Table struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Row is one metric across all weeks; "no data" cells hold a dash.
type Row struct {
	Metric string   `json:"metric"`
	Values []string `json:"values"`
}

// StateReport is the point-in-time state breakdown.
type StateReport struct {
	Total      []StateCount `json:"total"`
	ADC        []StateCount `json:"adc"`
	PAC        []StateCount `json:"pac"`
	Completion Completion   `json:"completion"`
}

// StateCount is the number of records in one state.
type StateCount struct {
	State   string  `json:"state"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"` // share of the breakdown, one decimal
}

// Completion summarizes progress over a set of records.
type Completion struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	InProgress     int `json:"in_progress"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completion_rate"` // rounded percent
}

// Int returns a pointer to n, for nullable series entries.
func Int(n int) *int {
	return &n
}
