package server

// Request and response shapes for the JSON API. Dates travel as
// YYYY-MM-DD strings and are parsed into the core's control types at the
// handler boundary.

// FilterRequest is the raw filter form submission.
type FilterRequest struct {
	Columns    []string              `json:"columns,omitempty"`
	TimeColumn string                `json:"timeColumn,omitempty"`
	Window     []string              `json:"window"`
	Numeric    map[string][]float64  `json:"numeric,omitempty"`
	Dates      map[string][]string   `json:"dates,omitempty"`
	Values     map[string][]string   `json:"values,omitempty"`
	Substrings map[string]string     `json:"substrings,omitempty"`
}

// AggregateRequest asks for a grouped aggregation over the session's
// table. Filtered selects the last filter result instead of the full
// upload.
type AggregateRequest struct {
	GroupBy     []string `json:"groupBy"`
	ValueColumn string   `json:"valueColumn"`
	Func        string   `json:"func"`
	Filtered    bool     `json:"filtered,omitempty"`
}

// ColumnInfo describes one classified column to the client, including the
// observed bounds the filter controls are seeded from.
type ColumnInfo struct {
	Name     string   `json:"name"`
	Class    string   `json:"class"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	MinDate  string   `json:"minDate,omitempty"`
	MaxDate  string   `json:"maxDate,omitempty"`
	Distinct []string `json:"distinct,omitempty"`
}

// DatasetResponse describes a freshly opened session.
type DatasetResponse struct {
	SessionID     string       `json:"sessionId"`
	FileName      string       `json:"fileName"`
	FileType      string       `json:"fileType"`
	Rows          int          `json:"rows"`
	Columns       []ColumnInfo `json:"columns"`
	TimeColumn    string       `json:"timeColumn,omitempty"`
	DefaultWindow []string     `json:"defaultWindow,omitempty"`
}

// FilterResponse reports the shape of the filter result plus a bounded
// preview of its rows.
type FilterResponse struct {
	Rows    int        `json:"rows"`
	Columns []string   `json:"columns"`
	Preview [][]string `json:"preview"`
}

// TableResponse carries a small result table (aggregations) as rows of
// rendered cells.
type TableResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
