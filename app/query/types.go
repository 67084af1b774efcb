// Package query builds validated filter specifications from raw control
// values and applies them to tables. A specification is either fully valid
// or construction fails; the engine never sees a partial one.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dataexplorer/app/timestamps"
)

// MaxWindowDays is the longest allowed time window, inclusive of both
// endpoint days.
const MaxWindowDays = 30

// Validation failures surfaced to the user. The pipeline halts before any
// filtering or export work when one of these is returned.
var (
	ErrNoTemporalColumn = errors.New("no temporal column found, a time column is required")
	ErrIncompleteWindow = errors.New("time window requires a start and an end date")
	ErrWindowTooLong    = fmt.Errorf("time window exceeds %d days", MaxWindowDays)
)

// Controls carries the already-parsed control values captured by the
// presentation layer. Dates are epoch days, see timestamps.EpochDay.
type Controls struct {
	// Projection is the ordered set of columns to keep. Empty keeps all
	// columns in table order.
	Projection []string

	// TimeColumn selects the mandatory time column. Empty picks the
	// default: a temporal column named "time", else the first temporal
	// column.
	TimeColumn string

	// Window holds the inclusive start and end days of the mandatory time
	// window. Anything other than exactly two entries is rejected.
	Window []int64

	// Per-column constraints, keyed by column name. The shape must match
	// the column's classification.
	Numeric    map[string]NumericRange
	Dates      map[string]DateRange
	Values     map[string][]string
	Substrings map[string]string
}

// NumericRange is an inclusive [Min, Max] pair.
type NumericRange struct {
	Min, Max float64
}

// DateRange is an inclusive epoch-day pair.
type DateRange struct {
	MinDay, MaxDay int64
}

// Window is the mandatory time window in inclusive epoch days.
type Window struct {
	StartDay, EndDay int64
}

// NumericConstraint narrows a numeric column to an inclusive range. Inert
// constraints equal the column's full observed range and have no filtering
// effect.
type NumericConstraint struct {
	Column   string
	Min, Max float64
	Inert    bool
}

// DateConstraint narrows a non-time temporal column by date-only
// comparison.
type DateConstraint struct {
	Column         string
	MinDay, MaxDay int64
	Inert          bool
}

// SetConstraint keeps rows whose value is in Allowed. An empty set means
// no constraint, not exclude-all.
type SetConstraint struct {
	Column  string
	Allowed map[string]struct{}
}

// SubstringConstraint keeps rows whose string form contains Needle
// case-insensitively. An empty needle means no constraint.
type SubstringConstraint struct {
	Column string
	Needle string
}

// Spec is a validated, immutable filter specification. Build is the only
// constructor; Apply consumes it without mutating it.
type Spec struct {
	TimeColumn string
	Window     Window
	Numeric    []NumericConstraint
	Dates      []DateConstraint
	Values     []SetConstraint
	Substrings []SubstringConstraint
	Projection []string
}

// CacheKey returns a canonical string identifying the specification, used
// to key cached filter results. Equal specifications produce equal keys.
func (s *Spec) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "time:%s:%d-%d", s.TimeColumn, s.Window.StartDay, s.Window.EndDay)
	for _, c := range s.Numeric {
		fmt.Fprintf(&b, "|num:%s:%g:%g:%t", c.Column, c.Min, c.Max, c.Inert)
	}
	for _, c := range s.Dates {
		fmt.Fprintf(&b, "|date:%s:%s:%s:%t", c.Column, timestamps.FormatDay(c.MinDay), timestamps.FormatDay(c.MaxDay), c.Inert)
	}
	for _, c := range s.Values {
		vals := make([]string, 0, len(c.Allowed))
		for v := range c.Allowed {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		fmt.Fprintf(&b, "|set:%s:%s", c.Column, strings.Join(vals, "\x1f"))
	}
	for _, c := range s.Substrings {
		fmt.Fprintf(&b, "|sub:%s:%s", c.Column, c.Needle)
	}
	fmt.Fprintf(&b, "|cols:%s", strings.Join(s.Projection, ","))
	return b.String()
}
