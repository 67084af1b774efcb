// Package classify assigns each column of a loaded table to a semantic
// class and records the observed value ranges the filter builder compares
// against. Classification runs once per upload, immediately after load.
package classify

import (
	"sort"
	"time"

	"dataexplorer/app/dataset"
	"dataexplorer/app/timestamps"
)

// Class is the inferred semantic class of a column.
type Class int

const (
	Temporal Class = iota
	Numeric
	CategoricalLow
	CategoricalHigh
	Opaque
)

// String returns the string representation of Class
func (c Class) String() string {
	switch c {
	case Temporal:
		return "temporal"
	case Numeric:
		return "numeric"
	case CategoricalLow:
		return "categorical"
	case CategoricalHigh:
		return "text"
	default:
		return "opaque"
	}
}

const (
	// DefaultCoercionThreshold is the fraction of non-missing values that
	// must parse as timestamps before a text column is reclassified as
	// temporal. The fraction must strictly exceed the threshold.
	DefaultCoercionThreshold = 0.8

	// DefaultCategoricalLimit is the largest distinct-value count for
	// which a text column is treated as a discrete value set.
	DefaultCategoricalLimit = 100
)

// Options tune the classification pass.
type Options struct {
	CoercionThreshold float64        // 0 means DefaultCoercionThreshold
	CategoricalLimit  int            // 0 means DefaultCategoricalLimit
	Location          *time.Location // timezone for zone-less timestamps, nil means UTC
}

// Profile describes one classified column: its class plus the observed
// bounds or value set the class makes meaningful.
type Profile struct {
	Class      Class
	NonMissing int

	// Numeric columns: observed inclusive value range.
	Min, Max float64

	// Temporal columns: observed inclusive date range in epoch days.
	MinDay, MaxDay int64

	// CategoricalLow columns: sorted distinct non-missing values.
	Distinct []string
}

// Schema maps column names to their profiles.
type Schema map[string]*Profile

// Classify derives the schema of a table. Text columns whose values are
// mostly parseable timestamps are coerced: the returned table carries the
// parsed temporal column in place of the text one, with parse failures
// degraded to missing values. The input table is never modified.
func Classify(t *dataset.Table, opts Options) (*dataset.Table, Schema) {
	threshold := opts.CoercionThreshold
	if threshold == 0 {
		threshold = DefaultCoercionThreshold
	}
	limit := opts.CategoricalLimit
	if limit == 0 {
		limit = DefaultCategoricalLimit
	}

	schema := make(Schema, t.NumCols())
	cols := make([]*dataset.Column, 0, t.NumCols())
	for _, col := range t.Columns() {
		out := col
		var prof *Profile
		switch col.Kind {
		case dataset.KindNumber:
			prof = numericProfile(col)
		case dataset.KindTime:
			prof = temporalProfile(col)
		case dataset.KindString:
			if coerced, ok := coerceTemporal(col, threshold, opts.Location); ok {
				out = coerced
				prof = temporalProfile(coerced)
			} else {
				prof = textProfile(col, limit)
			}
		default:
			prof = &Profile{Class: Opaque, NonMissing: countValid(col)}
		}
		schema[col.Name] = prof
		cols = append(cols, out)
	}

	// Column count, names and row counts are unchanged, so New cannot fail.
	coerced, err := dataset.New(cols)
	if err != nil {
		return t, schema
	}
	return coerced, schema
}

// coerceTemporal attempts to reinterpret a text column as timestamps.
// Every value is parsed; failures become missing values. The column is
// accepted only when the parsed fraction of non-missing values strictly
// exceeds the threshold.
func coerceTemporal(col *dataset.Column, threshold float64, loc *time.Location) (*dataset.Column, bool) {
	n := col.Len()
	times := make([]int64, n)
	valid := make([]bool, n)
	nonMissing, parsed := 0, 0
	for i := 0; i < n; i++ {
		if !col.Valid[i] {
			continue
		}
		nonMissing++
		if ms, ok := timestamps.Parse(col.Strings[i], loc); ok {
			times[i] = ms
			valid[i] = true
			parsed++
		}
	}
	if nonMissing == 0 || float64(parsed)/float64(nonMissing) <= threshold {
		return nil, false
	}
	return &dataset.Column{
		Name:  col.Name,
		Kind:  dataset.KindTime,
		Times: times,
		Valid: valid,
	}, true
}

func numericProfile(col *dataset.Column) *Profile {
	prof := &Profile{Class: Numeric}
	for i := 0; i < col.Len(); i++ {
		if !col.Valid[i] {
			continue
		}
		v := col.Numbers[i]
		if prof.NonMissing == 0 || v < prof.Min {
			prof.Min = v
		}
		if prof.NonMissing == 0 || v > prof.Max {
			prof.Max = v
		}
		prof.NonMissing++
	}
	return prof
}

func temporalProfile(col *dataset.Column) *Profile {
	prof := &Profile{Class: Temporal}
	for i := 0; i < col.Len(); i++ {
		if !col.Valid[i] {
			continue
		}
		day := timestamps.EpochDay(col.Times[i])
		if prof.NonMissing == 0 || day < prof.MinDay {
			prof.MinDay = day
		}
		if prof.NonMissing == 0 || day > prof.MaxDay {
			prof.MaxDay = day
		}
		prof.NonMissing++
	}
	return prof
}

func textProfile(col *dataset.Column, limit int) *Profile {
	seen := make(map[string]struct{})
	nonMissing := 0
	for i := 0; i < col.Len(); i++ {
		if !col.Valid[i] {
			continue
		}
		nonMissing++
		if len(seen) <= limit {
			seen[col.Strings[i]] = struct{}{}
		}
	}
	if len(seen) > limit {
		return &Profile{Class: CategoricalHigh, NonMissing: nonMissing}
	}
	distinct := make([]string, 0, len(seen))
	for v := range seen {
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)
	return &Profile{Class: CategoricalLow, NonMissing: nonMissing, Distinct: distinct}
}

// TemporalColumns returns the temporal column names in table order.
func (s Schema) TemporalColumns(t *dataset.Table) []string {
	var out []string
	for _, name := range t.ColumnNames() {
		if prof, ok := s[name]; ok && prof.Class == Temporal {
			out = append(out, name)
		}
	}
	return out
}

func countValid(col *dataset.Column) int {
	n := 0
	for _, v := range col.Valid {
		if v {
			n++
		}
	}
	return n
}
