// Package aggregate computes the grouped summary table behind the chart
// view. It is independent of filtering: it runs over whichever table the
// caller hands it and never feeds back into the predicate engine.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"dataexplorer/app/dataset"
)

// Func is the aggregation applied to the value column within each group.
type Func int

const (
	Sum Func = iota
	Mean
	Count
	Min
	Max
)

// String returns the string representation of Func
func (f Func) String() string {
	switch f {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case Count:
		return "count"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// ParseFunc resolves an aggregation name. Unknown names report an error.
func ParseFunc(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	case "count":
		return Count, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	default:
		return 0, fmt.Errorf("unknown aggregation %q", name)
	}
}

type group struct {
	keys  []string
	sum   float64
	count int
	min   float64
	max   float64
}

// Apply groups the table by the named columns and aggregates the numeric
// value column within each group. Rows with a missing value cell are
// skipped for every aggregation except Count, which counts rows with a
// present value (matching the usual count-non-missing semantics). The
// result has one row per group, ordered by group key.
func Apply(t *dataset.Table, groupBy []string, valueColumn string, fn Func) (*dataset.Table, error) {
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("at least one group column is required")
	}
	groupCols := make([]*dataset.Column, len(groupBy))
	for i, name := range groupBy {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("unknown group column %q", name)
		}
		groupCols[i] = col
	}
	valueCol, ok := t.Column(valueColumn)
	if !ok {
		return nil, fmt.Errorf("unknown value column %q", valueColumn)
	}
	if valueCol.Kind != dataset.KindNumber {
		return nil, fmt.Errorf("value column %q is not numeric", valueColumn)
	}

	groups := make(map[string]*group)
	for ri := 0; ri < t.NumRows(); ri++ {
		if !valueCol.Valid[ri] {
			continue
		}
		keys := make([]string, len(groupCols))
		for i, col := range groupCols {
			keys[i] = col.CellString(ri)
		}
		id := strings.Join(keys, "\x1f")
		g, ok := groups[id]
		if !ok {
			g = &group{keys: keys}
			groups[id] = g
		}
		v := valueCol.Numbers[ri]
		if g.count == 0 || v < g.min {
			g.min = v
		}
		if g.count == 0 || v > g.max {
			g.max = v
		}
		g.sum += v
		g.count++
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cols := make([]*dataset.Column, 0, len(groupBy)+1)
	for i, name := range groupBy {
		strs := make([]string, len(ids))
		valid := make([]bool, len(ids))
		for gi, id := range ids {
			strs[gi] = groups[id].keys[i]
			valid[gi] = true
		}
		cols = append(cols, &dataset.Column{Name: name, Kind: dataset.KindString, Strings: strs, Valid: valid})
	}

	values := make([]float64, len(ids))
	valid := make([]bool, len(ids))
	for gi, id := range ids {
		g := groups[id]
		valid[gi] = true
		switch fn {
		case Sum:
			values[gi] = g.sum
		case Mean:
			values[gi] = g.sum / float64(g.count)
		case Count:
			values[gi] = float64(g.count)
		case Min:
			values[gi] = g.min
		case Max:
			values[gi] = g.max
		}
	}
	cols = append(cols, &dataset.Column{Name: valueColumn, Kind: dataset.KindNumber, Numbers: values, Valid: valid})

	return dataset.New(cols)
}
