package query

import (
	"fmt"
	"strings"

	"dataexplorer/app/dataset"
	"dataexplorer/app/timestamps"
)

// Apply filters a table with a validated specification and projects the
// surviving columns. It is a pure function: the input table is unchanged
// and constraints compose conjunctively, so application order cannot
// change the result. The mandatory time window runs first as it is
// typically the most selective.
func Apply(t *dataset.Table, spec *Spec) (*dataset.Table, error) {
	mask, err := timeWindowMask(t, spec)
	if err != nil {
		return nil, err
	}

	for _, c := range spec.Numeric {
		if c.Inert {
			continue
		}
		col, ok := t.Column(c.Column)
		if !ok || col.Kind != dataset.KindNumber {
			return nil, fmt.Errorf("numeric constraint targets missing column %q", c.Column)
		}
		for i := range mask {
			if mask[i] && !(col.Valid[i] && col.Numbers[i] >= c.Min && col.Numbers[i] <= c.Max) {
				mask[i] = false
			}
		}
	}

	for _, c := range spec.Dates {
		if c.Inert {
			continue
		}
		col, ok := t.Column(c.Column)
		if !ok || col.Kind != dataset.KindTime {
			return nil, fmt.Errorf("date constraint targets missing column %q", c.Column)
		}
		for i := range mask {
			if !mask[i] {
				continue
			}
			if !col.Valid[i] {
				mask[i] = false
				continue
			}
			day := timestamps.EpochDay(col.Times[i])
			if day < c.MinDay || day > c.MaxDay {
				mask[i] = false
			}
		}
	}

	for _, c := range spec.Values {
		if len(c.Allowed) == 0 {
			continue
		}
		col, ok := t.Column(c.Column)
		if !ok {
			return nil, fmt.Errorf("value-set constraint targets missing column %q", c.Column)
		}
		for i := range mask {
			if !mask[i] {
				continue
			}
			if !col.Valid[i] {
				// Missing values are never members of the allowed set.
				mask[i] = false
				continue
			}
			if _, member := c.Allowed[col.CellString(i)]; !member {
				mask[i] = false
			}
		}
	}

	for _, c := range spec.Substrings {
		if c.Needle == "" {
			continue
		}
		needle := strings.ToLower(c.Needle)
		col, ok := t.Column(c.Column)
		if !ok {
			return nil, fmt.Errorf("substring constraint targets missing column %q", c.Column)
		}
		for i := range mask {
			if !mask[i] {
				continue
			}
			if !col.Valid[i] {
				// Missing values never match a substring.
				mask[i] = false
				continue
			}
			if !strings.Contains(strings.ToLower(col.CellString(i)), needle) {
				mask[i] = false
			}
		}
	}

	filtered, err := t.Select(mask)
	if err != nil {
		return nil, err
	}
	return filtered.Project(spec.Projection)
}

func timeWindowMask(t *dataset.Table, spec *Spec) ([]bool, error) {
	col, ok := t.Column(spec.TimeColumn)
	if !ok || col.Kind != dataset.KindTime {
		return nil, fmt.Errorf("time column %q is not present as a temporal column", spec.TimeColumn)
	}
	mask := make([]bool, t.NumRows())
	for i := range mask {
		if !col.Valid[i] {
			continue
		}
		day := timestamps.EpochDay(col.Times[i])
		mask[i] = day >= spec.Window.StartDay && day <= spec.Window.EndDay
	}
	return mask, nil
}
