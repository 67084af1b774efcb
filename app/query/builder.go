package query

import (
	"fmt"
	"strings"

	"dataexplorer/app/classify"
	"dataexplorer/app/dataset"
	"dataexplorer/app/timestamps"
)

// Build validates raw controls against a classified table and assembles a
// filter specification. Validation fails fast: the first violated rule is
// reported and no partial specification is ever returned.
func Build(t *dataset.Table, schema classify.Schema, controls Controls) (*Spec, error) {
	temporal := schema.TemporalColumns(t)
	if len(temporal) == 0 {
		return nil, ErrNoTemporalColumn
	}

	timeCol := controls.TimeColumn
	if timeCol == "" {
		timeCol = timestamps.DefaultTimeColumn(temporal)
	} else if prof, ok := schema[timeCol]; !ok || prof.Class != classify.Temporal {
		return nil, fmt.Errorf("time column %q is not a temporal column", timeCol)
	}

	if len(controls.Window) != 2 {
		return nil, ErrIncompleteWindow
	}
	window := Window{StartDay: controls.Window[0], EndDay: controls.Window[1]}
	if window.EndDay-window.StartDay > MaxWindowDays {
		return nil, ErrWindowTooLong
	}

	spec := &Spec{TimeColumn: timeCol, Window: window}

	// Per-column dispatch. Each constraint must target an existing column
	// of the matching class; the time column only takes the window.
	for _, name := range t.ColumnNames() {
		if name == timeCol {
			continue
		}
		prof := schema[name]
		switch prof.Class {
		case classify.Numeric:
			if r, ok := controls.Numeric[name]; ok {
				spec.Numeric = append(spec.Numeric, NumericConstraint{
					Column: name,
					Min:    r.Min,
					Max:    r.Max,
					Inert:  r.Min == prof.Min && r.Max == prof.Max,
				})
			}
		case classify.Temporal:
			if r, ok := controls.Dates[name]; ok {
				spec.Dates = append(spec.Dates, DateConstraint{
					Column: name,
					MinDay: r.MinDay,
					MaxDay: r.MaxDay,
					Inert:  r.MinDay == prof.MinDay && r.MaxDay == prof.MaxDay,
				})
			}
		case classify.CategoricalLow:
			if vals, ok := controls.Values[name]; ok {
				allowed := make(map[string]struct{}, len(vals))
				for _, v := range vals {
					allowed[v] = struct{}{}
				}
				spec.Values = append(spec.Values, SetConstraint{Column: name, Allowed: allowed})
			}
		case classify.CategoricalHigh:
			if sub, ok := controls.Substrings[name]; ok {
				spec.Substrings = append(spec.Substrings, SubstringConstraint{Column: name, Needle: sub})
			}
		}
	}

	// Reject controls that name unknown columns or columns of the wrong
	// class for the control shape.
	if err := checkTargets(t, schema, timeCol, controls); err != nil {
		return nil, err
	}

	projection := controls.Projection
	if len(projection) == 0 {
		projection = t.ColumnNames()
	} else {
		for _, name := range projection {
			if _, ok := t.Column(name); !ok {
				return nil, fmt.Errorf("projection references unknown column %q", name)
			}
		}
	}
	spec.Projection = append([]string(nil), projection...)

	return spec, nil
}

func checkTargets(t *dataset.Table, schema classify.Schema, timeCol string, controls Controls) error {
	check := func(name string, want classify.Class, shape string) error {
		prof, ok := schema[name]
		if !ok {
			return fmt.Errorf("%s constraint references unknown column %q", shape, name)
		}
		if name == timeCol {
			return fmt.Errorf("column %q is the time column and only takes the time window", name)
		}
		if prof.Class != want {
			return fmt.Errorf("%s constraint does not match column %q (classified %s)", shape, name, prof.Class)
		}
		return nil
	}
	for name := range controls.Numeric {
		if err := check(name, classify.Numeric, "numeric"); err != nil {
			return err
		}
	}
	for name := range controls.Dates {
		if err := check(name, classify.Temporal, "date-range"); err != nil {
			return err
		}
	}
	for name := range controls.Values {
		if err := check(name, classify.CategoricalLow, "value-set"); err != nil {
			return err
		}
	}
	for name := range controls.Substrings {
		if err := check(name, classify.CategoricalHigh, "substring"); err != nil {
			return err
		}
	}
	return nil
}

// DefaultWindow suggests a window for the schema's time column: the last
// seven days of the observed data, clamped to the dataset's span. Used by
// the presentation layer to prefill the date controls.
func DefaultWindow(prof *classify.Profile) Window {
	end := prof.MaxDay
	start := end - 7
	if start < prof.MinDay {
		start = prof.MinDay
	}
	return Window{StartDay: start, EndDay: end}
}

// Describe renders a one-line human summary of the spec for logging.
func (s *Spec) Describe() string {
	parts := []string{fmt.Sprintf("%s in [%s, %s]", s.TimeColumn,
		timestamps.FormatDay(s.Window.StartDay), timestamps.FormatDay(s.Window.EndDay))}
	active := 0
	for _, c := range s.Numeric {
		if !c.Inert {
			active++
		}
	}
	for _, c := range s.Dates {
		if !c.Inert {
			active++
		}
	}
	for _, c := range s.Values {
		if len(c.Allowed) > 0 {
			active++
		}
	}
	for _, c := range s.Substrings {
		if c.Needle != "" {
			active++
		}
	}
	parts = append(parts, fmt.Sprintf("%d active constraints", active), fmt.Sprintf("%d columns", len(s.Projection)))
	return strings.Join(parts, ", ")
}
