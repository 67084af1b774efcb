package classify

import (
	"fmt"
	"reflect"
	"testing"

	"dataexplorer/app/dataset"
)

func stringColumn(name string, values []string, valid []bool) *dataset.Column {
	if valid == nil {
		valid = make([]bool, len(values))
		for i := range valid {
			valid[i] = true
		}
	}
	return &dataset.Column{Name: name, Kind: dataset.KindString, Strings: values, Valid: valid}
}

func mustTable(t *testing.T, cols ...*dataset.Column) *dataset.Table {
	t.Helper()
	table, err := dataset.New(cols)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestClassifyKinds(t *testing.T) {
	table := mustTable(t,
		&dataset.Column{Name: "n", Kind: dataset.KindNumber, Numbers: []float64{3, 1, 2}, Valid: []bool{true, true, true}},
		&dataset.Column{Name: "ts", Kind: dataset.KindTime, Times: []int64{0, 86400000, 172800000}, Valid: []bool{true, true, true}},
		stringColumn("cat", []string{"a", "b", "a"}, nil),
	)

	_, schema := Classify(table, Options{})

	if got := schema["n"].Class; got != Numeric {
		t.Errorf("n classified %v, want Numeric", got)
	}
	if schema["n"].Min != 1 || schema["n"].Max != 3 {
		t.Errorf("n range [%g, %g], want [1, 3]", schema["n"].Min, schema["n"].Max)
	}
	if got := schema["ts"].Class; got != Temporal {
		t.Errorf("ts classified %v, want Temporal", got)
	}
	if schema["ts"].MinDay != 0 || schema["ts"].MaxDay != 2 {
		t.Errorf("ts day range [%d, %d], want [0, 2]", schema["ts"].MinDay, schema["ts"].MaxDay)
	}
	if got := schema["cat"].Class; got != CategoricalLow {
		t.Errorf("cat classified %v, want CategoricalLow", got)
	}
	if got := schema["cat"].Distinct; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("cat distinct = %v", got)
	}
}

func TestTemporalCoercionThreshold(t *testing.T) {
	// Ten non-missing values; parseable count varies per case. The parsed
	// fraction must strictly exceed 0.8 for the column to turn temporal.
	tests := []struct {
		name     string
		parsed   int
		temporal bool
	}{
		{name: "nine of ten parseable", parsed: 9, temporal: true},
		{name: "exactly eighty percent", parsed: 8, temporal: false},
		{name: "none parseable", parsed: 0, temporal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]string, 10)
			for i := range values {
				if i < tt.parsed {
					values[i] = fmt.Sprintf("2024-03-%02d", i+1)
				} else {
					values[i] = "not a date"
				}
			}
			table := mustTable(t, stringColumn("when", values, nil))

			coerced, schema := Classify(table, Options{})

			wantClass := CategoricalLow
			if tt.temporal {
				wantClass = Temporal
			}
			if got := schema["when"].Class; got != wantClass {
				t.Fatalf("classified %v, want %v", got, wantClass)
			}

			col, _ := coerced.Column("when")
			if tt.temporal {
				if col.Kind != dataset.KindTime {
					t.Errorf("coerced column kind = %v, want time", col.Kind)
				}
				// Unparsable entries degrade to missing, never to an error.
				for i := tt.parsed; i < 10; i++ {
					if col.Valid[i] {
						t.Errorf("row %d should be missing after failed parse", i)
					}
				}
			} else if col.Kind != dataset.KindString {
				t.Errorf("column kind = %v, want string (no coercion)", col.Kind)
			}
		})
	}
}

func TestCoercionIgnoresMissingValues(t *testing.T) {
	// Four non-missing values, all parseable, plus six missing cells. The
	// ratio is computed over non-missing values only, so this coerces.
	values := make([]string, 10)
	valid := make([]bool, 10)
	for i := 0; i < 4; i++ {
		values[i] = fmt.Sprintf("2024-04-0%d", i+1)
		valid[i] = true
	}
	table := mustTable(t, stringColumn("when", values, valid))

	_, schema := Classify(table, Options{})
	if got := schema["when"].Class; got != Temporal {
		t.Errorf("classified %v, want Temporal", got)
	}
}

func TestCardinalityBoundary(t *testing.T) {
	tests := []struct {
		name     string
		distinct int
		want     Class
	}{
		{name: "at the limit", distinct: 100, want: CategoricalLow},
		{name: "over the limit", distinct: 101, want: CategoricalHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]string, tt.distinct)
			for i := range values {
				values[i] = fmt.Sprintf("value-%03d", i)
			}
			table := mustTable(t, stringColumn("c", values, nil))
			_, schema := Classify(table, Options{})
			if got := schema["c"].Class; got != tt.want {
				t.Errorf("classified %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	values := []string{"2024-01-01", "2024-01-02", "junk", "2024-01-04", "2024-01-05"}
	table := mustTable(t, stringColumn("when", values, nil))

	_, first := Classify(table, Options{})
	_, second := Classify(table, Options{})
	if first["when"].Class != second["when"].Class {
		t.Errorf("classification changed between runs: %v then %v", first["when"].Class, second["when"].Class)
	}
}

func TestOpaqueColumns(t *testing.T) {
	table := mustTable(t, &dataset.Column{
		Name:    "blob",
		Kind:    dataset.KindOpaque,
		Strings: []string{"x", "y"},
		Valid:   []bool{true, true},
	})
	_, schema := Classify(table, Options{})
	if got := schema["blob"].Class; got != Opaque {
		t.Errorf("classified %v, want Opaque", got)
	}
}

func TestTemporalColumnsOrder(t *testing.T) {
	table := mustTable(t,
		stringColumn("note", []string{"x"}, nil),
		&dataset.Column{Name: "b_time", Kind: dataset.KindTime, Times: []int64{0}, Valid: []bool{true}},
		&dataset.Column{Name: "a_time", Kind: dataset.KindTime, Times: []int64{0}, Valid: []bool{true}},
	)
	_, schema := Classify(table, Options{})
	got := schema.TemporalColumns(table)
	if !reflect.DeepEqual(got, []string{"b_time", "a_time"}) {
		t.Errorf("TemporalColumns = %v, want table order", got)
	}
}
