package dataset

import (
	"reflect"
	"testing"
)

func numberCol(name string, values ...float64) *Column {
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	return &Column{Name: name, Kind: KindNumber, Numbers: values, Valid: valid}
}

func stringCol(name string, values ...string) *Column {
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = values[i] != ""
	}
	return &Column{Name: name, Kind: KindString, Strings: values, Valid: valid}
}

func TestNewRejectsMisalignedColumns(t *testing.T) {
	_, err := New([]*Column{
		numberCol("a", 1, 2, 3),
		numberCol("b", 1, 2),
	})
	if err == nil {
		t.Fatal("expected error for misaligned columns")
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New([]*Column{
		numberCol("a", 1),
		numberCol("a", 2),
	})
	if err == nil {
		t.Fatal("expected error for duplicate column names")
	}
}

func TestSelectPreservesRowAlignment(t *testing.T) {
	table, err := New([]*Column{
		numberCol("id", 1, 2, 3, 4),
		stringCol("label", "a", "b", "c", "d"),
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := table.Select([]bool{true, false, true, false})
	if err != nil {
		t.Fatal(err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", out.NumRows())
	}
	if got := out.Row(0); !reflect.DeepEqual(got, []string{"1", "a"}) {
		t.Errorf("row 0 = %v", got)
	}
	if got := out.Row(1); !reflect.DeepEqual(got, []string{"3", "c"}) {
		t.Errorf("row 1 = %v", got)
	}

	// The source table must be untouched.
	if table.NumRows() != 4 {
		t.Errorf("source table mutated: %d rows", table.NumRows())
	}
}

func TestSelectRejectsWrongMaskLength(t *testing.T) {
	table, _ := New([]*Column{numberCol("id", 1, 2)})
	if _, err := table.Select([]bool{true}); err == nil {
		t.Fatal("expected error for short mask")
	}
}

func TestProjectOrdersColumns(t *testing.T) {
	table, err := New([]*Column{
		numberCol("a", 1),
		numberCol("b", 2),
		numberCol("c", 3),
	})
	if err != nil {
		t.Fatal(err)
	}

	out, err := table.Project([]string{"c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.ColumnNames(); !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Errorf("projected columns = %v", got)
	}

	if _, err := table.Project([]string{"missing"}); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestSliceSharesRows(t *testing.T) {
	table, _ := New([]*Column{numberCol("id", 1, 2, 3, 4, 5)})
	out, err := table.Slice(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if out.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3", out.NumRows())
	}
	if got := out.Row(0)[0]; got != "2" {
		t.Errorf("first sliced row = %q, want 2", got)
	}

	if _, err := table.Slice(3, 2); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestCellStringMissing(t *testing.T) {
	col := &Column{Name: "x", Kind: KindNumber, Numbers: []float64{1.5, 0}, Valid: []bool{true, false}}
	if got := col.CellString(0); got != "1.5" {
		t.Errorf("CellString(0) = %q", got)
	}
	if got := col.CellString(1); got != "" {
		t.Errorf("CellString(1) = %q, want empty for missing", got)
	}
}
