package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"dataexplorer/app/classify"
	"dataexplorer/app/export"
	"dataexplorer/app/query"
	"dataexplorer/app/settings"
	"dataexplorer/app/timestamps"
)

func testManager() *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(settings.Defaults(), logger)
}

func eventCSV() []byte {
	return []byte("time,amount,status\n" +
		"2024-03-01,10,ok\n" +
		"2024-03-02,20,error\n" +
		"2024-03-03,30,ok\n" +
		"2024-03-10,40,warn\n")
}

func openSession(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Open(context.Background(), "events.csv", eventCSV())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func epochDay(t *testing.T, date string) int64 {
	t.Helper()
	d, ok := timestamps.ParseDate(date, nil)
	if !ok {
		t.Fatalf("bad test date %q", date)
	}
	return d
}

func TestOpenClassifiesUpload(t *testing.T) {
	m := testManager()
	s := openSession(t, m)

	if s.ID == "" || s.Hash == "" {
		t.Error("session missing ID or content hash")
	}
	if s.Table.NumRows() != 4 {
		t.Errorf("rows = %d, want 4", s.Table.NumRows())
	}
	if prof := s.Schema["time"]; prof == nil || prof.Class != classify.Temporal {
		t.Errorf("time column profile = %+v, want temporal", prof)
	}
	if prof := s.Schema["amount"]; prof == nil || prof.Class != classify.Numeric {
		t.Errorf("amount column profile = %+v, want numeric", prof)
	}
	if prof := s.Schema["status"]; prof == nil || prof.Class != classify.CategoricalLow {
		t.Errorf("status column profile = %+v, want categorical", prof)
	}
}

func TestOpenHashIsContentBased(t *testing.T) {
	m := testManager()
	a := openSession(t, m)
	b := openSession(t, m)
	if a.ID == b.ID {
		t.Error("sessions must have distinct IDs")
	}
	if a.Hash != b.Hash {
		t.Error("identical uploads must hash identically")
	}
}

func TestGetAndClose(t *testing.T) {
	m := testManager()
	s := openSession(t, m)

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}

	m.Close(s.ID)
	if _, err := m.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}

func TestApplyFilterAndExport(t *testing.T) {
	m := testManager()
	s := openSession(t, m)

	filtered, err := m.ApplyFilter(s, query.Controls{
		Window: []int64{epochDay(t, "2024-03-01"), epochDay(t, "2024-03-03")},
		Values: map[string][]string{"status": {"ok"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if filtered.NumRows() != 2 {
		t.Errorf("filtered rows = %d, want 2", filtered.NumRows())
	}

	artifact, err := m.Export(s, export.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if artifact.Name != "filtered.csv" {
		t.Errorf("artifact = %q", artifact.Name)
	}
}

func TestExportWithoutFilter(t *testing.T) {
	m := testManager()
	s := openSession(t, m)

	if _, err := m.Export(s, export.FormatCSV); !errors.Is(err, ErrNoFilterApplied) {
		t.Errorf("got %v, want ErrNoFilterApplied", err)
	}
}

func TestApplyFilterRejectsLongWindow(t *testing.T) {
	m := testManager()
	s := openSession(t, m)

	_, err := m.ApplyFilter(s, query.Controls{
		Window: []int64{epochDay(t, "2024-03-01"), epochDay(t, "2024-04-01")},
	})
	if !errors.Is(err, query.ErrWindowTooLong) {
		t.Errorf("got %v, want ErrWindowTooLong", err)
	}

	// A rejected submission leaves the session unfiltered.
	if _, _, ok := s.Filtered(); ok {
		t.Error("failed filter must not touch session state")
	}
}

func TestApplyFilterCachesResults(t *testing.T) {
	m := testManager()
	s := openSession(t, m)
	controls := query.Controls{
		Window: []int64{epochDay(t, "2024-03-01"), epochDay(t, "2024-03-03")},
	}

	first, err := m.ApplyFilter(s, controls)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.ApplyFilter(s, controls)
	if err != nil {
		t.Fatal(err)
	}
	// Deterministic filtering plus content hashing means the second
	// submission is served from the cache: same table value, same rows.
	if first.NumRows() != second.NumRows() {
		t.Errorf("rows differ across identical submissions: %d vs %d",
			first.NumRows(), second.NumRows())
	}
	if first != second {
		t.Error("identical submissions should share the cached table")
	}
}
