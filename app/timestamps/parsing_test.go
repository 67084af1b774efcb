package timestamps

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
		ok    bool
	}{
		{
			name:  "rfc3339",
			input: "2024-03-01T12:30:00Z",
			want:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli(),
			ok:    true,
		},
		{
			name:  "date only",
			input: "2024-03-01",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			ok:    true,
		},
		{
			name:  "space separated",
			input: "2024-03-01 12:30:00",
			want:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli(),
			ok:    true,
		},
		{
			name:  "epoch seconds",
			input: "1709296200",
			want:  1709296200000,
			ok:    true,
		},
		{
			name:  "epoch milliseconds",
			input: "1709296200123",
			want:  1709296200123,
			ok:    true,
		},
		{
			name:  "garbage",
			input: "not a date",
			ok:    false,
		},
		{
			name:  "empty",
			input: "   ",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input, nil)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, ok := Parse("2024-03-01 00:00:00", loc)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, loc).UnixMilli()
	if got != want {
		t.Errorf("Parse in UTC+2 = %d, want %d", got, want)
	}
}

func TestEpochDay(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want int64
	}{
		{name: "epoch", ms: 0, want: 0},
		{name: "noon of day zero", ms: 12 * 60 * 60 * 1000, want: 0},
		{name: "first millisecond of day one", ms: 24 * 60 * 60 * 1000, want: 1},
		{name: "before the epoch", ms: -1, want: -1},
		{name: "a day before the epoch", ms: -24 * 60 * 60 * 1000, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EpochDay(tt.ms); got != tt.want {
				t.Errorf("EpochDay(%d) = %d, want %d", tt.ms, got, tt.want)
			}
		})
	}
}

func TestParseDateTruncates(t *testing.T) {
	day, ok := ParseDate("2024-03-01T23:59:59Z", nil)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	dateOnly, _ := ParseDate("2024-03-01", nil)
	if day != dateOnly {
		t.Errorf("full timestamp day %d != date-only day %d", day, dateOnly)
	}
	if FormatDay(day) != "2024-03-01" {
		t.Errorf("FormatDay = %q, want 2024-03-01", FormatDay(day))
	}
}

func TestDefaultTimeColumn(t *testing.T) {
	tests := []struct {
		name     string
		temporal []string
		want     string
	}{
		{name: "literal time wins", temporal: []string{"created_at", "time", "updated_at"}, want: "time"},
		{name: "case insensitive", temporal: []string{"created_at", "Time"}, want: "Time"},
		{name: "first temporal otherwise", temporal: []string{"created_at", "updated_at"}, want: "created_at"},
		{name: "empty", temporal: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultTimeColumn(tt.temporal); got != tt.want {
				t.Errorf("DefaultTimeColumn(%v) = %q, want %q", tt.temporal, got, tt.want)
			}
		})
	}
}
