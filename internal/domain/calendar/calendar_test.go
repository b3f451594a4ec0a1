package calendar

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		today   string
		offset  int
		want    string
		weekday time.Weekday
		weeks   int
	}{
		{"same day", "2025-01-14", 0, "2025-01-14", time.Tuesday, 0},
		{"same week", "2025-01-13", 4, "2025-01-17", time.Friday, 0},
		{"sunday stays in week", "2025-01-13", 6, "2025-01-19", time.Sunday, 0},
		{"next monday", "2025-01-19", 1, "2025-01-20", time.Monday, 1},
		{"month boundary", "2025-01-30", 4, "2025-02-03", time.Monday, 1},
		{"two weeks", "2025-03-05", 14, "2025-03-19", time.Wednesday, 2},
		{"year boundary same iso week", "2024-12-30", 5, "2025-01-04", time.Saturday, 0},
		{"year boundary crossing monday", "2024-12-28", 3, "2024-12-31", time.Tuesday, 1},
		{"iso week 53 wrap", "2020-12-31", 7, "2021-01-07", time.Thursday, 1},
		{"leap day", "2024-02-27", 3, "2024-03-01", time.Friday, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(day(tt.today), tt.offset)
			if !got.Date.Equal(day(tt.want)) {
				t.Fatalf("date = %s, want %s", got.Date.Format("2006-01-02"), tt.want)
			}
			if got.Weekday != tt.weekday {
				t.Errorf("weekday = %s, want %s", got.Weekday, tt.weekday)
			}
			if got.WeekAdvances != tt.weeks {
				t.Errorf("week advances = %d, want %d", got.WeekAdvances, tt.weeks)
			}
		})
	}
}

// Subtracting ISO week numbers gives 1-52 = -51 here; the booking page
// still needs exactly one "next week" click.
func TestResolveDoesNotSubtractISOWeeks(t *testing.T) {
	today := day("2024-12-28")
	target := Resolve(today, 3)

	_, todayWeek := today.ISOWeek()
	_, targetWeek := target.Date.ISOWeek()
	if naive := targetWeek - todayWeek; naive >= 0 {
		t.Fatalf("fixture no longer exercises the wrap: naive = %d", naive)
	}
	if target.WeekAdvances != 1 {
		t.Fatalf("week advances = %d, want 1", target.WeekAdvances)
	}
}

func TestResolveOffsetProperty(t *testing.T) {
	starts := []string{"2023-01-01", "2024-02-28", "2024-12-25", "2025-06-15", "2026-10-15"}
	for _, s := range starts {
		today := day(s)
		prevWeeks := 0
		for n := 0; n <= 400; n++ {
			got := Resolve(today, n)
			if want := today.AddDate(0, 0, n); !got.Date.Equal(want) {
				t.Fatalf("%s+%d: date = %s, want %s", s, n, got.Date, want)
			}
			if got.Weekday != got.Date.Weekday() {
				t.Fatalf("%s+%d: weekday mismatch", s, n)
			}
			if got.WeekAdvances < prevWeeks {
				t.Fatalf("%s+%d: week advances decreased %d -> %d", s, n, prevWeeks, got.WeekAdvances)
			}
			if got.WeekAdvances > n/7+1 {
				t.Fatalf("%s+%d: week advances %d too large", s, n, got.WeekAdvances)
			}
			prevWeeks = got.WeekAdvances
		}
	}
}

func TestResolveIgnoresClockAndLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	late := time.Date(2025, 3, 29, 23, 59, 59, 0, loc)
	got := Resolve(late, 1)
	if got.Date.Format("2006-01-02") != "2025-03-30" {
		t.Fatalf("date = %s", got.Date)
	}
	if got.FormatDate() != "Sunday, 30/03/2025" {
		t.Fatalf("FormatDate = %q", got.FormatDate())
	}
}
