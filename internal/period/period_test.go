package period

import (
	"testing"
	"time"

	"fincontrol/internal/apperr"
)

func TestParseAliases(t *testing.T) {
	cases := []struct {
		in   string
		want Period
	}{
		{"", Monthly},
		{"daily", Daily},
		{"DIARIO", Daily},
		{"weekly", Weekly},
		{"semanal", Weekly},
		{"monthly", Monthly},
		{"mensal", Monthly},
		{"yearly", Yearly},
		{"anual", Yearly},
		{" MONTHLY ", Monthly},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse("quarterly")
	if err == nil {
		t.Fatal("expected error for quarterly")
	}
	if apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveStartMonthly(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, Reference)
	start, err := ResolveStart(Monthly, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, Reference)
	if !start.Equal(want) {
		t.Fatalf("monthly start = %v, want %v", start, want)
	}
}

func TestResolveStartDailyConvertsZone(t *testing.T) {
	// 01:30 UTC on March 16 is still March 15 in the reference zone.
	now := time.Date(2024, time.March, 16, 1, 30, 0, 0, time.UTC)
	start, err := ResolveStart(Daily, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, Reference)
	if !start.Equal(want) {
		t.Fatalf("daily start = %v, want %v", start, want)
	}
}

func TestResolveStartYearly(t *testing.T) {
	now := time.Date(2024, time.August, 20, 18, 45, 0, 0, Reference)
	start, err := ResolveStart(Yearly, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, Reference)
	if !start.Equal(want) {
		t.Fatalf("yearly start = %v, want %v", start, want)
	}
}

func TestRollingWeekStartKeepsClock(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, Reference)
	start := RollingWeekStart(now)
	want := time.Date(2024, time.March, 8, 10, 30, 0, 0, Reference)
	if !start.Equal(want) {
		t.Fatalf("rolling week start = %v, want %v", start, want)
	}
}

func TestCalendarWeekBounds(t *testing.T) {
	// 2024-03-15 is a Friday.
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, Reference)
	start, end := CalendarWeekBounds(now)

	wantStart := time.Date(2024, time.March, 11, 0, 0, 0, 0, Reference)
	wantEnd := time.Date(2024, time.March, 17, 23, 59, 59, 0, Reference)
	if !start.Equal(wantStart) {
		t.Fatalf("week start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Fatalf("week end = %v, want %v", end, wantEnd)
	}
}

func TestCalendarWeekBoundsOnSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	now := time.Date(2024, time.March, 17, 23, 0, 0, 0, Reference)
	start, _ := CalendarWeekBounds(now)
	want := time.Date(2024, time.March, 11, 0, 0, 0, 0, Reference)
	if !start.Equal(want) {
		t.Fatalf("week start = %v, want %v", start, want)
	}
}

func TestLabelPT(t *testing.T) {
	if Daily.LabelPT() != "hoje" || Weekly.LabelPT() != "últimos 7 dias" ||
		Monthly.LabelPT() != "este mês" || Yearly.LabelPT() != "este ano" {
		t.Fatal("unexpected period label")
	}
}
