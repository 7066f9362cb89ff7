package recurrence

import (
	"testing"
	"time"
)

// mon is a Monday at 18:00 UTC, matching the app's default due time.
var mon = time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)

func TestExpandDailySpacing(t *testing.T) {
	for _, interval := range []int{1, 2, 5} {
		rule := Rule{Kind: Daily, Interval: interval}
		got := Expand(rule, mon, mon, mon.AddDate(0, 0, 30), 0)
		if len(got) == 0 {
			t.Fatalf("interval %d: no occurrences", interval)
		}
		for i, occ := range got {
			if occ.Hour() != 18 || occ.Minute() != 0 {
				t.Errorf("interval %d: occurrence %d at %v, want 18:00", interval, i, occ)
			}
			if i == 0 {
				continue
			}
			if diff := occ.Sub(got[i-1]); diff != time.Duration(interval)*24*time.Hour {
				t.Errorf("interval %d: gap %v between %v and %v", interval, diff, got[i-1], occ)
			}
		}
	}
}

func TestExpandWeeklyTwoWeekHorizon(t *testing.T) {
	// A weekly Monday chore backfilled over 14 days from a Monday morning
	// yields exactly two occurrences, 7 days apart, at the due time.
	rule := Rule{Kind: Weekly, Interval: 1, Anchor: time.Monday}
	now := time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC) // Monday 09:30
	got := Expand(rule, mon, now, now.AddDate(0, 0, 14), 0)

	if len(got) != 2 {
		t.Fatalf("got %d occurrences, want 2: %v", len(got), got)
	}
	if !got[0].Equal(mon) {
		t.Errorf("first occurrence %v, want %v", got[0], mon)
	}
	if diff := got[1].Sub(got[0]); diff != 7*24*time.Hour {
		t.Errorf("gap = %v, want 168h", diff)
	}
}

func TestExpandWeeklyAnchorAfterStart(t *testing.T) {
	// Created on a Wednesday, anchored to Monday: first occurrence is the
	// following Monday at the start's clock time.
	wed := time.Date(2025, 9, 3, 18, 0, 0, 0, time.UTC)
	rule := Rule{Kind: Weekly, Interval: 1, Anchor: time.Monday}
	got := Expand(rule, wed, wed, wed.AddDate(0, 0, 21), 0)

	if len(got) == 0 {
		t.Fatal("no occurrences")
	}
	want := time.Date(2025, 9, 8, 18, 0, 0, 0, time.UTC)
	if !got[0].Equal(want) {
		t.Errorf("first occurrence %v, want %v", got[0], want)
	}
	if got[0].Weekday() != time.Monday {
		t.Errorf("first occurrence on %v, want Monday", got[0].Weekday())
	}
}

func TestExpandCustomWeekdays(t *testing.T) {
	// Mon/Wed/Fri over a 7-day window: exactly those three, in order.
	rule := Rule{
		Kind:     CustomWeekdays,
		Interval: 1,
		Weekdays: []time.Weekday{time.Friday, time.Monday, time.Wednesday},
	}
	got := Expand(rule, mon, mon, mon.AddDate(0, 0, 7), 0)

	if len(got) != 3 {
		t.Fatalf("got %d occurrences, want 3: %v", len(got), got)
	}
	wantDays := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	for i, occ := range got {
		if occ.Weekday() != wantDays[i] {
			t.Errorf("occurrence %d on %v, want %v", i, occ.Weekday(), wantDays[i])
		}
		if occ.Hour() != 18 {
			t.Errorf("occurrence %d at hour %d, want 18", i, occ.Hour())
		}
	}
}

func TestExpandCustomWeekdaysMembership(t *testing.T) {
	rule := Rule{
		Kind:     CustomWeekdays,
		Interval: 2,
		Weekdays: []time.Weekday{time.Tuesday, time.Sunday},
	}
	got := Expand(rule, mon, mon, mon.AddDate(0, 2, 0), 0)
	if len(got) == 0 {
		t.Fatal("no occurrences")
	}
	allowed := map[time.Weekday]bool{time.Tuesday: true, time.Sunday: true}
	for _, occ := range got {
		if !allowed[occ.Weekday()] {
			t.Errorf("occurrence %v on %v, not in weekday set", occ, occ.Weekday())
		}
	}
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Errorf("occurrences out of order: %v then %v", got[i-1], got[i])
		}
	}
}

func TestExpandCustomWeekdaysMidWeekStart(t *testing.T) {
	// Starting Thursday with Mon/Wed/Fri: Mon and Wed of the start week are
	// already past, so the sequence begins that Friday.
	thu := time.Date(2025, 9, 4, 18, 0, 0, 0, time.UTC)
	rule := Rule{
		Kind:     CustomWeekdays,
		Interval: 1,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}
	got := Expand(rule, thu, thu, thu.AddDate(0, 0, 10), 0)

	if len(got) == 0 {
		t.Fatal("no occurrences")
	}
	want := time.Date(2025, 9, 5, 18, 0, 0, 0, time.UTC)
	if !got[0].Equal(want) {
		t.Errorf("first occurrence %v, want %v", got[0], want)
	}
}

func TestExpandMonthlySkipsShortMonths(t *testing.T) {
	// Starting Jan 31: February has no 31st, so the next occurrence is Mar 31.
	jan31 := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	rule := Rule{Kind: Monthly, Interval: 1}
	got := Expand(rule, jan31, jan31, jan31.AddDate(1, 0, 0), 0)

	if len(got) < 2 {
		t.Fatalf("got %d occurrences, want at least 2", len(got))
	}
	want := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	if !got[1].Equal(want) {
		t.Errorf("second occurrence %v, want %v", got[1], want)
	}
	for _, occ := range got {
		if occ.Day() != 31 {
			t.Errorf("occurrence %v not on the 31st", occ)
		}
	}
}

func TestExpandYearlyLeapDay(t *testing.T) {
	feb29 := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	rule := Rule{Kind: Yearly, Interval: 1}
	got := Expand(rule, feb29, feb29, feb29.AddDate(9, 0, 0), 0)

	if len(got) < 2 {
		t.Fatalf("got %d occurrences, want at least 2", len(got))
	}
	// Next Feb 29 after 2024 is 2028.
	want := time.Date(2028, 2, 29, 12, 0, 0, 0, time.UTC)
	if !got[1].Equal(want) {
		t.Errorf("second occurrence %v, want %v", got[1], want)
	}
}

func TestExpandMaxCount(t *testing.T) {
	rule := Rule{Kind: Daily, Interval: 1}
	got := Expand(rule, mon, mon, mon.AddDate(1, 0, 0), 5)
	if len(got) != 5 {
		t.Fatalf("got %d occurrences, want 5", len(got))
	}
	// maxCount truncates the tail; the first five in-window instants survive.
	for i, occ := range got {
		want := mon.AddDate(0, 0, i)
		if !occ.Equal(want) {
			t.Errorf("occurrence %d = %v, want %v", i, occ, want)
		}
	}
}

func TestExpandWindowStartSkipsPast(t *testing.T) {
	rule := Rule{Kind: Daily, Interval: 1}
	windowStart := mon.AddDate(0, 0, 10)
	got := Expand(rule, mon, windowStart, windowStart.AddDate(0, 0, 3), 0)

	if len(got) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(got))
	}
	if got[0].Before(windowStart) {
		t.Errorf("first occurrence %v before window start %v", got[0], windowStart)
	}
}

func TestExpandNone(t *testing.T) {
	if got := Expand(Rule{Kind: None}, mon, mon, mon.AddDate(1, 0, 0), 0); got != nil {
		t.Errorf("none rule expanded to %v, want nil", got)
	}
}

func TestExpandInvalidRule(t *testing.T) {
	bad := Rule{Kind: CustomWeekdays, Interval: 1} // no weekdays
	if got := Expand(bad, mon, mon, mon.AddDate(0, 1, 0), 0); got != nil {
		t.Errorf("invalid rule expanded to %v, want nil", got)
	}
}

func TestExpandEmptyWindow(t *testing.T) {
	rule := Rule{Kind: Daily, Interval: 1}
	if got := Expand(rule, mon, mon, mon, 0); len(got) != 0 {
		t.Errorf("empty window expanded to %v", got)
	}
	if got := Expand(rule, mon, mon.AddDate(0, 0, 1), mon, 0); got != nil {
		t.Errorf("inverted window expanded to %v", got)
	}
}

func TestExpandDeterministic(t *testing.T) {
	rule := Rule{
		Kind:     CustomWeekdays,
		Interval: 2,
		Weekdays: []time.Weekday{time.Monday, time.Saturday},
	}
	a := Expand(rule, mon, mon, mon.AddDate(0, 3, 0), 0)
	b := Expand(rule, mon, mon, mon.AddDate(0, 3, 0), 0)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Errorf("run diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestExpandOldStartReachesWindow(t *testing.T) {
	// Starts decades in the past must still expand into a current window,
	// and land on the same instants as a phase-equal recent start.
	windowEnd := mon.AddDate(0, 0, 30)

	// 14610 days back is exactly 40 years of leap cycle.
	daily := Rule{Kind: Daily, Interval: 1}
	assertSameInstants(t, "daily",
		Expand(daily, mon.AddDate(0, 0, -14610), mon, windowEnd, 0),
		Expand(daily, mon, mon, windowEnd, 0),
	)

	weekly := Rule{Kind: Weekly, Interval: 1, Anchor: time.Monday}
	assertSameInstants(t, "weekly",
		Expand(weekly, mon.AddDate(0, 0, -7*2000), mon, windowEnd, 0),
		Expand(weekly, mon, mon, windowEnd, 0),
	)

	custom := Rule{
		Kind:     CustomWeekdays,
		Interval: 2,
		Weekdays: []time.Weekday{time.Tuesday, time.Friday},
	}
	assertSameInstants(t, "custom",
		Expand(custom, mon.AddDate(0, 0, -14*1000), mon, windowEnd, 0),
		Expand(custom, mon, mon, windowEnd, 0),
	)
}

func assertSameInstants(t *testing.T, label string, got, want []time.Time) {
	t.Helper()
	if len(want) == 0 {
		t.Fatalf("%s: reference expansion is empty", label)
	}
	if len(got) != len(want) {
		t.Fatalf("%s: got %d occurrences, want %d: %v vs %v", label, len(got), len(want), got, want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Errorf("%s: occurrence %d is %v, want %v", label, i, got[i], want[i])
		}
	}
}
