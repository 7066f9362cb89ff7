package recurrence

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"none", None},
		{"daily", Daily},
		{"weekly", Weekly},
		{"custom_weekdays", CustomWeekdays},
		{"monthly", Monthly},
		{"yearly", Yearly},
		{"  Daily ", Daily},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseKindErrors(t *testing.T) {
	for _, input := range []string{"", "hourly", "WEEKLY_MON", "custom"} {
		if _, err := ParseKind(input); err == nil {
			t.Errorf("ParseKind(%q) should error", input)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := []Rule{
		{Kind: None},
		{Kind: Daily, Interval: 1},
		{Kind: Weekly, Interval: 2, Anchor: time.Monday},
		{Kind: CustomWeekdays, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Friday}},
		{Kind: Monthly, Interval: 3},
		{Kind: Yearly, Interval: 1},
	}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", r, err)
		}
	}

	invalid := []Rule{
		{Kind: "hourly", Interval: 1},
		{Kind: Daily, Interval: 0},
		{Kind: Weekly, Interval: -1},
		{Kind: CustomWeekdays, Interval: 1},
		{Kind: CustomWeekdays, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Monday}},
		{Kind: Daily, Interval: 1, Weekdays: []time.Weekday{time.Monday}},
	}
	for _, r := range invalid {
		if err := r.Validate(); err == nil {
			t.Errorf("Validate(%+v) should error", r)
		}
	}
}

func TestWeekdayIndexRoundTrip(t *testing.T) {
	// Client indices run Monday=0 through Sunday=6.
	want := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	for i, wd := range want {
		got, err := WeekdayFromIndex(i)
		if err != nil {
			t.Fatalf("WeekdayFromIndex(%d) error: %v", i, err)
		}
		if got != wd {
			t.Errorf("WeekdayFromIndex(%d) = %v, want %v", i, got, wd)
		}
		if back := IndexOfWeekday(wd); back != i {
			t.Errorf("IndexOfWeekday(%v) = %d, want %d", wd, back, i)
		}
	}

	for _, i := range []int{-1, 7, 100} {
		if _, err := WeekdayFromIndex(i); err == nil {
			t.Errorf("WeekdayFromIndex(%d) should error", i)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		rule Rule
		want string
	}{
		{Rule{Kind: None}, "Does not repeat"},
		{Rule{Kind: Daily, Interval: 1}, "Repeats daily"},
		{Rule{Kind: Daily, Interval: 3}, "Repeats every 3 days"},
		{Rule{Kind: Weekly, Interval: 1, Anchor: time.Monday}, "Repeats weekly on Mon"},
		{Rule{Kind: Weekly, Interval: 2, Anchor: time.Friday}, "Repeats every 2 weeks on Fri"},
		{
			Rule{Kind: CustomWeekdays, Interval: 1, Weekdays: []time.Weekday{time.Friday, time.Monday}},
			"Repeats weekly on Mon, Fri",
		},
		{Rule{Kind: Monthly, Interval: 1}, "Repeats monthly"},
		{Rule{Kind: Yearly, Interval: 2}, "Repeats every 2 years"},
	}

	for _, tt := range tests {
		if got := tt.rule.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}
