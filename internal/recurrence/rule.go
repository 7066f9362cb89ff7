package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Kind string

const (
	None           Kind = "none"
	Daily          Kind = "daily"
	Weekly         Kind = "weekly"
	CustomWeekdays Kind = "custom_weekdays"
	Monthly        Kind = "monthly"
	Yearly         Kind = "yearly"
)

var kinds = map[Kind]bool{
	None:           true,
	Daily:          true,
	Weekly:         true,
	CustomWeekdays: true,
	Monthly:        true,
	Yearly:         true,
}

// ParseKind validates a recurrence kind string as stored in the database and
// sent by clients.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !kinds[k] {
		return "", fmt.Errorf("unknown recurrence kind: %q", s)
	}
	return k, nil
}

// Rule describes how a chore repeats. Only the fields relevant to Kind are
// set: Weekdays iff Kind is CustomWeekdays, Anchor only for Weekly. Validate
// enforces this so a stored rule can't smuggle stray fields past the expander.
type Rule struct {
	Kind     Kind
	Interval int            // every N days/weeks/months/years, >= 1
	Weekdays []time.Weekday // CustomWeekdays: which days repeat
	Anchor   time.Weekday   // Weekly: weekday the cycle lands on
}

func (r Rule) Validate() error {
	if !kinds[r.Kind] {
		return fmt.Errorf("unknown recurrence kind: %q", r.Kind)
	}
	if r.Kind == None {
		return nil
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", r.Interval)
	}
	if r.Kind == CustomWeekdays {
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("custom_weekdays requires at least one weekday")
		}
		seen := map[time.Weekday]bool{}
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("invalid weekday: %d", d)
			}
			if seen[d] {
				return fmt.Errorf("duplicate weekday: %v", d)
			}
			seen[d] = true
		}
	} else if len(r.Weekdays) > 0 {
		return fmt.Errorf("weekdays only allowed for custom_weekdays, not %q", r.Kind)
	}
	return nil
}

// WeekdayFromIndex maps the client-facing weekday index (0 = Monday through
// 6 = Sunday) to time.Weekday.
func WeekdayFromIndex(i int) (time.Weekday, error) {
	if i < 0 || i > 6 {
		return 0, fmt.Errorf("weekday index out of range: %d", i)
	}
	if i == 6 {
		return time.Sunday, nil
	}
	return time.Weekday(i + 1), nil
}

// IndexOfWeekday is the inverse of WeekdayFromIndex.
func IndexOfWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

// sortedWeekdays returns the rule's weekdays in Monday-first week order so
// expansion emits instants in ascending time within each week.
func sortedWeekdays(days []time.Weekday) []time.Weekday {
	out := make([]time.Weekday, len(days))
	copy(out, days)
	sort.Slice(out, func(i, j int) bool {
		return IndexOfWeekday(out[i]) < IndexOfWeekday(out[j])
	})
	return out
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r.Kind {
	case None:
		return "Does not repeat"
	case Daily:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d days", r.Interval)
		}
		return "Repeats daily"
	case Weekly:
		prefix := "Repeats weekly"
		if r.Interval > 1 {
			prefix = fmt.Sprintf("Repeats every %d weeks", r.Interval)
		}
		return prefix + " on " + r.Anchor.String()[:3]
	case CustomWeekdays:
		var names []string
		for _, d := range sortedWeekdays(r.Weekdays) {
			names = append(names, d.String()[:3])
		}
		prefix := "Repeats weekly"
		if r.Interval > 1 {
			prefix = fmt.Sprintf("Repeats every %d weeks", r.Interval)
		}
		return prefix + " on " + strings.Join(names, ", ")
	case Monthly:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d months", r.Interval)
		}
		return "Repeats monthly"
	case Yearly:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d years", r.Interval)
		}
		return "Repeats yearly"
	}
	return ""
}
