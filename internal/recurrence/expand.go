package recurrence

import "time"

// Expand generates the ordered due instants of a rule within the half-open
// window [windowStart, windowEnd). Each instant falls on a date the rule
// implies and carries start's time-of-day. maxCount > 0 truncates the tail of
// the sequence (a preview bound); maxCount <= 0 means unbounded, in which
// case windowEnd alone limits the output. A rule of kind None expands to
// nothing.
//
// Expand is pure: fixed inputs always produce the same sequence.
func Expand(r Rule, start, windowStart, windowEnd time.Time, maxCount int) []time.Time {
	if r.Kind == None || r.Validate() != nil {
		return nil
	}
	if windowEnd.Before(windowStart) {
		return nil
	}

	var results []time.Time
	var last time.Time

	iter := newIterator(r, start)
	iter.seekTo(windowStart)
	for {
		t := iter.next()
		if t.IsZero() {
			break
		}
		if !t.After(last) && len(results) > 0 {
			continue
		}
		if !t.Before(windowEnd) {
			break
		}
		if t.Before(windowStart) {
			last = t
			continue
		}
		results = append(results, t)
		last = t
		if maxCount > 0 && len(results) >= maxCount {
			break
		}
	}

	return results
}

type iterator struct {
	rule       Rule
	base       time.Time
	current    time.Time
	weekdays   []time.Weekday
	weekdayIdx int
	started    bool
	steps      int
}

// Hard ceiling on iterator advances so a pathological window can't spin
// forever.
const maxIterations = 10000

func newIterator(r Rule, start time.Time) *iterator {
	it := &iterator{rule: r, base: start, current: start}
	if r.Kind == CustomWeekdays {
		it.weekdays = sortedWeekdays(r.Weekdays)
	}
	return it
}

// seekTo jumps the iterator forward by whole cycles so that a window far in
// the future of the start does not burn the step budget walking every
// intermediate instant. Only the fixed-day-stride kinds need it; monthly and
// yearly rules already span centuries within the step ceiling.
func (it *iterator) seekTo(windowStart time.Time) {
	var strideDays int
	switch it.rule.Kind {
	case Daily:
		strideDays = it.rule.Interval
	case Weekly, CustomWeekdays:
		strideDays = 7 * it.rule.Interval
	default:
		return
	}

	for {
		delta := windowStart.Sub(it.current)
		if delta <= 0 {
			return
		}
		// Undershoot by one cycle so instants near the window edge still
		// flow through the normal advance path.
		cycles := int(delta/(24*time.Hour))/strideDays - 1
		if cycles <= 0 {
			return
		}
		jump := cycles * strideDays
		it.base = it.base.AddDate(0, 0, jump)
		it.current = it.current.AddDate(0, 0, jump)
	}
}

func (it *iterator) next() time.Time {
	if it.steps >= maxIterations {
		return time.Time{}
	}
	it.steps++

	switch it.rule.Kind {
	case Daily:
		return it.advanceDaily()
	case Weekly:
		return it.advanceWeekly()
	case CustomWeekdays:
		return it.advanceCustomWeekdays()
	case Monthly:
		return it.advanceMonthly()
	case Yearly:
		return it.advanceYearly()
	}
	return time.Time{}
}

func (it *iterator) advanceDaily() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}
	it.current = it.current.AddDate(0, 0, it.rule.Interval)
	return it.current
}

// advanceWeekly anchors the cycle to the rule's anchor weekday: the first
// occurrence is the first anchor day on or after base, then every
// Interval weeks.
func (it *iterator) advanceWeekly() time.Time {
	if !it.started {
		it.started = true
		offset := (IndexOfWeekday(it.rule.Anchor) - IndexOfWeekday(it.base.Weekday()) + 7) % 7
		it.current = atClockTime(it.base.AddDate(0, 0, offset), it.base)
		return it.current
	}
	it.current = it.current.AddDate(0, 0, 7*it.rule.Interval)
	return it.current
}

func (it *iterator) advanceCustomWeekdays() time.Time {
	if !it.started {
		it.started = true
		it.current = weekStart(it.base)
		it.weekdayIdx = 0
		return it.findNextWeekday()
	}

	it.weekdayIdx++
	if it.weekdayIdx >= len(it.weekdays) {
		it.current = weekStart(it.current.AddDate(0, 0, 7*it.rule.Interval))
		it.weekdayIdx = 0
	}
	return it.findNextWeekday()
}

// findNextWeekday resolves the next listed weekday within the current week,
// skipping days that fall before the rule's base instant.
func (it *iterator) findNextWeekday() time.Time {
	for it.steps < maxIterations {
		for it.weekdayIdx < len(it.weekdays) {
			day := it.weekdays[it.weekdayIdx]
			candidate := atClockTime(
				it.current.AddDate(0, 0, IndexOfWeekday(day)),
				it.base,
			)
			if !candidate.Before(it.base) {
				return candidate
			}
			it.weekdayIdx++
		}
		// Whole week was before base; try the next cycle.
		it.steps++
		it.current = weekStart(it.current.AddDate(0, 0, 7*it.rule.Interval))
		it.weekdayIdx = 0
	}
	return time.Time{}
}

func (it *iterator) advanceMonthly() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}

	// Walk a first-of-month cursor so AddDate never normalizes a short month
	// into the one after it. Months lacking the start's day (e.g. the 31st)
	// are skipped entirely.
	day := it.base.Day()
	cursor := time.Date(it.current.Year(), it.current.Month(), 1, 0, 0, 0, 0, it.base.Location())
	for {
		cursor = cursor.AddDate(0, it.rule.Interval, 0)
		it.steps++
		if it.steps >= maxIterations {
			return time.Time{}
		}
		if day <= daysInMonth(cursor.Year(), cursor.Month()) {
			it.current = time.Date(
				cursor.Year(), cursor.Month(), day,
				it.base.Hour(), it.base.Minute(), it.base.Second(), 0,
				it.base.Location(),
			)
			return it.current
		}
	}
}

func (it *iterator) advanceYearly() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}

	// Feb 29 starts recur only in leap years.
	year := it.current.Year()
	for {
		year += it.rule.Interval
		it.steps++
		if it.steps >= maxIterations {
			return time.Time{}
		}
		if it.base.Day() <= daysInMonth(year, it.base.Month()) {
			it.current = time.Date(
				year, it.base.Month(), it.base.Day(),
				it.base.Hour(), it.base.Minute(), it.base.Second(), 0,
				it.base.Location(),
			)
			return it.current
		}
	}
}

// weekStart returns midnight of the Monday of t's week.
func weekStart(t time.Time) time.Time {
	offset := IndexOfWeekday(t.Weekday())
	monday := t.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// atClockTime returns the date of t with the clock time (and location) of ref.
func atClockTime(t, ref time.Time) time.Time {
	return time.Date(
		t.Year(), t.Month(), t.Day(),
		ref.Hour(), ref.Minute(), ref.Second(), 0,
		ref.Location(),
	)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
