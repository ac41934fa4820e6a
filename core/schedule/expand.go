package schedule

import "time"

type Recurrence string

const (
	RecurrenceNone       Recurrence = "none"
	RecurrenceDaily      Recurrence = "daily"
	RecurrenceEvery2Days Recurrence = "every_2_days"
)

var Recurrences = []Recurrence{RecurrenceNone, RecurrenceDaily, RecurrenceEvery2Days}

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceEvery2Days:
		return true
	}
	return false
}

// step returns the cursor increment in days; 0 means no recurrence.
func (r Recurrence) step() int {
	switch r {
	case RecurrenceDaily:
		return 1
	case RecurrenceEvery2Days:
		return 2
	}
	return 0
}

const (
	MinStartDaysBefore = 1
	MaxStartDaysBefore = 7
)

// Rule is the recurrence schedule attached to a reminder.
type Rule struct {
	// ScheduledAt is the user-chosen anchor notification instant. It is
	// always the first occurrence, even when it falls outside the
	// recurrence window.
	ScheduledAt time.Time
	Recurrence  Recurrence
	// StartDaysBefore anchors the recurrence window relative to the expiry
	// date. Forms enforce [1,7]; Expand clamps out-of-range values anyway.
	StartDaysBefore int
}

func clampStartDays(n int) int {
	if n < MinStartDaysBefore {
		return MinStartDaysBefore
	}
	if n > MaxStartDaysBefore {
		return MaxStartDaysBefore
	}
	return n
}

// Expand materializes the full ordered occurrence sequence for a rule:
// the anchor first, then recurring occurrences stepped from
// expiry − StartDaysBefore, each emitted only while strictly before the
// expiry day. The expiry day itself never fires as a recurrence.
//
// The cursor advances by a strictly positive step on every iteration, so
// the loop runs at most StartDaysBefore times.
func Expand(rule Rule, expiry time.Time) []time.Time {
	occurrences := []time.Time{rule.ScheduledAt}

	step := rule.Recurrence.step()
	if step == 0 {
		return occurrences
	}

	end := DateOf(expiry)
	cursor := end.AddDate(0, 0, -clampStartDays(rule.StartDaysBefore))
	for cursor.Before(end) {
		cursor = cursor.AddDate(0, 0, step)
		if cursor.Before(end) {
			occurrences = append(occurrences, cursor)
		}
	}
	return occurrences
}

// OccursOn reports whether any occurrence of rule falls on the same
// calendar day as `day`. Used by the notification dispatcher.
func OccursOn(rule Rule, expiry, day time.Time) bool {
	d := DateOf(day)
	for _, occ := range Expand(rule, expiry) {
		if DateOf(occ).Equal(d) {
			return true
		}
	}
	return false
}
