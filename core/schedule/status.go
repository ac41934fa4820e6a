// Package schedule is the pure computation layer behind the calendar and
// dashboard views: document status classification and recurring reminder
// expansion. It performs no I/O and holds no state; callers pass "today"
// explicitly so everything stays deterministic under test.
//
// All calendar-day arithmetic is done on UTC-midnight-normalized dates.
// The source data never carries a meaningful time zone and normalizing up
// front keeps occurrences from drifting a day near midnight or across DST.
package schedule

import "time"

type Status string

const (
	StatusExpired      Status = "expired"
	StatusExpiringSoon Status = "expiring soon"
	StatusUpToDate     Status = "up to date"
)

const (
	// ExpiringSoonDays is the classification threshold in days.
	ExpiringSoonDays = 30
	// UrgentDays bounds the dashboard's "expiring within a week" count.
	UrgentDays = 7
)

// DateOf normalizes t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysLeft returns the number of whole calendar days from today until expiry.
// Negative when the expiry day has passed.
func DaysLeft(expiry, today time.Time) int {
	return int(DateOf(expiry).Sub(DateOf(today)).Hours() / 24)
}

// Classify derives a document's status from its expiry date:
// past days are expired, up to 30 days out is expiring soon, beyond that
// the document is up to date.
func Classify(expiry, today time.Time) Status {
	switch d := DaysLeft(expiry, today); {
	case d < 0:
		return StatusExpired
	case d <= ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusUpToDate
	}
}
