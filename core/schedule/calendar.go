package schedule

import (
	"sort"
	"time"
)

type EventKind string

const (
	EventExpiry   EventKind = "expiry"
	EventReminder EventKind = "reminder"
)

// Event is a computed calendar occurrence. Events are derived fresh on
// every request from Particular/Reminder data and never persisted.
type Event struct {
	SourceID   string     `json:"source_id"`
	Title      string     `json:"title"`
	Date       time.Time  `json:"date"`
	Kind       EventKind  `json:"kind"`
	Recurrence Recurrence `json:"recurrence,omitempty"`
}

// DayKeyFormat keys day buckets in calendar views.
const DayKeyFormat = "2006-01-02"

// GroupByDay buckets events by calendar day; every event lands in exactly
// one bucket.
func GroupByDay(events []Event) map[string][]Event {
	buckets := make(map[string][]Event)
	for _, evt := range events {
		key := DateOf(evt.Date).Format(DayKeyFormat)
		buckets[key] = append(buckets[key], evt)
	}
	return buckets
}

// SortChronological orders events by date, then title for a stable list view.
func SortChronological(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].Title < events[j].Title
		}
		return events[i].Date.Before(events[j].Date)
	})
}

// Summary aggregates classifier output for the dashboard.
type Summary struct {
	Total           int `json:"total"`
	Expired         int `json:"expired"`
	ExpiringSoon    int `json:"expiring_soon"`
	UpToDate        int `json:"up_to_date"`
	ExpiringWithin7 int `json:"expiring_within_7"`
}

// Summarize counts statuses over a set of expiry dates. ExpiringWithin7 is
// a filter over the same classifier output, not a separate rule.
func Summarize(expiries []time.Time, today time.Time) Summary {
	s := Summary{Total: len(expiries)}
	for _, expiry := range expiries {
		switch Classify(expiry, today) {
		case StatusExpired:
			s.Expired++
		case StatusExpiringSoon:
			s.ExpiringSoon++
			if DaysLeft(expiry, today) <= UrgentDays {
				s.ExpiringWithin7++
			}
		default:
			s.UpToDate++
		}
	}
	return s
}
