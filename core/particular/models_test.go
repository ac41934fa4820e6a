package particular

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reminderx/backend/core/schedule"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParticularStatus(t *testing.T) {
	today := day(2026, time.June, 15)

	tests := []struct {
		name   string
		expiry time.Time
		want   schedule.Status
	}{
		{name: "expired yesterday", expiry: day(2026, time.June, 14), want: schedule.StatusExpired},
		{name: "expires today", expiry: today, want: schedule.StatusExpiringSoon},
		{name: "expires in 30 days", expiry: day(2026, time.July, 15), want: schedule.StatusExpiringSoon},
		{name: "expires in 31 days", expiry: day(2026, time.July, 16), want: schedule.StatusUpToDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Particular{Title: "Passport", ExpiryDate: tt.expiry}
			assert.Equal(t, tt.want, p.Status(today))
		})
	}
}

func TestParticularOwnedBy(t *testing.T) {
	p := Particular{OwnerID: "u1", Owners: []string{"u2", "u3"}}

	assert.True(t, p.OwnedBy("u1"))
	assert.True(t, p.OwnedBy("u3"))
	assert.False(t, p.OwnedBy("u4"))
}

func TestReminderHasMethod(t *testing.T) {
	r := Reminder{Methods: []Method{MethodEmail, MethodWhatsApp}}

	assert.True(t, r.HasMethod(MethodEmail))
	assert.True(t, r.HasMethod(MethodWhatsApp))
	assert.False(t, r.HasMethod(MethodSMS))
}

func TestBuildEvents(t *testing.T) {
	expiry := day(2026, time.June, 20)
	anchor := day(2026, time.June, 1)

	t.Run("expiry only", func(t *testing.T) {
		events := BuildEvents([]Particular{{ID: "p1", Title: "Passport", ExpiryDate: expiry}})

		assert.Len(t, events, 1)
		assert.Equal(t, "Passport (Expires)", events[0].Title)
		assert.Equal(t, schedule.EventExpiry, events[0].Kind)
		assert.Equal(t, expiry, events[0].Date)
	})

	t.Run("with recurring reminder", func(t *testing.T) {
		p := Particular{
			ID:         "p1",
			Title:      "Passport",
			ExpiryDate: expiry,
			Reminders: []Reminder{{
				ID:              "r1",
				ParticularID:    "p1",
				ScheduledAt:     anchor,
				Recurrence:      schedule.RecurrenceDaily,
				StartDaysBefore: 3,
			}},
		}
		events := BuildEvents([]Particular{p})

		// expiry + anchor + the window days strictly before expiry
		assert.Len(t, events, 4)
		assert.Equal(t, schedule.EventExpiry, events[0].Kind)
		assert.Equal(t, anchor, events[1].Date)
		assert.Equal(t, day(2026, time.June, 18), events[2].Date)
		assert.Equal(t, day(2026, time.June, 19), events[3].Date)
		for _, evt := range events[1:] {
			assert.Equal(t, schedule.EventReminder, evt.Kind)
			assert.Equal(t, "Reminder for Passport", evt.Title)
			assert.Equal(t, "r1", evt.SourceID)
		}
	})

	t.Run("multiple particulars", func(t *testing.T) {
		events := BuildEvents([]Particular{
			{ID: "p1", Title: "Passport", ExpiryDate: expiry},
			{ID: "p2", Title: "Visa", ExpiryDate: day(2026, time.July, 1)},
		})
		assert.Len(t, events, 2)
	})
}
