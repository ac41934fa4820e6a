package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/schedule"
	"github.com/reminderx/backend/core/user"
)

type fakeRepo struct {
	notifications []Notification
}

func (r *fakeRepo) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	r.notifications = append(r.notifications, n)
	return n, nil
}
func (r *fakeRepo) QueryNotifications(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Notification, error) {
	var res []Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	return res, nil
}
func (r *fakeRepo) GetNotificationByID(ctx context.Context, id string) (Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return Notification{}, ErrNotFound
}
func (r *fakeRepo) UpdateNotification(ctx context.Context, n Notification) (Notification, error) {
	for i, existing := range r.notifications {
		if existing.ID == n.ID {
			r.notifications[i] = n
			return n, nil
		}
	}
	return Notification{}, ErrNotFound
}
func (r *fakeRepo) DeleteNotificationsByID(ctx context.Context, ids ...string) error { return nil }

type fakeParticularSource struct {
	particulars []particular.Particular
}

func (s *fakeParticularSource) Query(ctx context.Context, filter *particular.QueryFilter, ordering []core.DBOrdering) ([]particular.Particular, error) {
	return s.particulars, nil
}

type fakeUserSource struct {
	users map[string]user.User
}

func (s *fakeUserSource) GetByID(ctx context.Context, id string) (user.User, error) {
	usr, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

type fakeMailer struct {
	messages []*core.EmailMessage
}

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

type fakeSMS struct {
	sms      []string
	whatsapp []string
}

func (s *fakeSMS) SendSMS(ctx context.Context, phoneNumber, body string) error {
	s.sms = append(s.sms, phoneNumber)
	return nil
}
func (s *fakeSMS) SendWhatsApp(ctx context.Context, phoneNumber, body string) error {
	s.whatsapp = append(s.whatsapp, phoneNumber)
	return nil
}

type fakePush struct {
	tokens []string
}

func (p *fakePush) SendPush(ctx context.Context, deviceToken, title, body string) error {
	p.tokens = append(p.tokens, deviceToken)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestDispatcherRun(t *testing.T) {
	ctx := context.Background()

	owner := user.User{
		ID:                 "owner",
		Username:           "alice",
		Email:              "alice@test.com",
		PhoneNumber:        "+15550100",
		DeviceToken:        "device-token-1",
		EmailNotifications: true,
		SMSNotifications:   false, // opted out
		PushNotifications:  true,
	}
	staff := user.User{
		ID:                    "staff",
		Username:              "bob",
		Email:                 "bob@test.com",
		PhoneNumber:           "+15550101",
		EmailNotifications:    true,
		SMSNotifications:      true,
		WhatsAppNotifications: true,
	}

	expiry := date(2025, 6, 20)
	particulars := []particular.Particular{
		{
			ID:         "p1",
			OwnerID:    owner.ID,
			Title:      "Passport",
			ExpiryDate: expiry,
			Owners:     []string{staff.ID},
			Reminders: []particular.Reminder{{
				ID:              "r1",
				ParticularID:    "p1",
				ScheduledAt:     date(2025, 6, 10),
				Methods:         []particular.Method{particular.MethodEmail, particular.MethodSMS, particular.MethodWhatsApp, particular.MethodPush},
				Recurrence:      schedule.RecurrenceDaily,
				StartDaysBefore: 5,
			}},
		},
		{
			ID:         "p2",
			OwnerID:    owner.ID,
			Title:      "Old insurance",
			ExpiryDate: expiry,
			Completed:  true, // must be skipped
			Reminders: []particular.Reminder{{
				ID:           "r2",
				ParticularID: "p2",
				ScheduledAt:  date(2025, 6, 17),
				Methods:      []particular.Method{particular.MethodEmail},
			}},
		},
	}

	repo := &fakeRepo{}
	mailer := &fakeMailer{}
	sms := &fakeSMS{}
	push := &fakePush{}
	d := NewDispatcher(
		NewService(repo),
		&fakeParticularSource{particulars: particulars},
		&fakeUserSource{users: map[string]user.User{owner.ID: owner, staff.ID: staff}},
		mailer, sms, push, nopLogger{},
	)

	// June 17 is inside r1's daily window (expiry minus 5 days, stepped).
	day := date(2025, 6, 17)
	require.NoError(t, d.Run(ctx, day))

	// one in-app record per recipient
	require.Len(t, repo.notifications, 2)
	for _, n := range repo.notifications {
		assert.Equal(t, "p1", n.ParticularID)
		assert.Equal(t, "Passport", n.ParticularTitle)
		assert.Contains(t, n.Message, "expires in 3 days")
	}

	// both recipients get email, only bob opted into SMS and WhatsApp,
	// only alice has a device token
	assert.Len(t, mailer.messages, 2)
	assert.Equal(t, []string{staff.PhoneNumber}, sms.sms)
	assert.Equal(t, []string{staff.PhoneNumber}, sms.whatsapp)
	assert.Equal(t, []string{owner.DeviceToken}, push.tokens)
}

func TestDispatcherRunNothingDue(t *testing.T) {
	particulars := []particular.Particular{{
		ID:         "p1",
		OwnerID:    "owner",
		Title:      "Visa",
		ExpiryDate: date(2025, 6, 20),
		Reminders: []particular.Reminder{{
			ID:          "r1",
			ScheduledAt: date(2025, 6, 1),
			Methods:     []particular.Method{particular.MethodEmail},
		}},
	}}

	repo := &fakeRepo{}
	mailer := &fakeMailer{}
	d := NewDispatcher(
		NewService(repo),
		&fakeParticularSource{particulars: particulars},
		&fakeUserSource{},
		mailer, &fakeSMS{}, &fakePush{}, nopLogger{},
	)

	require.NoError(t, d.Run(context.Background(), date(2025, 6, 2)))
	assert.Empty(t, repo.notifications)
	assert.Empty(t, mailer.messages)
}

func TestReminderMessage(t *testing.T) {
	p := particular.Particular{Title: "Passport", ExpiryDate: date(2025, 6, 20)}

	tests := []struct {
		name string
		day  time.Time
		want string
	}{
		{"upcoming", date(2025, 6, 10), "Passport expires in 10 days, on Jun 20, 2025."},
		{"tomorrow", date(2025, 6, 19), "Passport expires tomorrow."},
		{"today", date(2025, 6, 20), "Passport expires today."},
		{"past", date(2025, 6, 25), "Passport expired on Jun 20, 2025."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reminderMessage(p, tt.day))
		})
	}
}
