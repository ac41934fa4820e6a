// Package inmemdb provides in-memory repositories for tests.
package inmemdb

import (
	"sync"

	"github.com/reminderx/backend/core/notification"
	"github.com/reminderx/backend/core/org"
	"github.com/reminderx/backend/core/particular"
	"github.com/reminderx/backend/core/user"
)

type (
	DB struct {
		user         *userTable
		otp          *otpTable
		particular   *particularTable
		org          *orgTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	otpTable struct {
		sync.RWMutex
		table map[string]*user.OTP
	}

	particularTable struct {
		sync.RWMutex
		table     map[string]*particular.Particular
		reminders map[string]*particular.Reminder
		// owners maps particular ID to delegated owner user IDs
		owners map[string]map[string]bool
	}

	orgTable struct {
		sync.RWMutex
		table   map[string]*org.Organization
		invites map[string]*org.Invite
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		otp:  &otpTable{table: make(map[string]*user.OTP)},
		particular: &particularTable{
			table:     make(map[string]*particular.Particular),
			reminders: make(map[string]*particular.Reminder),
			owners:    make(map[string]map[string]bool),
		},
		org: &orgTable{
			table:   make(map[string]*org.Organization),
			invites: make(map[string]*org.Invite),
		},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
	return db, nil
}
