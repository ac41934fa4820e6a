package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, ordering []core.DBOrdering) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifications := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.UserID == userID {
			notifications = append(notifications, *n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[n.ID]; !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) DeleteNotificationsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
