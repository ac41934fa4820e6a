package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/notification"
)

const notificationColumns = `id, user_id, particular_id, particular_title, message, read, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, particular_id, particular_title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.ParticularID, n.ParticularTitle, n.Message, n.Read, n.CreatedAt,
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, ordering []core.DBOrdering) ([]notification.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE user_id = $1`, notificationColumns)
	query += orderBy(ordering, "created_at DESC")

	notifications := make([]notification.Notification, 0)
	if err := repo.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifications, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)
	if err := repo.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return n, nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE notifications SET message = $2, read = $3 WHERE id = $1`, n.ID, n.Message, n.Read)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return n, nil
}

func (repo *notificationRepository) DeleteNotificationsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ANY($1)`, pqStrArray(ids))
	return errors.Wrap(err, "deleting notifications")
}
