package notification

import (
	"context"
	"errors"
	"time"

	"github.com/reminderx/backend/core"
)

var ErrNotFound = errors.New("notification not found")

// Notification is an in-app record of a delivered reminder. One record is
// created per (user, occurrence) regardless of which channels carried it.
type Notification struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	ParticularID    string `json:"particular_id" db:"particular_id"`
	ParticularTitle string `json:"particular_title" db:"particular_title"`
	Message         string `json:"message" db:"message"`
	Read            bool   `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryNotifications returns a user's notifications, newest first.
		QueryNotifications(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
		DeleteNotificationsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, n Notification) (Notification, error)
		Query(ctx context.Context, userID string) ([]Notification, error)
		MarkRead(ctx context.Context, id string) (Notification, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, n Notification) (Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return svc.repo.CreateNotification(ctx, n)
}

func (svc *service) Query(ctx context.Context, userID string) ([]Notification, error) {
	ordering := []core.DBOrdering{{Field: "created_at"}} // newest first
	return svc.repo.QueryNotifications(ctx, userID, ordering)
}

func (svc *service) MarkRead(ctx context.Context, id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	n.Read = true
	return svc.repo.UpdateNotification(ctx, n)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteNotificationsByID(ctx, ids...)
}
