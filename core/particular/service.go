package particular

import (
	"context"
	"errors"
	"time"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/schedule"
)

var (
	// errors
	ErrNotFound         = errors.New("particular not found")
	ErrReminderNotFound = errors.New("reminder not found")
)

type (
	Repository interface {
		CreateParticular(ctx context.Context, p Particular) (Particular, error)
		// GetParticularByID loads the particular with its reminders and
		// delegated owners.
		GetParticularByID(ctx context.Context, id string) (Particular, error)
		// QueryParticulars applies AND operation on available QueryFilter
		// fields; Search does a case-insensitive match on Title.
		// OwnerID matches the creator or any delegated owner.
		QueryParticulars(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Particular, error)
		UpdateParticular(ctx context.Context, p Particular) (Particular, error)
		DeleteParticularsByID(ctx context.Context, ids ...string) error

		AddParticularOwner(ctx context.Context, particularID, userID string) error
		RemoveParticularOwner(ctx context.Context, particularID, userID string) error

		CreateReminder(ctx context.Context, r Reminder) (Reminder, error)
		GetReminderByID(ctx context.Context, id string) (Reminder, error)
		UpdateReminder(ctx context.Context, r Reminder) (Reminder, error)
		DeleteRemindersByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, ownerID, orgID string, np NewParticular) (Particular, error)
		BulkCreate(ctx context.Context, ownerID, orgID string, nps []NewParticular) ([]Particular, error)
		GetByID(ctx context.Context, id string) (Particular, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Particular, error)
		Search(ctx context.Context, ownerID, q string) ([]Particular, error)
		Update(ctx context.Context, id string, up UpdateParticular) (Particular, error)
		Delete(ctx context.Context, ids ...string) error

		AddOwner(ctx context.Context, particularID, userID string) error
		RemoveOwner(ctx context.Context, particularID, userID string) error

		CreateReminder(ctx context.Context, nr NewReminder) (Reminder, error)
		GetReminderByID(ctx context.Context, id string) (Reminder, error)
		UpdateReminder(ctx context.Context, id string, ur UpdateReminder) (Reminder, error)
		DeleteReminder(ctx context.Context, id string) error

		// Events expands all matching particulars into calendar events.
		Events(ctx context.Context, filter *QueryFilter) ([]schedule.Event, error)
		// Summary aggregates document statuses for the dashboard.
		Summary(ctx context.Context, filter *QueryFilter, today time.Time) (schedule.Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ownerID, orgID string, np NewParticular) (Particular, error) {
	now := time.Now().UTC()
	p := Particular{
		OwnerID:     ownerID,
		OrgID:       orgID,
		Title:       np.Title,
		Category:    np.Category,
		ExpiryDate:  np.ExpiryDate.UTC(),
		Notes:       np.Notes,
		DocumentURL: np.DocumentURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateParticular(ctx, p)
}

func (svc *service) BulkCreate(ctx context.Context, ownerID, orgID string, nps []NewParticular) ([]Particular, error) {
	created := make([]Particular, 0, len(nps))
	for _, np := range nps {
		p, err := svc.Create(ctx, ownerID, orgID, np)
		if err != nil {
			return created, err
		}
		created = append(created, p)
	}
	return created, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Particular, error) {
	return svc.repo.GetParticularByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Particular, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryParticulars(ctx, filter, ordering)
}

func (svc *service) Search(ctx context.Context, ownerID, q string) ([]Particular, error) {
	return svc.Query(ctx, &QueryFilter{OwnerID: ownerID, Search: q}, nil)
}

func (svc *service) Update(ctx context.Context, id string, up UpdateParticular) (Particular, error) {
	p, err := svc.repo.GetParticularByID(ctx, id)
	if err != nil {
		return Particular{}, err
	}

	if up.Title != "" {
		p.Title = up.Title
	}
	if up.Category != "" {
		p.Category = up.Category
	}
	if up.ExpiryDate != nil {
		p.ExpiryDate = up.ExpiryDate.UTC()
	}
	if up.Notes != nil {
		p.Notes = *up.Notes
	}
	if up.DocumentURL != "" {
		p.DocumentURL = up.DocumentURL
	}
	if up.Completed != nil {
		p.Completed = *up.Completed
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateParticular(ctx, p)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteParticularsByID(ctx, ids...)
}

func (svc *service) AddOwner(ctx context.Context, particularID, userID string) error {
	return svc.repo.AddParticularOwner(ctx, particularID, userID)
}

func (svc *service) RemoveOwner(ctx context.Context, particularID, userID string) error {
	return svc.repo.RemoveParticularOwner(ctx, particularID, userID)
}

func (svc *service) CreateReminder(ctx context.Context, nr NewReminder) (Reminder, error) {
	// reject reminders on unknown particulars
	if _, err := svc.repo.GetParticularByID(ctx, nr.ParticularID); err != nil {
		return Reminder{}, err
	}

	now := time.Now().UTC()
	r := Reminder{
		ParticularID:    nr.ParticularID,
		ScheduledAt:     nr.ScheduledAt.UTC(),
		Methods:         nr.Methods,
		Recurrence:      nr.Recurrence,
		StartDaysBefore: nr.StartDaysBefore,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateReminder(ctx, r)
}

func (svc *service) GetReminderByID(ctx context.Context, id string) (Reminder, error) {
	return svc.repo.GetReminderByID(ctx, id)
}

func (svc *service) UpdateReminder(ctx context.Context, id string, ur UpdateReminder) (Reminder, error) {
	r, err := svc.repo.GetReminderByID(ctx, id)
	if err != nil {
		return Reminder{}, err
	}

	if ur.ScheduledAt != nil {
		r.ScheduledAt = ur.ScheduledAt.UTC()
	}
	if ur.Methods != nil {
		r.Methods = ur.Methods
	}
	if ur.Recurrence != "" {
		r.Recurrence = ur.Recurrence
	}
	if ur.StartDaysBefore != 0 {
		r.StartDaysBefore = ur.StartDaysBefore
	}
	r.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateReminder(ctx, r)
}

func (svc *service) DeleteReminder(ctx context.Context, id string) error {
	return svc.repo.DeleteRemindersByID(ctx, id)
}

func (svc *service) Events(ctx context.Context, filter *QueryFilter) ([]schedule.Event, error) {
	particulars, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return nil, err
	}
	return BuildEvents(particulars), nil
}

func (svc *service) Summary(ctx context.Context, filter *QueryFilter, today time.Time) (schedule.Summary, error) {
	particulars, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return schedule.Summary{}, err
	}
	expiries := make([]time.Time, 0, len(particulars))
	for _, p := range particulars {
		expiries = append(expiries, p.ExpiryDate)
	}
	return schedule.Summarize(expiries, today), nil
}
