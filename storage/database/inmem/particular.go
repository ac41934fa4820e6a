package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/particular"
)

type particularRepository struct {
	db *particularTable
}

func NewParticularRepository(db *DB) particular.Repository {
	return &particularRepository{db: db.particular}
}

// withRelations copies p and attaches its delegated owners and reminders.
// Callers must hold at least a read lock.
func (repo *particularRepository) withRelations(p particular.Particular) particular.Particular {
	for userID := range repo.db.owners[p.ID] {
		p.Owners = append(p.Owners, userID)
	}
	sort.Strings(p.Owners)

	for _, r := range repo.db.reminders {
		if r.ParticularID == p.ID {
			p.Reminders = append(p.Reminders, *r)
		}
	}
	sort.Slice(p.Reminders, func(i, j int) bool {
		return p.Reminders[i].ScheduledAt.Before(p.Reminders[j].ScheduledAt)
	})
	return p
}

func (repo *particularRepository) CreateParticular(ctx context.Context, p particular.Particular) (particular.Particular, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *particularRepository) GetParticularByID(ctx context.Context, id string) (particular.Particular, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return repo.withRelations(*p), nil
	}
	return particular.Particular{}, particular.ErrNotFound
}

func (repo *particularRepository) QueryParticulars(ctx context.Context, filter *particular.QueryFilter, ordering []core.DBOrdering) ([]particular.Particular, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matched := make([]particular.Particular, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if filter != nil {
			if filter.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.OwnerID != "" && p.OwnerID != filter.OwnerID && !repo.db.owners[p.ID][filter.OwnerID] {
				continue
			}
			if filter.OrgID != "" && p.OrgID != filter.OrgID {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.Completed != nil && p.Completed != *filter.Completed {
				continue
			}
		}
		matched = append(matched, repo.withRelations(*p))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ExpiryDate.Before(matched[j].ExpiryDate) })
	return matched, nil
}

func (repo *particularRepository) UpdateParticular(ctx context.Context, p particular.Particular) (particular.Particular, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return particular.Particular{}, particular.ErrNotFound
	}
	stored := p
	stored.Owners = nil
	stored.Reminders = nil
	repo.db.table[p.ID] = &stored
	return p, nil
}

func (repo *particularRepository) DeleteParticularsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.db.owners, id)
		for rid, r := range repo.db.reminders {
			if r.ParticularID == id {
				delete(repo.db.reminders, rid)
			}
		}
	}
	return nil
}

func (repo *particularRepository) AddParticularOwner(ctx context.Context, particularID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[particularID]; !ok {
		return particular.ErrNotFound
	}
	if repo.db.owners[particularID] == nil {
		repo.db.owners[particularID] = make(map[string]bool)
	}
	repo.db.owners[particularID][userID] = true
	return nil
}

func (repo *particularRepository) RemoveParticularOwner(ctx context.Context, particularID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.owners[particularID], userID)
	return nil
}

func (repo *particularRepository) CreateReminder(ctx context.Context, r particular.Reminder) (particular.Reminder, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	repo.db.reminders[r.ID] = &r
	return r, nil
}

func (repo *particularRepository) GetReminderByID(ctx context.Context, id string) (particular.Reminder, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.reminders[id]; ok {
		return *r, nil
	}
	return particular.Reminder{}, particular.ErrReminderNotFound
}

func (repo *particularRepository) UpdateReminder(ctx context.Context, r particular.Reminder) (particular.Reminder, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.reminders[r.ID]; !ok {
		return particular.Reminder{}, particular.ErrReminderNotFound
	}
	repo.db.reminders[r.ID] = &r
	return r, nil
}

func (repo *particularRepository) DeleteRemindersByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.reminders, id)
	}
	return nil
}
