package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/reminderx/backend/core/org"
)

type orgRepository struct {
	db *orgTable
}

func NewOrgRepository(db *DB) org.Repository {
	return &orgRepository{db: db.org}
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) GetOrganizationByID(ctx context.Context, id string) (org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.table[id]; ok {
		return *o, nil
	}
	return org.Organization{}, org.ErrNotFound
}

func (repo *orgRepository) UpdateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[o.ID]; !ok {
		return org.Organization{}, org.ErrNotFound
	}
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) CreateInvite(ctx context.Context, inv org.Invite) (org.Invite, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	repo.db.invites[inv.ID] = &inv
	return inv, nil
}

func (repo *orgRepository) GetInviteByToken(ctx context.Context, token string) (org.Invite, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, inv := range repo.db.invites {
		if inv.Token == token {
			return *inv, nil
		}
	}
	return org.Invite{}, org.ErrInviteInvalid
}

func (repo *orgRepository) DeleteInvitesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.invites, id)
	}
	return nil
}
