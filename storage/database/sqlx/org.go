package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core/org"
)

type orgRepository struct {
	db *sqlx.DB
}

func NewOrgRepository(db *sqlx.DB) org.Repository {
	return &orgRepository{db: db}
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO organizations (id, organizational_id, name, icon_url, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.OrganizationalID, o.Name, o.IconURL, o.AdminID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "creating organization")
	}
	return o, nil
}

func (repo *orgRepository) GetOrganizationByID(ctx context.Context, id string) (org.Organization, error) {
	var o org.Organization
	err := repo.db.GetContext(ctx, &o, `
		SELECT id, organizational_id, name, icon_url, admin_id, created_at, updated_at
		FROM organizations WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return org.Organization{}, org.ErrNotFound
		}
		return org.Organization{}, errors.Wrap(err, "getting organization")
	}
	return o, nil
}

func (repo *orgRepository) UpdateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE organizations SET name = $2, icon_url = $3, updated_at = $4 WHERE id = $1`,
		o.ID, o.Name, o.IconURL, o.UpdatedAt,
	)
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "updating organization")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return org.Organization{}, org.ErrNotFound
	}
	return o, nil
}

func (repo *orgRepository) CreateInvite(ctx context.Context, inv org.Invite) (org.Invite, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO org_invites (id, org_id, email, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, inv.OrgID, inv.Email, inv.Token, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return org.Invite{}, errors.Wrap(err, "creating invite")
	}
	return inv, nil
}

func (repo *orgRepository) GetInviteByToken(ctx context.Context, token string) (org.Invite, error) {
	var inv org.Invite
	err := repo.db.GetContext(ctx, &inv, `
		SELECT id, org_id, email, token, expires_at, created_at
		FROM org_invites WHERE token = $1`, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return org.Invite{}, org.ErrInviteInvalid
		}
		return org.Invite{}, errors.Wrap(err, "getting invite")
	}
	return inv, nil
}

func (repo *orgRepository) DeleteInvitesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM org_invites WHERE id = ANY($1)`, pqStrArray(ids))
	return errors.Wrap(err, "deleting invites")
}
