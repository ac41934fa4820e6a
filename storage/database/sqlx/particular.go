package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/particular"
)

const particularColumns = `id, owner_id, COALESCE(org_id::text, '') AS org_id, title, category,
	expiry_date, notes, document_url, completed, created_at, updated_at`

type particularRepository struct {
	db *sqlx.DB
}

func NewParticularRepository(db *sqlx.DB) particular.Repository {
	return &particularRepository{db: db}
}

func (repo *particularRepository) CreateParticular(ctx context.Context, p particular.Particular) (particular.Particular, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO particulars (id, owner_id, org_id, title, category, expiry_date,
			notes, document_url, completed, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.OwnerID, p.OrgID, p.Title, p.Category, p.ExpiryDate,
		p.Notes, p.DocumentURL, p.Completed, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return particular.Particular{}, errors.Wrap(err, "creating particular")
	}
	return p, nil
}

func (repo *particularRepository) GetParticularByID(ctx context.Context, id string) (particular.Particular, error) {
	var p particular.Particular
	query := fmt.Sprintf(`SELECT %s FROM particulars WHERE id = $1`, particularColumns)
	if err := repo.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return particular.Particular{}, particular.ErrNotFound
		}
		return particular.Particular{}, errors.Wrap(err, "getting particular")
	}

	ps := []particular.Particular{p}
	if err := repo.loadRelations(ctx, ps); err != nil {
		return particular.Particular{}, err
	}
	return ps[0], nil
}

func (repo *particularRepository) QueryParticulars(ctx context.Context, filter *particular.QueryFilter, ordering []core.DBOrdering) ([]particular.Particular, error) {
	query := fmt.Sprintf(`SELECT %s FROM particulars`, particularColumns)
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, "title ILIKE "+arg("%"+filter.Search+"%"))
		}
		if filter.OwnerID != "" {
			p := arg(filter.OwnerID)
			conds = append(conds, fmt.Sprintf(
				"(owner_id = %s::uuid OR id IN (SELECT particular_id FROM particular_owners WHERE user_id = %s::uuid))", p, p))
		}
		if filter.OrgID != "" {
			conds = append(conds, "org_id = "+arg(filter.OrgID)+"::uuid")
		}
		if filter.Category != "" {
			conds = append(conds, "category = "+arg(filter.Category))
		}
		if filter.Completed != nil {
			conds = append(conds, "completed = "+arg(*filter.Completed))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, "expiry_date ASC")

	particulars := make([]particular.Particular, 0)
	if err := repo.db.SelectContext(ctx, &particulars, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying particulars")
	}
	if err := repo.loadRelations(ctx, particulars); err != nil {
		return nil, err
	}
	return particulars, nil
}

// loadRelations attaches delegated owners and reminders to each particular.
func (repo *particularRepository) loadRelations(ctx context.Context, particulars []particular.Particular) error {
	if len(particulars) == 0 {
		return nil
	}
	ids := make([]string, 0, len(particulars))
	index := make(map[string]*particular.Particular, len(particulars))
	for i := range particulars {
		ids = append(ids, particulars[i].ID)
		index[particulars[i].ID] = &particulars[i]
	}

	// owners
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT particular_id, user_id FROM particular_owners WHERE particular_id = ANY($1)`, pqStrArray(ids))
	if err != nil {
		return errors.Wrap(err, "loading particular owners")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var particularID, userID string
		if err = rows.Scan(&particularID, &userID); err != nil {
			return errors.Wrap(err, "loading particular owners")
		}
		p := index[particularID]
		p.Owners = append(p.Owners, userID)
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "loading particular owners")
	}

	// reminders
	rrows, err := repo.db.QueryxContext(ctx, `
		SELECT id, particular_id, scheduled_at, methods, recurrence, start_days_before, created_at, updated_at
		FROM reminders WHERE particular_id = ANY($1) ORDER BY scheduled_at ASC`, pqStrArray(ids))
	if err != nil {
		return errors.Wrap(err, "loading reminders")
	}
	defer func() { _ = rrows.Close() }()
	for rrows.Next() {
		r, err := scanReminder(rrows)
		if err != nil {
			return err
		}
		p := index[r.ParticularID]
		p.Reminders = append(p.Reminders, r)
	}
	return errors.Wrap(rrows.Err(), "loading reminders")
}

func (repo *particularRepository) UpdateParticular(ctx context.Context, p particular.Particular) (particular.Particular, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE particulars
		SET title = $2, category = $3, expiry_date = $4, notes = $5,
			document_url = $6, completed = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.Title, p.Category, p.ExpiryDate, p.Notes, p.DocumentURL, p.Completed, p.UpdatedAt,
	)
	if err != nil {
		return particular.Particular{}, errors.Wrap(err, "updating particular")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return particular.Particular{}, particular.ErrNotFound
	}
	return p, nil
}

func (repo *particularRepository) DeleteParticularsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM particulars WHERE id = ANY($1)`, pqStrArray(ids))
	return errors.Wrap(err, "deleting particulars")
}

func (repo *particularRepository) AddParticularOwner(ctx context.Context, particularID, userID string) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO particular_owners (particular_id, user_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, particularID, userID)
	return errors.Wrap(err, "adding particular owner")
}

func (repo *particularRepository) RemoveParticularOwner(ctx context.Context, particularID, userID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM particular_owners WHERE particular_id = $1 AND user_id = $2`, particularID, userID)
	return errors.Wrap(err, "removing particular owner")
}

func (repo *particularRepository) CreateReminder(ctx context.Context, r particular.Reminder) (particular.Reminder, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO reminders (id, particular_id, scheduled_at, methods, recurrence, start_days_before, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.ParticularID, r.ScheduledAt, methodsArray(r.Methods), r.Recurrence, r.StartDaysBefore, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return particular.Reminder{}, errors.Wrap(err, "creating reminder")
	}
	return r, nil
}

func (repo *particularRepository) GetReminderByID(ctx context.Context, id string) (particular.Reminder, error) {
	row := repo.db.QueryRowxContext(ctx, `
		SELECT id, particular_id, scheduled_at, methods, recurrence, start_days_before, created_at, updated_at
		FROM reminders WHERE id = $1`, id)
	r, err := scanReminder(row)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return particular.Reminder{}, particular.ErrReminderNotFound
		}
		return particular.Reminder{}, err
	}
	return r, nil
}

func (repo *particularRepository) UpdateReminder(ctx context.Context, r particular.Reminder) (particular.Reminder, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE reminders
		SET scheduled_at = $2, methods = $3, recurrence = $4, start_days_before = $5, updated_at = $6
		WHERE id = $1`,
		r.ID, r.ScheduledAt, methodsArray(r.Methods), r.Recurrence, r.StartDaysBefore, r.UpdatedAt,
	)
	if err != nil {
		return particular.Reminder{}, errors.Wrap(err, "updating reminder")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return particular.Reminder{}, particular.ErrReminderNotFound
	}
	return r, nil
}

func (repo *particularRepository) DeleteRemindersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ANY($1)`, pqStrArray(ids))
	return errors.Wrap(err, "deleting reminders")
}

func methodsArray(methods []particular.Method) pq.StringArray {
	arr := make(pq.StringArray, 0, len(methods))
	for _, m := range methods {
		arr = append(arr, string(m))
	}
	return arr
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReminder(row rowScanner) (particular.Reminder, error) {
	var r particular.Reminder
	var methods pq.StringArray
	err := row.Scan(&r.ID, &r.ParticularID, &r.ScheduledAt, &methods,
		&r.Recurrence, &r.StartDaysBefore, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return particular.Reminder{}, errors.Wrap(err, "scanning reminder")
	}
	r.Methods = make([]particular.Method, 0, len(methods))
	for _, m := range methods {
		r.Methods = append(r.Methods, particular.Method(m))
	}
	return r, nil
}
