package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/user"
)

// user columns; org_id is nullable in the schema but a plain string in the
// domain model, hence the COALESCE/NULLIF dance.
const userColumns = `id, username, email, phone_number, is_active, role, plan,
	COALESCE(org_id::text, '') AS org_id,
	email_notifications, sms_notifications, push_notifications, whatsapp_notifications,
	profile_picture_url, device_token, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM users WHERE (LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2))`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pqStrArray(ids))
	}

	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var uname, mail string
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if strings.EqualFold(uname, username) {
			return user.ErrUsernameExists
		}
		if strings.EqualFold(mail, email) {
			return user.ErrEmailExists
		}
	}
	return rows.Err()
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, phone_number, is_active, role, plan, org_id,
			email_notifications, sms_notifications, push_notifications, whatsapp_notifications,
			profile_picture_url, device_token, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid,
			$9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		usr.ID, usr.Username, usr.Email, usr.PhoneNumber, usr.IsActive, usr.Role, usr.Plan, usr.OrgID,
		usr.EmailNotifications, usr.SMSNotifications, usr.PushNotifications, usr.WhatsAppNotifications,
		usr.ProfilePictureURL, usr.DeviceToken, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var usr user.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s`, userColumns, where)
	if err := repo.db.GetContext(ctx, &usr, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `LOWER(username) = LOWER($1)`, username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`, username)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users`, userColumns)
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(username ILIKE %s OR email ILIKE %s)", p, p))
		}
		if filter.Role != "" {
			conds = append(conds, "role = "+arg(filter.Role))
		}
		if filter.Plan != "" {
			conds = append(conds, "plan = "+arg(filter.Plan))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if filter.OrgID != "" {
			conds = append(conds, "org_id = "+arg(filter.OrgID)+"::uuid")
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, "created_at DESC")

	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, phone_number = $4, is_active = $5, role = $6, plan = $7,
			org_id = NULLIF($8, '')::uuid,
			email_notifications = $9, sms_notifications = $10, push_notifications = $11,
			whatsapp_notifications = $12, profile_picture_url = $13, device_token = $14,
			password_hash = $15, updated_at = $16, last_login = $17
		WHERE id = $1`,
		usr.ID, usr.Username, usr.Email, usr.PhoneNumber, usr.IsActive, usr.Role, usr.Plan,
		usr.OrgID, usr.EmailNotifications, usr.SMSNotifications, usr.PushNotifications,
		usr.WhatsAppNotifications, usr.ProfilePictureURL, usr.DeviceToken,
		usr.PasswordHash, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, pqStrArray(ids))
	return errors.Wrap(err, "deleting users")
}

type otpRepository struct {
	db *sqlx.DB
}

func NewOTPRepository(db *sqlx.DB) user.OTPRepository {
	return &otpRepository{db: db}
}

func (repo *otpRepository) CreateOTP(ctx context.Context, otp user.OTP) (user.OTP, error) {
	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO otps (id, email, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		otp.ID, otp.Email, otp.Code, otp.ExpiresAt, otp.CreatedAt,
	)
	if err != nil {
		return user.OTP{}, errors.Wrap(err, "creating OTP")
	}
	return otp, nil
}

func (repo *otpRepository) LatestOTP(ctx context.Context, email string) (user.OTP, error) {
	var otp user.OTP
	err := repo.db.GetContext(ctx, &otp, `
		SELECT id, email, code, expires_at, created_at FROM otps
		WHERE email = $1 ORDER BY created_at DESC LIMIT 1`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.OTP{}, user.ErrOTPInvalid
		}
		return user.OTP{}, errors.Wrap(err, "getting latest OTP")
	}
	return otp, nil
}

func (repo *otpRepository) CountActiveOTPs(ctx context.Context, email string, now time.Time) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM otps WHERE email = $1 AND expires_at > $2`, email, now)
	return count, errors.Wrap(err, "counting active OTPs")
}

func (repo *otpRepository) DeleteOTPs(ctx context.Context, email string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM otps WHERE email = $1`, email)
	return errors.Wrap(err, "deleting OTPs")
}
