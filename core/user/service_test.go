package user

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reminderx/backend/core"
)

type fakeUserRepo struct {
	users map[string]User // keyed by ID
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{users: make(map[string]User)} }

func (r *fakeUserRepo) CreateUser(ctx context.Context, usr User) (User, error) {
	if usr.ID == "" {
		usr.ID = usr.Username
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (User, error) {
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (User, error) {
	for _, usr := range r.users {
		if usr.Username == username {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	for _, usr := range r.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeUserRepo) GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	for _, usr := range r.users {
		if usr.Username == uname || usr.Email == uname {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeUserRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error {
	for _, usr := range r.users {
		excluded := false
		for _, ex := range excludedUsers {
			if ex.ID == usr.ID {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		if username != "" && strings.EqualFold(usr.Username, username) {
			return ErrUsernameExists
		}
		if email != "" && strings.EqualFold(usr.Email, email) {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeUserRepo) QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	users := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		users = append(users, usr)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, usr User) (User, error) {
	if _, ok := r.users[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeUserRepo) DeleteUsersByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

type fakeOTPRepo struct {
	otps []OTP
}

func (r *fakeOTPRepo) CreateOTP(ctx context.Context, otp OTP) (OTP, error) {
	otp.ID = otp.Email + otp.Code
	r.otps = append(r.otps, otp)
	return otp, nil
}

func (r *fakeOTPRepo) LatestOTP(ctx context.Context, email string) (OTP, error) {
	var latest OTP
	found := false
	for _, otp := range r.otps {
		if otp.Email == email && (!found || otp.CreatedAt.After(latest.CreatedAt)) {
			latest = otp
			found = true
		}
	}
	if !found {
		return OTP{}, ErrOTPInvalid
	}
	return latest, nil
}

func (r *fakeOTPRepo) CountActiveOTPs(ctx context.Context, email string, now time.Time) (int, error) {
	count := 0
	for _, otp := range r.otps {
		if otp.Email == email && !otp.Expired(now) {
			count++
		}
	}
	return count, nil
}

func (r *fakeOTPRepo) DeleteOTPs(ctx context.Context, email string) error {
	kept := r.otps[:0]
	for _, otp := range r.otps {
		if otp.Email != email {
			kept = append(kept, otp)
		}
	}
	r.otps = kept
	return nil
}

type fakeMailer struct {
	sent []*core.EmailMessage
}

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:                  true,
		AppName:                   "ReminderX",
		SecretKey:                 []byte("test-secret"),
		PasswordResetTimeoutDelta: time.Hour,
		OTPTimeout:                10 * time.Minute,
		OTPResendCooldown:         time.Minute,
		OTPMaxPending:             3,
	}
}

func newTestService() (Service, *fakeUserRepo, *fakeOTPRepo, *fakeMailer) {
	repo := newFakeUserRepo()
	otpRepo := &fakeOTPRepo{}
	mailer := &fakeMailer{}
	return NewServiceMock(repo, otpRepo, mailer, testConfig()), repo, otpRepo, mailer
}

var codeRx = regexp.MustCompile(`\b(\d{6})\b`)

func sentCode(t *testing.T, mailer *fakeMailer) string {
	t.Helper()
	require.NotEmpty(t, mailer.sent, "no mail was sent")
	m := codeRx.FindStringSubmatch(mailer.sent[len(mailer.sent)-1].BodyStr)
	require.NotNil(t, m, "no OTP found in mail body")
	return m[1]
}

func Test_service_Register(t *testing.T) {
	svc, _, otpRepo, mailer := newTestService()
	ctx := context.Background()

	usr, err := svc.Register(ctx, NewUser{Username: "awe", Email: "awe@test.cd", Password: "s3cr3tP4ss"})
	require.NoError(t, err)

	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, RoleAdmin, usr.Role)
	assert.Equal(t, PlanFree, usr.Plan)
	assert.True(t, usr.EmailNotifications)
	if assert.NotNil(t, usr.IsActive) {
		assert.False(t, *usr.IsActive, "new account must await verification")
	}
	assert.NoError(t, usr.CheckPassword("s3cr3tP4ss"))

	assert.Len(t, otpRepo.otps, 1)
	code := sentCode(t, mailer)
	assert.Equal(t, otpRepo.otps[0].Code, code)
}

func Test_service_VerifyEmail(t *testing.T) {
	svc, _, otpRepo, mailer := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, NewUser{Username: "awe", Email: "awe@test.cd", Password: "s3cr3tP4ss"})
	require.NoError(t, err)
	code := sentCode(t, mailer)

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.VerifyEmail(ctx, "ghost@test.cd", code)
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("wrong code", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		_, err := svc.VerifyEmail(ctx, "awe@test.cd", wrong)
		assert.Equal(t, ErrOTPInvalid, err)
	})

	t.Run("verified", func(t *testing.T) {
		usr, err := svc.VerifyEmail(ctx, "awe@test.cd", code)
		require.NoError(t, err)
		if assert.NotNil(t, usr.IsActive) {
			assert.True(t, *usr.IsActive)
		}
		assert.Empty(t, otpRepo.otps, "consumed codes must be discarded")
	})

	t.Run("already active", func(t *testing.T) {
		_, err := svc.VerifyEmail(ctx, "awe@test.cd", code)
		assert.Equal(t, ErrAlreadyActive, err)
	})
}

func Test_service_VerifyEmail_expiredCode(t *testing.T) {
	svc, _, otpRepo, mailer := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, NewUser{Username: "awe", Email: "awe@test.cd", Password: "s3cr3tP4ss"})
	require.NoError(t, err)
	code := sentCode(t, mailer)

	otpRepo.otps[0].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err = svc.VerifyEmail(ctx, "awe@test.cd", code)
	assert.Equal(t, ErrOTPInvalid, err)
}

func Test_service_ResendOTP(t *testing.T) {
	svc, _, otpRepo, mailer := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, NewUser{Username: "awe", Email: "awe@test.cd", Password: "s3cr3tP4ss"})
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		assert.Equal(t, ErrNotFound, svc.ResendOTP(ctx, "ghost@test.cd"))
	})

	t.Run("cooldown", func(t *testing.T) {
		assert.Equal(t, ErrOTPCooldown, svc.ResendOTP(ctx, "awe@test.cd"))
	})

	t.Run("resent after cooldown", func(t *testing.T) {
		otpRepo.otps[0].CreatedAt = time.Now().UTC().Add(-2 * time.Minute)

		require.NoError(t, svc.ResendOTP(ctx, "awe@test.cd"))
		assert.Len(t, otpRepo.otps, 2)
		assert.Len(t, mailer.sent, 2)
	})

	t.Run("blocked after too many pending codes", func(t *testing.T) {
		for i := range otpRepo.otps {
			otpRepo.otps[i].CreatedAt = time.Now().UTC().Add(-2 * time.Minute)
		}
		require.NoError(t, svc.ResendOTP(ctx, "awe@test.cd"))

		for i := range otpRepo.otps {
			otpRepo.otps[i].CreatedAt = time.Now().UTC().Add(-2 * time.Minute)
		}
		assert.Equal(t, ErrOTPBlocked, svc.ResendOTP(ctx, "awe@test.cd"))
	})

	t.Run("already active", func(t *testing.T) {
		code, err := otpRepo.LatestOTP(ctx, "awe@test.cd")
		require.NoError(t, err)
		_, err = svc.VerifyEmail(ctx, "awe@test.cd", code.Code)
		require.NoError(t, err)

		assert.Equal(t, ErrAlreadyActive, svc.ResendOTP(ctx, "awe@test.cd"))
	})
}

func Test_service_passwordReset(t *testing.T) {
	svc, repo, _, mailer := newTestService()
	ctx := context.Background()

	usr, err := svc.Register(ctx, NewUser{Username: "awe", Email: "awe@test.cd", Password: "s3cr3tP4ss"})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "awe@test.cd"))
	require.NotEmpty(t, mailer.sent)

	msg := mailer.sent[len(mailer.sent)-1]
	data, ok := msg.TemplateData.(struct {
		Username string
		UID      string
		Token    string
	})
	require.True(t, ok, "unexpected template data: %+v", msg.TemplateData)

	t.Run("bad token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, ResetUserPassword{
			UID: data.UID, Token: "lol", Password: "n3w-s3cr3t", PasswordConfirm: "n3w-s3cr3t",
		})
		assert.Error(t, err)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, ResetUserPassword{
			UID: data.UID, Token: data.Token, Password: "n3w-s3cr3t", PasswordConfirm: "n3w-s3cr3t",
		}))
		refreshed, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("n3w-s3cr3t"))
	})
}
