package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/reminderx/backend/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Username or Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	OTPRepository interface {
		CreateOTP(ctx context.Context, otp OTP) (OTP, error)
		// LatestOTP returns the most recently created OTP for email;
		// ErrOTPInvalid when none exists.
		LatestOTP(ctx context.Context, email string) (OTP, error)
		CountActiveOTPs(ctx context.Context, email string, now time.Time) (int, error)
		DeleteOTPs(ctx context.Context, email string) error
	}

	Service interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		VerifyEmail(ctx context.Context, email, code string) (User, error)
		ResendOTP(ctx context.Context, email string) error
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		SetPlan(ctx context.Context, id string, plan Plan) (User, error)
		AttachToOrganization(ctx context.Context, id, orgID string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		otpRepo OTPRepository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, otpRepo OTPRepository, mailSvc core.EmailService, conf *core.Config) Service {
	// token_gen parameters
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta

	return &service{
		repo:    repo,
		otpRepo: otpRepo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates a deactivated account and emails a verification code.
// The account only becomes active once VerifyEmail succeeds.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	inactive := false
	usr := User{
		Username:           nu.Username,
		Email:              nu.Email,
		IsActive:           &inactive,
		Role:               RoleAdmin, // account creators own their workspace
		Plan:               PlanFree,
		EmailNotifications: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if err := svc.issueOTP(ctx, usr.Email, now); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) issueOTP(ctx context.Context, email string, now time.Time) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	otp := OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(svc.conf.OTPTimeout),
		CreatedAt: now,
	}
	if _, err = svc.otpRepo.CreateOTP(ctx, otp); err != nil {
		return err
	}
	svc.sendOTPMail(email, code)
	return nil
}

func (svc *service) VerifyEmail(ctx context.Context, email, code string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if usr.IsActive != nil && *usr.IsActive {
		return User{}, ErrAlreadyActive
	}

	otp, err := svc.otpRepo.LatestOTP(ctx, email)
	if err != nil {
		return User{}, err
	}
	if otp.Expired(time.Now().UTC()) || !otpMatches(otp.Code, code) {
		return User{}, ErrOTPInvalid
	}

	active := true
	usr.IsActive = &active
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	_ = svc.otpRepo.DeleteOTPs(ctx, email)
	return usr, nil
}

func (svc *service) ResendOTP(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr.IsActive != nil && *usr.IsActive {
		return ErrAlreadyActive
	}

	now := time.Now().UTC()
	if otp, err := svc.otpRepo.LatestOTP(ctx, email); err == nil {
		if now.Sub(otp.CreatedAt) < svc.conf.OTPResendCooldown {
			return ErrOTPCooldown
		}
	}
	count, err := svc.otpRepo.CountActiveOTPs(ctx, email, now)
	if err != nil {
		return err
	}
	if count >= svc.conf.OTPMaxPending {
		return ErrOTPBlocked
	}
	return svc.issueOTP(ctx, email, now)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.PhoneNumber != "" {
		usr.PhoneNumber = uu.PhoneNumber
	}
	if uu.IsActive != nil {
		usr.IsActive = uu.IsActive
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.EmailNotifications != nil {
		usr.EmailNotifications = *uu.EmailNotifications
	}
	if uu.SMSNotifications != nil {
		usr.SMSNotifications = *uu.SMSNotifications
	}
	if uu.PushNotifications != nil {
		usr.PushNotifications = *uu.PushNotifications
	}
	if uu.WhatsAppNotifications != nil {
		usr.WhatsAppNotifications = *uu.WhatsAppNotifications
	}
	if uu.ProfilePictureURL != "" {
		usr.ProfilePictureURL = uu.ProfilePictureURL
	}
	if uu.DeviceToken != "" {
		usr.DeviceToken = uu.DeviceToken
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPlan(ctx context.Context, id string, plan Plan) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Plan = plan
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) AttachToOrganization(ctx context.Context, id, orgID string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.OrgID = orgID
	usr.Plan = PlanMultiUsers
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}

// mails

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Username string
			UID      string
			Token    string
		}{usr.Username, EncodeUID(usr), makeToken(usr)},
	})
}

func (svc *service) sendOTPMail(email, code string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: email}},
		Subject: "Verify your email",
		BodyStr: fmt.Sprintf(
			"Your %s verification code is %s. It expires in %d minutes.",
			svc.conf.AppName, code, int(svc.conf.OTPTimeout.Minutes()),
		),
	})
}
