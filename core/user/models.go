package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/reminderx/backend/core"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var AllRoles = []string{RoleAdmin, RoleStaff}

// Subscription plans
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
	PlanMultiUsers Plan = "multiusers"
)

var (
	AllPlans = []Plan{PlanFree, PlanPremium, PlanEnterprise, PlanMultiUsers}

	// planCodes maps the numeric plan codes used on the wire.
	planCodes = map[int]Plan{
		1: PlanFree,
		2: PlanPremium,
		3: PlanEnterprise,
		4: PlanMultiUsers,
	}
)

func PlanFromCode(code int) Plan {
	if p, ok := planCodes[code]; ok {
		return p
	}
	return PlanFree
}

func (p Plan) Code() int {
	for code, plan := range planCodes {
		if plan == p {
			return code
		}
	}
	return 1
}

// Paying reports whether the plan unlocks paid features (calendar view).
func (p Plan) Paying() bool { return p != PlanFree && p != "" }

// Variant selects the dashboard rendering variant. The mapping from
// (plan, role) is resolved once and kept a closed set so gating logic
// stays exhaustive and testable.
type Variant string

const (
	VariantFree            Variant = "free"
	VariantPremium         Variant = "premium"
	VariantEnterpriseStaff Variant = "enterprise-staff"
	VariantEnterpriseAdmin Variant = "enterprise-admin"
)

func ResolveVariant(plan Plan, role string) Variant {
	switch plan {
	case PlanPremium, PlanEnterprise:
		return VariantPremium
	case PlanMultiUsers:
		if role == RoleAdmin {
			return VariantEnterpriseAdmin
		}
		return VariantEnterpriseStaff
	default:
		return VariantFree
	}
}

type User struct {
	ID          string `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	Email       string `json:"email" db:"email"`
	PhoneNumber string `json:"phone_number,omitempty" db:"phone_number"`
	IsActive    *bool  `json:"is_active" db:"is_active"`
	Role        string `json:"role" db:"role"`
	Plan        Plan   `json:"subscription_plan" db:"plan"`
	OrgID       string `json:"organization_id,omitempty" db:"org_id"`

	EmailNotifications    bool `json:"email_notifications" db:"email_notifications"`
	SMSNotifications      bool `json:"sms_notifications" db:"sms_notifications"`
	PushNotifications     bool `json:"push_notifications" db:"push_notifications"`
	WhatsAppNotifications bool `json:"whatsapp_notifications" db:"whatsapp_notifications"`

	ProfilePictureURL string `json:"profile_picture_url,omitempty" db:"profile_picture_url"`
	// DeviceToken is the FCM registration token for browser push.
	DeviceToken string `json:"-" db:"device_token"`

	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) Variant() Variant { return ResolveVariant(u.Plan, u.Role) }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Zero-valued fields keep their current value.
type UpdateUser struct {
	Username              string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email                 string `json:"email" validate:"omitempty,email"`
	PhoneNumber           string `json:"phone_number" validate:"omitempty,phone"`
	IsActive              *bool  `json:"is_active"`
	Role                  string `json:"role" validate:"omitempty,role"`
	EmailNotifications    *bool  `json:"email_notifications"`
	SMSNotifications      *bool  `json:"sms_notifications"`
	PushNotifications     *bool  `json:"push_notifications"`
	WhatsAppNotifications *bool  `json:"whatsapp_notifications"`
	ProfilePictureURL     string `json:"profile_picture_url" validate:"omitempty,url"`
	DeviceToken           string `json:"device_token"`
	Password              string `json:"password" validate:"omitempty,min=8"`
	PasswordConfirm       string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	uname := core.CleanString(uu.Username, true /* lower */)
	if uname == "" {
		uname = origUsr.Username
	}
	uu.Username = uname

	email := core.CleanString(uu.Email, true /* lower */)
	if email == "" {
		email = origUsr.Email
	}
	uu.Email = email

	uu.PhoneNumber = core.CleanString(uu.PhoneNumber)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type VerifyOTP struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (v *VerifyOTP) Validate(validate *validator.Validate) error {
	v.Email = core.CleanString(v.Email, true /* lower */)
	v.Code = core.CleanString(v.Code)
	return validate.Struct(v)
}

type ResendOTP struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ResendOTP) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	Plan        Plan      `query:"plan"`
	IsActive    *bool     `query:"is_active"`
	OrgID       string    `query:"organization"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Plan == "" && qf.IsActive == nil &&
		qf.OrgID == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// OTP is a pending one-time email verification code.
type OTP struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (o OTP) Expired(now time.Time) bool { return now.After(o.ExpiresAt) }
