package org

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/user"
)

// Organization groups an admin and their staff under a multi-user plan.
type Organization struct {
	ID string `json:"id" db:"id"`
	// OrganizationalID is the 6-digit public identifier staff use to find
	// their organization.
	OrganizationalID string `json:"organizational_id" db:"organizational_id"`
	Name             string `json:"name" db:"name"`
	IconURL          string `json:"icon_url,omitempty" db:"icon_url"`
	AdminID          string `json:"admin_id" db:"admin_id"`

	Staff []Staff `json:"staff,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Staff is the roster view of an organization member.
type Staff struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func StaffFromUser(usr user.User) Staff {
	return Staff{
		ID:       usr.ID,
		Username: usr.Username,
		Email:    usr.Email,
		Role:     usr.Role,
		JoinedAt: usr.CreatedAt,
	}
}

// Invite is a pending staff invitation; the token is emailed and consumed
// once by VerifyStaff.
type Invite struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (i Invite) Expired(now time.Time) bool { return now.After(i.ExpiresAt) }

type NewOrganization struct {
	Name string `json:"name" validate:"required,min=2"`
}

func (no *NewOrganization) Validate(validate *validator.Validate) error {
	no.Name = core.CleanString(no.Name)
	return validate.Struct(no)
}

type InviteStaff struct {
	Email string `json:"email" validate:"required,email"`
}

func (is *InviteStaff) Validate(validate *validator.Validate) error {
	is.Email = core.CleanString(is.Email, true /* lower */)
	return validate.Struct(is)
}

type VerifyStaff struct {
	Token string `json:"token" validate:"required"`
}

func (vs *VerifyStaff) Validate(validate *validator.Validate) error {
	vs.Token = core.CleanString(vs.Token)
	return validate.Struct(vs)
}

type StaffMessage struct {
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (sm *StaffMessage) Validate(validate *validator.Validate) error {
	sm.Subject = core.CleanString(sm.Subject)
	sm.Message = core.CleanString(sm.Message)
	return validate.Struct(sm)
}
