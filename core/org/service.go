package org

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("organization not found")
	ErrInviteInvalid = errors.New("invalid or expired invitation")
)

const inviteTimeout = 7 * 24 * time.Hour

type (
	Repository interface {
		CreateOrganization(ctx context.Context, o Organization) (Organization, error)
		GetOrganizationByID(ctx context.Context, id string) (Organization, error)
		UpdateOrganization(ctx context.Context, o Organization) (Organization, error)

		CreateInvite(ctx context.Context, inv Invite) (Invite, error)
		// GetInviteByToken returns ErrInviteInvalid when no invite matches.
		GetInviteByToken(ctx context.Context, token string) (Invite, error)
		DeleteInvitesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, adminID string, no NewOrganization) (Organization, error)
		// GetByID loads the organization with its staff roster.
		GetByID(ctx context.Context, id string) (Organization, error)
		SetIcon(ctx context.Context, id, iconURL string) (Organization, error)
		InviteStaff(ctx context.Context, orgID, email string) error
		// VerifyStaff consumes an invite token and attaches the invited
		// account to the organization as staff.
		VerifyStaff(ctx context.Context, token string) (user.User, error)
		SendStaffMessage(ctx context.Context, staffID string, sm StaffMessage) error
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) Create(ctx context.Context, adminID string, no NewOrganization) (Organization, error) {
	pubID, err := generateOrganizationalID()
	if err != nil {
		return Organization{}, err
	}

	now := time.Now().UTC()
	o := Organization{
		OrganizationalID: pubID,
		Name:             no.Name,
		AdminID:          adminID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateOrganization(ctx, o)
}

func (svc *service) GetByID(ctx context.Context, id string) (Organization, error) {
	o, err := svc.repo.GetOrganizationByID(ctx, id)
	if err != nil {
		return Organization{}, err
	}

	members, err := svc.usrSvc.Query(ctx, &user.QueryFilter{OrgID: o.ID}, nil)
	if err != nil {
		return Organization{}, err
	}
	o.Staff = make([]Staff, 0, len(members))
	for _, m := range members {
		o.Staff = append(o.Staff, StaffFromUser(m))
	}
	return o, nil
}

func (svc *service) SetIcon(ctx context.Context, id, iconURL string) (Organization, error) {
	o, err := svc.repo.GetOrganizationByID(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	o.IconURL = iconURL
	o.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateOrganization(ctx, o)
}

func (svc *service) InviteStaff(ctx context.Context, orgID, email string) error {
	o, err := svc.repo.GetOrganizationByID(ctx, orgID)
	if err != nil {
		return err
	}

	token, err := generateInviteToken()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	inv := Invite{
		OrgID:     o.ID,
		Email:     email,
		Token:     token,
		ExpiresAt: now.Add(inviteTimeout),
		CreatedAt: now,
	}
	if _, err = svc.repo.CreateInvite(ctx, inv); err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: email}},
		Subject: fmt.Sprintf("You have been invited to join %s", o.Name),
		BodyStr: fmt.Sprintf(
			"Follow this link to join %s as staff: %s/verify-staff/%s",
			o.Name, svc.conf.FrontendBaseURL, token,
		),
	})
	return nil
}

func (svc *service) VerifyStaff(ctx context.Context, token string) (user.User, error) {
	inv, err := svc.repo.GetInviteByToken(ctx, token)
	if err != nil {
		return user.User{}, err
	}
	if inv.Expired(time.Now().UTC()) {
		return user.User{}, ErrInviteInvalid
	}

	usr, err := svc.usrSvc.GetByEmail(ctx, inv.Email)
	if err != nil {
		return user.User{}, err
	}

	usr, err = svc.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
		Username: usr.Username,
		Email:    usr.Email,
		Role:     user.RoleStaff,
	})
	if err != nil {
		return user.User{}, err
	}
	if _, err = svc.usrSvc.AttachToOrganization(ctx, usr.ID, inv.OrgID); err != nil {
		return user.User{}, err
	}
	_ = svc.repo.DeleteInvitesByID(ctx, inv.ID)

	return svc.usrSvc.GetByID(ctx, usr.ID)
}

func (svc *service) SendStaffMessage(ctx context.Context, staffID string, sm StaffMessage) error {
	usr, err := svc.usrSvc.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject: sm.Subject,
		BodyStr: sm.Message,
	})
	return nil
}

// generateOrganizationalID returns a 6-digit public identifier.
func generateOrganizationalID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
