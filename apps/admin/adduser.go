package main

import (
	"context"
	"time"

	"github.com/reminderx/backend/core"
	"github.com/reminderx/backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		if usr, err = cli.usrRepo.GetUserByEmail(ctx, email); err != nil {
			if err != user.ErrNotFound {
				return err
			}
			usr = user.User{
				Username:  uname,
				Email:     email,
				Plan:      user.PlanFree,
				CreatedAt: now,
			}
		}
	}
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	active := true
	usr.IsActive = &active
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
