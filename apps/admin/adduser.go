package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

var errUnknownPlan = errors.New("unknown plan")

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, pwd, planID string, isAdmin bool) (user.User, error) {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	planID = core.CleanString(planID, true /* lower */)
	if planID != "" && !plan.Valid(planID) {
		return user.User{}, errUnknownPlan
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return user.User{}, err
	}

	now := core.Now()
	if !exists {
		if name == "" {
			name = email
		}
		usr = user.User{Email: email, Role: user.RoleUser, Plan: plan.Free, CreatedAt: now}
	}
	if name != "" {
		usr.Name = name
	}
	if planID != "" {
		usr.Plan = planID
	}
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "hashing password")
	}

	if exists {
		return cli.usrRepo.UpdateUser(ctx, usr)
	}
	return cli.usrRepo.CreateUser(ctx, usr)
}
