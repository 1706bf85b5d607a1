package main

import (
	"context"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = core.Now()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}

// setPlan changes the plan of a user without going through billing.
func (cli *commandLine) setPlan(email, planID string) error {
	planID = core.CleanString(planID, true /* lower */)
	if !plan.Valid(planID) {
		return errUnknownPlan
	}
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	return cli.usrRepo.SetUserPlan(ctx, usr.ID, planID)
}
