package main

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
	logger  core.Logger
	out     io.Writer
}

// rootCmd builds the admin command tree.
func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "StartUpLab administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	migrateCmd := &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(args[0], args[1:]...)
		},
	}

	var addName, addEmail, addPlan string
	var addAdmin bool
	addUserCmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the user with the same email; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			usr, err := cli.addUser(addName, addEmail, pwd, addPlan, addAdmin)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "user %s (%s) saved\n", usr.Email, usr.ID)
			return nil
		},
	}
	addUserCmd.Flags().StringVar(&addName, "name", "", "full name of the user")
	addUserCmd.Flags().StringVar(&addEmail, "email", "", "email of the user")
	addUserCmd.Flags().StringVar(&addPlan, "plan", "", "subscription plan (free by default)")
	addUserCmd.Flags().BoolVar(&addAdmin, "admin", false, "grant the admin role")
	_ = addUserCmd.MarkFlagRequired("email")

	var resetEmail string
	resetPasswordCmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset the password of a user; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			return cli.resetPassword(resetEmail, pwd)
		},
	}
	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "email of the user")
	_ = resetPasswordCmd.MarkFlagRequired("email")

	var planEmail, planID string
	setPlanCmd := &cobra.Command{
		Use:   "setplan",
		Short: "Change the subscription plan of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.setPlan(planEmail, planID)
		},
	}
	setPlanCmd.Flags().StringVar(&planEmail, "email", "", "email of the user")
	setPlanCmd.Flags().StringVar(&planID, "plan", "", "free, starter, pro or enterprise")
	_ = setPlanCmd.MarkFlagRequired("email")
	_ = setPlanCmd.MarkFlagRequired("plan")

	root.AddCommand(migrateCmd, addUserCmd, resetPasswordCmd, setPlanCmd)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}
