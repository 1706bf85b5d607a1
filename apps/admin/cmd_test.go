package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
	"github.com/startuplab/backend/storage/database/sqlxrepos"
	"github.com/startuplab/backend/testutil"
)

func setup(t *testing.T) (*commandLine, user.Repository) {
	db := testutil.PrepareDB(t, testutil.NewConfig(t))
	usrRepo := sqlxrepos.NewUserRepository(db)
	return &commandLine{db: db, usrRepo: usrRepo, out: new(bytes.Buffer)}, usrRepo
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := runMigrationsFunc
	t.Cleanup(func() { runMigrationsFunc = orig })
	runMigrationsFunc = func(db *sql.DB, logger core.Logger, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s)"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(tt.args))
		})
	}
}

func Test_commandLine_migrateForReal(t *testing.T) {
	cli, _ := setup(t)
	// PrepareDB already applied every migration
	require.NoError(t, cli.run([]string{"migrate", "status"}))
	require.NoError(t, cli.run([]string{"migrate", "up"}))
}

func Test_commandLine_addUser(t *testing.T) {
	cli, usrRepo := setup(t)

	tests := []cliTest{
		{name: "email is required", args: []string{"adduser"}, pwd: "secret", wantErrStr: `required flag(s) "email" not set`},
		{name: "empty password", args: []string{"adduser", "--email", "boss@test.cd"}, wantErr: errEmptyPassword},
		{name: "unknown plan", args: []string{"adduser", "--email", "boss@test.cd", "--plan", "gold"}, pwd: "secret", wantErr: errUnknownPlan},
		{name: "create an admin", args: []string{"adduser", "--name", "Boss", "--email", "Boss@Test.cd", "--admin"}, pwd: "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			checkErr(t, tt, cli.run(tt.args))
		})
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "boss@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, "Boss", usr.Name)
	assert.True(t, usr.IsAdmin())
	assert.True(t, usr.IsActive)
	assert.Equal(t, plan.Free, usr.Plan)
	assert.NoError(t, usr.CheckPassword("secret"))

	t.Run("update the existing user", func(t *testing.T) {
		mockPassword(t, "another")
		require.NoError(t, cli.run([]string{"adduser", "--email", "boss@test.cd", "--plan", "pro"}))

		updated, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "boss@test.cd"})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, updated.ID)
		assert.Equal(t, "Boss", updated.Name)
		assert.True(t, updated.IsAdmin())
		assert.Equal(t, plan.Pro, updated.Plan)
		assert.NoError(t, updated.CheckPassword("another"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Awa", "awa@test.cd", "old-password", "", "", true)

	tests := []cliTest{
		{name: "email is required", args: []string{"resetpassword"}, pwd: "lol", wantErrStr: `required flag(s) "email" not set`},
		{name: "empty password", args: []string{"resetpassword", "--email", usr.Email}, wantErr: errEmptyPassword},
		{name: "user not found", args: []string{"resetpassword", "--email", "lol@test.cd"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
		{name: "reset", args: []string{"resetpassword", "--email", "AWA@test.cd"}, pwd: "new-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			checkErr(t, tt, cli.run(tt.args))
		})
	}

	refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("new-password"))
}

func Test_commandLine_setPlan(t *testing.T) {
	cli, usrRepo := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Awa", "awa@test.cd", "", "", "", true)

	tests := []cliTest{
		{name: "plan is required", args: []string{"setplan", "--email", usr.Email}, wantErrStr: `required flag(s) "plan" not set`},
		{name: "unknown plan", args: []string{"setplan", "--email", usr.Email, "--plan", "gold"}, wantErr: errUnknownPlan},
		{name: "user not found", args: []string{"setplan", "--email", "lol@test.cd", "--plan", "pro"}, wantErr: user.ErrNotFound},
		{name: "set", args: []string{"setplan", "--email", usr.Email, "--plan", "Enterprise"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(tt.args))
		})
	}

	refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, plan.Enterprise, refreshed.Plan)
}
