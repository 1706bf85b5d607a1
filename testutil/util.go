// Package testutil holds fixtures shared by the repository and HTTP tests.
package testutil

import (
	"context"
	"net/mail"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/user"
	"github.com/startuplab/backend/storage/database"
)

// NewConfig returns a TEST configuration whose database and media files live in a temporary directory.
func NewConfig(t *testing.T) *core.Config {
	dir := t.TempDir()
	return &core.Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "StartUpLab",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "StartUpLab", Address: "noreply@startuplab.test"},
		PasswordResetTimeoutDelta: 24 * time.Hour,
		MediaDir:                  filepath.Join(dir, "media"),
		MediaURL:                  "/files",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Database: core.DatabaseConfig{
			Path:        filepath.Join(dir, "startuplab.db"),
			BusyTimeout: time.Second,
		},
	}
}

// PrepareDB opens and migrates the database of conf; it is closed when the test ends.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, nil); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role, planID string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleUser
	}
	if planID == "" {
		planID = plan.Free
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		Plan:      planID,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProject(t *testing.T, repo project.Repository, owner user.User, name string) project.Project {
	t.Helper()
	now := core.Now()
	p, err := repo.CreateProject(context.Background(), project.Project{
		OwnerID:   owner.ID,
		Name:      name,
		Stage:     project.StageIdea,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	p.OwnerPlan = owner.Plan
	p.OwnerEmail = owner.Email
	return p
}

// AddTeamMember adds usr to the project with role; status defaults to active.
func AddTeamMember(t *testing.T, repo project.Repository, p project.Project, usr user.User, role string, status ...string) project.TeamMember {
	t.Helper()
	st := project.StatusActive
	if len(status) > 0 {
		st = status[0]
	}
	now := core.Now()
	m := project.TeamMember{
		ProjectID: p.ID,
		Email:     usr.Email,
		Role:      role,
		Status:    st,
		InvitedBy: p.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if st == project.StatusActive {
		m.UserID = usr.ID
	}
	m, err := repo.CreateTeamMember(context.Background(), m)
	if err != nil {
		t.Fatalf("AddTeamMember() failed: %v", err)
	}
	return m
}
