package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
	"github.com/startuplab/backend/storage/database/sqlxrepos"
	"github.com/startuplab/backend/testutil"
)

func newUserRepo(t *testing.T) user.Repository {
	conf := testutil.NewConfig(t)
	return sqlxrepos.NewUserRepository(testutil.PrepareDB(t, conf))
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	usr := testutil.CreateUser(t, repo, "Awa", "awa@test.cd", "Sup3rS3cret!", "", "", true)
	assert.NotEmpty(t, usr.ID)

	got, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, "awa@test.cd", got.Email)
	assert.Equal(t, plan.Free, got.Plan)
	assert.Equal(t, user.RoleUser, got.Role)
	assert.NoError(t, got.CheckPassword("Sup3rS3cret!"))
	assert.False(t, got.HasFaceLogin)

	got, err = repo.GetUser(ctx, user.GetFilter{Email: "awa@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = repo.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repo.GetUser(ctx, user.GetFilter{Email: "nobody@test.cd"})
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repo.GetUser(ctx, user.GetFilter{})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestUserRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	usr := testutil.CreateUser(t, repo, "Awa", "awa@test.cd", "", "", "", true)

	_, err := repo.CreateUser(ctx, user.User{
		Name: "Other", Email: "awa@test.cd", Role: user.RoleUser, Plan: plan.Free,
		CreatedAt: core.Now(), UpdatedAt: core.Now(),
	})
	assert.Equal(t, user.ErrEmailExists, err)

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "awa@test.cd", nil))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "awa@test.cd", []user.User{usr}))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@test.cd", nil))
}

func TestUserRepository_QueryUsers(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	now := time.Now()
	awa := testutil.CreateUser(t, repo, "Awa Diallo", "awa@test.cd", "", "", plan.Pro, true, now.Add(-3*time.Hour))
	ben := testutil.CreateUser(t, repo, "Ben", "ben@test.cd", "", user.RoleAdmin, "", true, now.Add(-2*time.Hour))
	cleo := testutil.CreateUser(t, repo, "Cléo", "cleo@diallo.cd", "", "", "", false, now.Add(-1*time.Hour))

	ids := func(users []user.User) []string {
		res := make([]string, 0, len(users))
		for _, u := range users {
			res = append(res, u.ID)
		}
		return res
	}
	bPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all, newest first", want: []string{cleo.ID, ben.ID, awa.ID}},
		{name: "search", filter: &user.QueryFilter{Search: "diallo"}, want: []string{cleo.ID, awa.ID}},
		{name: "role", filter: &user.QueryFilter{Roles: []string{user.RoleAdmin}}, want: []string{ben.ID}},
		{name: "plan", filter: &user.QueryFilter{Plans: []string{plan.Pro}}, want: []string{awa.ID}},
		{name: "inactive", filter: &user.QueryFilter{IsActive: bPtr(false)}, want: []string{cleo.ID}},
		{
			name:     "ordered by name",
			ordering: []core.DBOrdering{{Field: "name", Ascending: true}},
			want:     []string{awa.ID, ben.ID, cleo.ID},
		},
		{
			name:     "unknown ordering falls back",
			ordering: []core.DBOrdering{{Field: "password_hash"}},
			want:     []string{cleo.ID, ben.ID, awa.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(users))
		})
	}
}

func TestUserRepository_FaceDescriptor(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	usr := testutil.CreateUser(t, repo, "Awa", "awa@test.cd", "", "", "", true)
	_ = testutil.CreateUser(t, repo, "Ben", "ben@test.cd", "", "", "", true)

	desc := make(user.Descriptor, user.DescriptorLen)
	for i := range desc {
		desc[i] = float64(i) / 1000
	}
	usr.FaceDescriptor = desc
	usr, err := repo.UpdateUser(ctx, usr)
	require.NoError(t, err)
	assert.True(t, usr.HasFaceLogin)

	enrolled, err := repo.QueryFaceUsers(ctx)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, usr.ID, enrolled[0].ID)
	assert.InDeltaSlice(t, []float64(desc), []float64(enrolled[0].FaceDescriptor), 1e-9)

	usr.FaceDescriptor = nil
	_, err = repo.UpdateUser(ctx, usr)
	require.NoError(t, err)
	enrolled, err = repo.QueryFaceUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, enrolled)
}

func TestUserRepository_PlansAndDeletion(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	awa := testutil.CreateUser(t, repo, "Awa", "awa@test.cd", "", "", "", true)
	ben := testutil.CreateUser(t, repo, "Ben", "ben@test.cd", "", "", "", true)

	require.NoError(t, repo.SetUserPlan(ctx, awa.ID, plan.Starter))
	assert.Equal(t, user.ErrNotFound, repo.SetUserPlan(ctx, "00000000-0000-0000-0000-000000000000", plan.Pro))

	counts, err := repo.CountUsersByPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{plan.Free: 1, plan.Starter: 1}, counts)

	n, err := repo.DeleteUsersByID(ctx, []string{ben.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.DeleteUsersByID(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.GetUser(ctx, user.GetFilter{ID: ben.ID})
	assert.Equal(t, user.ErrNotFound, err)
}
