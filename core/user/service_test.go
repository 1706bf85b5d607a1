package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
	emailsvc "github.com/startuplab/backend/services/email"
	inmemdb "github.com/startuplab/backend/storage/database/inmem"
	"github.com/startuplab/backend/testutil"
)

var ctxBg = context.Background()

type fakeVerifier map[string]user.GoogleIdentity

func (v fakeVerifier) VerifyGoogleToken(_ context.Context, token string) (user.GoogleIdentity, error) {
	identity, ok := v[token]
	if !ok {
		return user.GoogleIdentity{}, user.ErrInvalidGoogleToken
	}
	return identity, nil
}

func newService(t *testing.T, verifier user.IdentityVerifier) (user.Service, user.Repository, *core.Config) {
	conf := testutil.NewConfig(t)
	core.ParseEmailTemplates(conf, nil)
	emailsvc.ResetSentMessages()
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return user.NewServiceMock(repo, emailsvc.NewConsoleServiceMock(conf), verifier, conf), repo, conf
}

func register(t *testing.T, svc user.Service, name, email string) user.User {
	t.Helper()
	usr, err := svc.Register(ctxBg, user.NewUser{Name: name, Email: email, Password: "secret"})
	require.NoError(t, err)
	return usr
}

func face(v float64) user.Descriptor {
	d := make(user.Descriptor, user.DescriptorLen)
	for i := range d {
		d[i] = v
	}
	return d
}

func Test_service_Register(t *testing.T) {
	svc, _, _ := newService(t, nil)

	usr := register(t, svc, "Awa", "awa@test.cd")
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.RoleUser, usr.Role)
	assert.Equal(t, plan.Free, usr.Plan)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("secret"))

	err := svc.CheckUniqueness("awa@test.cd")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.NoError(t, svc.CheckUniqueness("awa@test.cd", usr))
	assert.NoError(t, svc.CheckUniqueness("other@test.cd"))

	_, err = svc.Register(ctxBg, user.NewUser{Name: "Awa", Email: "awa@test.cd", Password: "x"})
	assert.Equal(t, user.ErrEmailExists, err)
}

func Test_service_Query(t *testing.T) {
	svc, _, _ := newService(t, nil)
	awa := register(t, svc, "Awa Diallo", "awa@test.cd")
	register(t, svc, "Moussa", "moussa@test.cd")
	_, err := svc.SetPlan(ctxBg, awa, plan.Pro)
	require.NoError(t, err)

	users, err := svc.Query(ctxBg, &user.QueryFilter{Search: "DIALLO"}, nil)
	require.NoError(t, err)
	if assert.Len(t, users, 1) {
		assert.Equal(t, awa.ID, users[0].ID)
	}

	users, err = svc.Query(ctxBg, nil, []core.DBOrdering{{Field: "name", Ascending: true}})
	require.NoError(t, err)
	if assert.Len(t, users, 2) {
		assert.Equal(t, "Awa Diallo", users[0].Name)
		assert.Equal(t, "Moussa", users[1].Name)
	}

	_, err = svc.SetPlan(ctxBg, awa, "gold")
	assert.Error(t, err)

	counts, err := svc.CountByPlan(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{plan.Pro: 1, plan.Free: 1}, counts)

	require.NoError(t, svc.Delete(ctxBg, awa.ID))
	_, err = svc.GetByID(ctxBg, awa.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_service_MatchFace(t *testing.T) {
	svc, _, _ := newService(t, nil)
	awa := register(t, svc, "Awa", "awa@test.cd")
	moussa := register(t, svc, "Moussa", "moussa@test.cd")
	register(t, svc, "Sans Visage", "nobody@test.cd")

	_, err := svc.SetFaceDescriptor(ctxBg, awa, user.Descriptor{0.1, 0.2})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	awa, err = svc.SetFaceDescriptor(ctxBg, awa, face(0.10))
	require.NoError(t, err)
	assert.True(t, awa.HasFaceLogin)
	_, err = svc.SetFaceDescriptor(ctxBg, moussa, face(0.15))
	require.NoError(t, err)

	tests := []struct {
		name    string
		d       user.Descriptor
		email   string
		wantID  string
		wantErr error
	}{
		{name: "wrong length", d: user.Descriptor{0.1}, wantErr: user.ErrFaceNotRecognized},
		{name: "nobody close enough", d: face(0.9), wantErr: user.ErrFaceNotRecognized},
		{name: "closest face wins", d: face(0.11), wantID: awa.ID},
		{name: "other closest face", d: face(0.145), wantID: moussa.ID},
		{name: "email narrows the search", d: face(0.14), email: " AWA@test.cd ", wantID: awa.ID},
		{name: "email without face", d: face(0.1), email: "nobody@test.cd", wantErr: user.ErrFaceNotRecognized},
		{name: "unknown email", d: face(0.1), email: "lol@test.cd", wantErr: user.ErrFaceNotRecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.MatchFace(ctxBg, tt.d, tt.email)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, usr.ID)
		})
	}

	t.Run("cleared faces are not matched", func(t *testing.T) {
		_, err := svc.ClearFaceDescriptor(ctxBg, awa)
		require.NoError(t, err)
		usr, err := svc.MatchFace(ctxBg, face(0.11), "")
		require.NoError(t, err)
		assert.Equal(t, moussa.ID, usr.ID)
	})
}

func Test_service_LoginWithGoogle(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc, _, _ := newService(t, nil)
		_, err := svc.LoginWithGoogle(ctxBg, "token")
		assert.Equal(t, user.ErrGoogleUnavailable, err)
	})

	verifier := fakeVerifier{
		"unverified": {Subject: "g-0", Email: "ghost@test.cd"},
		"awa":        {Subject: "g-1", Email: "Awa@Test.cd", EmailVerified: true, Name: "Awa D."},
		"new":        {Subject: "g-2", Email: "kadi@test.cd", EmailVerified: true},
	}
	svc, repo, _ := newService(t, verifier)
	awa := register(t, svc, "Awa", "awa@test.cd")

	_, err := svc.LoginWithGoogle(ctxBg, "forged")
	assert.Equal(t, user.ErrInvalidGoogleToken, err)

	_, err = svc.LoginWithGoogle(ctxBg, "unverified")
	assert.Equal(t, user.ErrGoogleEmailMissing, err)

	// existing accounts are linked by email
	linked, err := svc.LoginWithGoogle(ctxBg, "awa")
	require.NoError(t, err)
	assert.Equal(t, awa.ID, linked.ID)
	assert.Equal(t, "Awa", linked.Name)
	byGoogle, err := repo.GetUser(ctxBg, user.GetFilter{GoogleID: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, awa.ID, byGoogle.ID)

	again, err := svc.LoginWithGoogle(ctxBg, "awa")
	require.NoError(t, err)
	assert.Equal(t, awa.ID, again.ID)

	// unknown accounts are created
	created, err := svc.LoginWithGoogle(ctxBg, "new")
	require.NoError(t, err)
	assert.NotEqual(t, awa.ID, created.ID)
	assert.Equal(t, "kadi", created.Name)
	assert.Equal(t, plan.Free, created.Plan)
	assert.Error(t, created.CheckPassword(""))
}

func Test_service_PasswordReset(t *testing.T) {
	svc, _, conf := newService(t, nil)
	usr := register(t, svc, "Awa", "awa@test.cd")

	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctxBg, "lol@test.cd"))
	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctxBg, ""))

	require.NoError(t, svc.RequestPasswordReset(ctxBg, "AWA@test.cd"))
	msgs := emailsvc.SentMessages()
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, "password_reset", msgs[0].TemplateName)
		assert.Equal(t, usr.Email, msgs[0].To[0].Address)
	}

	token, err := user.MakeResetToken(conf, usr)
	require.NoError(t, err)

	var vErr *core.ValidationError
	err = svc.ResetPassword(ctxBg, user.ResetUserPassword{UID: "!!", Token: token, Password: "new"})
	assert.ErrorAs(t, err, &vErr)
	err = svc.ResetPassword(ctxBg, user.ResetUserPassword{UID: user.EncodeUID(usr), Token: "lol", Password: "new"})
	assert.ErrorAs(t, err, &vErr)

	require.NoError(t, svc.ResetPassword(ctxBg, user.ResetUserPassword{UID: user.EncodeUID(usr), Token: token, Password: "new"}))
	refreshed, err := svc.GetByID(ctxBg, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("new"))

	// the token is bound to the old password
	err = svc.ResetPassword(ctxBg, user.ResetUserPassword{UID: user.EncodeUID(usr), Token: token, Password: "newer"})
	assert.ErrorAs(t, err, &vErr)
}
