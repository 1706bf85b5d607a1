package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/startuplab/backend/apps/api/echo"
	"github.com/startuplab/backend/core/accounting"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/product"
	"github.com/startuplab/backend/core/user"
	"github.com/startuplab/backend/testutil"
)

// seeded by the migrations
const accountingProductID = "5b0c5a3e-6f0e-4a57-9a37-0f4f3c1a7d01"

func Test_adminApi_users(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, plan.Enterprise, true)
	awa := testutil.CreateUser(t, app.usrRepo, "Awa Diallo", "awa@test.cd", "", "", plan.Pro, true)
	_ = testutil.CreateUser(t, app.usrRepo, "Jean", "jean@test.cd", "", "", plan.Free, true)
	_ = testutil.CreateProject(t, app.projRepo, awa, "Lab")
	adminToken := getToken(t, app.conf, admin)
	userToken := getToken(t, app.conf, awa)

	runHTTPTests(t, app, []httpTest{
		{name: "stats are for admins", method: http.MethodGet, path: "/api/admin/stats", token: userToken, wantCode: http.StatusForbidden},
		{name: "users are for admins", method: http.MethodGet, path: "/api/admin/users", token: userToken, wantCode: http.StatusForbidden},
		{
			name:     "admin cannot demote themselves",
			method:   http.MethodPut,
			path:     "/api/admin/users/" + admin.ID,
			token:    adminToken,
			body:     marshalObj(t, user.AdminUpdateUser{Role: user.RoleUser}),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin cannot delete themselves",
			method:   http.MethodDelete,
			path:     "/api/admin/users/" + admin.ID,
			token:    adminToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unknown user",
			method:   http.MethodDelete,
			path:     "/api/admin/users/00000000-0000-0000-0000-000000000000",
			token:    adminToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown plan",
			method:   http.MethodPut,
			path:     "/api/admin/users/" + awa.ID,
			token:    adminToken,
			body:     marshalObj(t, user.AdminUpdateUser{Plan: "gold"}),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("stats", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/admin/stats", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stats AdminStats
		unmarshalBody(t, rec, &stats)
		assert.Equal(t, 3, stats.Users)
		assert.Equal(t, 1, stats.UsersByPlan[plan.Pro])
		assert.Equal(t, 1, stats.Projects)
		assert.Equal(t, 0, stats.PendingPayments)
	})

	t.Run("search users", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/admin/users?search=diallo", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		unmarshalBody(t, rec, &users)
		require.Len(t, users, 1)
		assert.Equal(t, awa.ID, users[0].ID)

		rec = app.do(http.MethodGet, "/api/admin/users?plan=free&plan=pro&ordering=name", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &users)
		require.Len(t, users, 2)
		assert.Equal(t, "Awa Diallo", users[0].Name)
	})

	t.Run("update and delete a user", func(t *testing.T) {
		inactive := false
		rec := app.do(http.MethodPut, "/api/admin/users/"+awa.ID, adminToken,
			marshalObj(t, user.AdminUpdateUser{Plan: plan.Starter, IsActive: &inactive}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		unmarshalBody(t, rec, &got)
		assert.Equal(t, plan.Starter, got.Plan)
		assert.False(t, got.IsActive)

		// deactivated users are locked out
		rec = app.do(http.MethodGet, "/api/auth/me", userToken)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		rec = app.do(http.MethodDelete, "/api/admin/users/"+awa.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = app.do(http.MethodGet, "/api/admin/stats", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stats AdminStats
		unmarshalBody(t, rec, &stats)
		assert.Equal(t, 2, stats.Users)
		// projects go with their owner
		assert.Equal(t, 0, stats.Projects)
	})
}

func Test_adminApi_products(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, "", true)
	adminToken := getToken(t, app.conf, admin)

	rec := app.do(http.MethodPost, "/api/admin/products", adminToken,
		marshalObj(t, product.NewProduct{Code: "Pitch-Coaching", Name: "Coaching pitch", Price: 4900}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p product.Product
	unmarshalBody(t, rec, &p)
	assert.Equal(t, "pitch-coaching", p.Code)
	assert.True(t, p.IsActive)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "code is unique",
			method:   http.MethodPost,
			path:     "/api/admin/products",
			token:    adminToken,
			body:     marshalObj(t, product.NewProduct{Code: "accounting", Name: "Compta"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "code is a slug",
			method:   http.MethodPost,
			path:     "/api/admin/products",
			token:    adminToken,
			body:     marshalObj(t, product.NewProduct{Code: "pitch coaching!", Name: "Coaching"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown product",
			method:   http.MethodPut,
			path:     "/api/admin/products/00000000-0000-0000-0000-000000000000",
			token:    adminToken,
			body:     marshalObj(t, product.UpdateProduct{Name: "X"}),
			wantCode: http.StatusNotFound,
		},
	})

	var catalog []product.Product
	rec = app.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &catalog)
	assert.Len(t, catalog, 4)

	// inactive products leave the catalog
	inactive := false
	rec = app.do(http.MethodPut, "/api/admin/products/"+p.ID, adminToken,
		marshalObj(t, product.UpdateProduct{Name: "Coaching pitch", Price: 5900, IsActive: &inactive}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &catalog)
	assert.Len(t, catalog, 3)

	rec = app.do(http.MethodGet, "/api/admin/products", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &catalog)
	assert.Len(t, catalog, 4)

	rec = app.do(http.MethodDelete, "/api/admin/products/"+p.ID, adminToken)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func Test_accountingApi_productAccess(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, "", true)
	usr := testutil.CreateUser(t, app.usrRepo, "Awa", "awa@test.cd", "", "", plan.Free, true)
	token := getToken(t, app.conf, usr)
	adminToken := getToken(t, app.conf, admin)

	rec := app.do(http.MethodGet, "/api/accounting/entries", token)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/products/"+accountingProductID+"/request", token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var up product.UserProduct
	unmarshalBody(t, rec, &up)
	assert.Equal(t, product.StatusPending, up.Status)
	assert.Equal(t, product.CodeAccounting, up.ProductCode)

	// a pending request is not repeated nor does it grant access
	rec = app.do(http.MethodPost, "/api/products/"+accountingProductID+"/request", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = app.do(http.MethodGet, "/api/accounting/entries", token)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/admin/user-products?status=pending", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var requests []product.UserProduct
	unmarshalBody(t, rec, &requests)
	require.Len(t, requests, 1)
	assert.Equal(t, up.ID, requests[0].ID)

	rec = app.do(http.MethodPost, "/api/admin/user-products/"+up.ID+"/approve", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.do(http.MethodPost, "/api/admin/user-products/"+up.ID+"/reject", adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/products/mine", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &requests)
	require.Len(t, requests, 1)
	assert.Equal(t, product.StatusActive, requests[0].Status)

	rec = app.do(http.MethodGet, "/api/accounting/entries", token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_accountingApi_entries(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Awa", "awa@test.cd", "", "", plan.Pro, true)
	other := testutil.CreateUser(t, app.usrRepo, "Jean", "jean@test.cd", "", "", plan.Pro, true)
	token := getToken(t, app.conf, usr)
	otherP := testutil.CreateProject(t, app.projRepo, other, "Other")

	create := func(body string) accounting.Entry {
		rec := app.do(http.MethodPost, "/api/accounting/entries", token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var e accounting.Entry
		unmarshalBody(t, rec, &e)
		return e
	}
	_ = create(`{"kind": "income", "label": "Vente", "amount": 150000, "occurred_on": "2025-03-10T00:00:00Z"}`)
	_ = create(`{"kind": "expense", "label": "Hébergement", "amount": 20000, "occurred_on": "2025-03-15T00:00:00Z"}`)
	rent := create(`{"kind": "expense", "label": "Loyer", "amount": 50000, "occurred_on": "2025-05-01T00:00:00Z"}`)
	_ = create(`{"kind": "income", "label": "Subvention", "amount": 99000, "occurred_on": "2024-12-31T00:00:00Z"}`)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "amount must be positive",
			method:   http.MethodPost,
			path:     "/api/accounting/entries",
			token:    token,
			body:     []byte(`{"kind": "income", "label": "Vente", "amount": 0}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown kind",
			method:   http.MethodPost,
			path:     "/api/accounting/entries",
			token:    token,
			body:     []byte(`{"kind": "gift", "label": "Vente", "amount": 10}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "project of someone else",
			method:   http.MethodPost,
			path:     "/api/accounting/entries",
			token:    token,
			body:     []byte(`{"project_id": "` + otherP.ID + `", "kind": "income", "label": "Vente", "amount": 10}`),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "entries of someone else",
			method:   http.MethodDelete,
			path:     "/api/accounting/entries/" + rent.ID,
			token:    getToken(t, app.conf, other),
			wantCode: http.StatusNotFound,
		},
	})

	rec := app.do(http.MethodGet, "/api/accounting/summary?year=2025", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s accounting.Summary
	unmarshalBody(t, rec, &s)
	assert.Equal(t, 2025, s.Year)
	assert.Equal(t, int64(150000), s.Income)
	assert.Equal(t, int64(70000), s.Expense)
	assert.Equal(t, int64(80000), s.Balance)
	require.Len(t, s.Months, 12)
	assert.Equal(t, "2025-03", s.Months[2].Month)
	assert.Equal(t, int64(130000), s.Months[2].Balance)
	assert.Equal(t, int64(-50000), s.Months[4].Balance)

	rec = app.do(http.MethodDelete, "/api/accounting/entries/"+rent.ID, token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/accounting/entries?kind=expense", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []accounting.Entry
	unmarshalBody(t, rec, &entries)
	assert.Len(t, entries, 1)
}
