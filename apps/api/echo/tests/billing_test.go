package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/startuplab/backend/apps/api/echo"
	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
	emailsvc "github.com/startuplab/backend/services/email"
	"github.com/startuplab/backend/testutil"
)

func Test_billingApi_plans(t *testing.T) {
	app := setup(t)

	rec := app.do(http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var plans []plan.Plan
	unmarshalBody(t, rec, &plans)
	require.Len(t, plans, 4)
	assert.Equal(t, plan.Free, plans[0].ID)
	assert.Equal(t, plan.Enterprise, plans[3].ID)
}

func Test_billingApi_manualPayment(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, "", true)
	usr := testutil.CreateUser(t, app.usrRepo, "Awa", "awa@test.cd", "", "", plan.Free, true)
	adminToken := getToken(t, app.conf, admin)
	token := getToken(t, app.conf, usr)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "reference is required for transfers",
			method:   http.MethodPost,
			path:     "/api/payments",
			token:    token,
			body:     marshalObj(t, billing.NewPayment{Plan: plan.Pro, Method: billing.MethodBankTransfer}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "free plan cannot be bought",
			method:   http.MethodPost,
			path:     "/api/payments",
			token:    token,
			body:     marshalObj(t, billing.NewPayment{Plan: plan.Free, Method: billing.MethodMobileMoney, Reference: "MM-1"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown plan",
			method:   http.MethodPost,
			path:     "/api/payments",
			token:    token,
			body:     marshalObj(t, billing.NewPayment{Plan: "gold", Method: billing.MethodMobileMoney, Reference: "MM-1"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no subscription yet",
			method:   http.MethodPost,
			path:     "/api/subscription/cancel",
			token:    token,
			wantCode: http.StatusNotFound,
		},
	})

	rec := app.do(http.MethodPost, "/api/payments", token,
		marshalObj(t, billing.NewPayment{Plan: plan.Pro, Method: billing.MethodBankTransfer, Reference: "VIR-2026-001"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p billing.Payment
	unmarshalBody(t, rec, &p)
	assert.Equal(t, billing.PaymentPending, p.Status)
	assert.Equal(t, int64(plan.Get(plan.Pro).Price), p.Amount)

	rec = app.do(http.MethodGet, "/api/payments", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mine []billing.Payment
	unmarshalBody(t, rec, &mine)
	require.Len(t, mine, 1)

	// only admins review payments
	rec = app.do(http.MethodPost, "/api/admin/payments/"+p.ID+"/approve", token)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/admin/payments?status=pending", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pending []billing.Payment
	unmarshalBody(t, rec, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, "awa@test.cd", pending[0].UserEmail)

	rec = app.do(http.MethodPost, "/api/admin/payments/"+p.ID+"/approve", adminToken, []byte(`{"note": "merci"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &p)
	assert.Equal(t, billing.PaymentApproved, p.Status)
	assert.Equal(t, admin.ID, p.ReviewedBy)
	msgs := emailsvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "awa@test.cd", msgs[0].To[0].Address)

	// a payment is reviewed once
	rec = app.do(http.MethodPost, "/api/admin/payments/"+p.ID+"/reject", adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/subscription", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sub SubscriptionResponse
	unmarshalBody(t, rec, &sub)
	assert.Equal(t, plan.Pro, sub.Plan.ID)
	require.NotNil(t, sub.Subscription)
	assert.Equal(t, billing.SubscriptionActive, sub.Subscription.Status)
	assert.NotNil(t, sub.Subscription.ExpiresAt)

	rec = app.do(http.MethodPost, "/api/subscription/cancel", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/subscription", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub = SubscriptionResponse{}
	unmarshalBody(t, rec, &sub)
	assert.Equal(t, plan.Free, sub.Plan.ID)
	assert.Nil(t, sub.Subscription)
}

func Test_billingApi_rejectedPayment(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, "", true)
	usr := testutil.CreateUser(t, app.usrRepo, "Awa", "awa@test.cd", "", "", plan.Free, true)
	token := getToken(t, app.conf, usr)

	rec := app.do(http.MethodPost, "/api/payments", token,
		marshalObj(t, billing.NewPayment{Plan: plan.Starter, Method: billing.MethodMobileMoney, Reference: "MM-42"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p billing.Payment
	unmarshalBody(t, rec, &p)

	rec = app.do(http.MethodPost, "/api/admin/payments/"+p.ID+"/reject", getToken(t, app.conf, admin),
		[]byte(`{"note": "référence introuvable"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &p)
	assert.Equal(t, billing.PaymentRejected, p.Status)
	assert.Equal(t, "référence introuvable", p.Note)

	got, err := app.usrRepo.GetUser(ctxBg, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, plan.Free, got.Plan)
}

func Test_billingApi_adminPlanReplacesSubscription(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, "", true)
	usr := testutil.CreateUser(t, app.usrRepo, "Awa", "awa@test.cd", "", "", plan.Free, true)
	adminToken := getToken(t, app.conf, admin)
	token := getToken(t, app.conf, usr)

	rec := app.do(http.MethodPost, "/api/payments", token,
		marshalObj(t, billing.NewPayment{Plan: plan.Starter, Method: billing.MethodBankTransfer, Reference: "VIR-7"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p billing.Payment
	unmarshalBody(t, rec, &p)
	rec = app.do(http.MethodPost, "/api/admin/payments/"+p.ID+"/approve", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPut, "/api/admin/users/"+usr.ID, adminToken, marshalObj(t, user.AdminUpdateUser{Plan: plan.Enterprise}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/subscription", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sub SubscriptionResponse
	unmarshalBody(t, rec, &sub)
	assert.Equal(t, plan.Enterprise, sub.Plan.ID)
	assert.Nil(t, sub.Subscription)

	// nothing left to cancel
	rec = app.do(http.MethodPost, "/api/subscription/cancel", token)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_billingApi_cardPayment(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Awa", "awa@test.cd", "", "", plan.Free, true)
	token := getToken(t, app.conf, usr)

	rec := app.do(http.MethodPost, "/api/payments", token, marshalObj(t, billing.NewPayment{Plan: plan.Starter, Method: billing.MethodCard}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p billing.Payment
	unmarshalBody(t, rec, &p)
	assert.Equal(t, "cs_test_"+p.ID, p.Reference)
	assert.Equal(t, "https://checkout.test/cs_test_"+p.ID, p.CheckoutURL)

	webhook := func(signature string, body []byte) int {
		req, rec := newRequest(http.MethodPost, "/api/payments/stripe/webhook", body)
		req.Header.Set("Stripe-Signature", signature)
		app.ServeHTTP(rec, req)
		return rec.Code
	}
	paid := []byte(`{"session_id": "` + p.Reference + `", "paid": true}`)

	assert.Equal(t, http.StatusBadRequest, webhook("forged", paid))
	assert.Equal(t, http.StatusNotFound, webhook("valid", []byte(`{"session_id": "cs_unknown", "paid": true}`)))
	// unpaid sessions are acknowledged and ignored
	assert.Equal(t, http.StatusOK, webhook("valid", []byte(`{"session_id": "`+p.Reference+`", "paid": false}`)))

	got, err := app.usrRepo.GetUser(ctxBg, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, plan.Free, got.Plan)

	require.Equal(t, http.StatusOK, webhook("valid", paid))
	// notifications are delivered at least once
	require.Equal(t, http.StatusOK, webhook("valid", paid))

	got, err = app.usrRepo.GetUser(ctxBg, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, plan.Starter, got.Plan)
	assert.Len(t, emailsvc.SentMessages(), 1)

	rec = app.do(http.MethodGet, "/api/payments", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var payments []billing.Payment
	unmarshalBody(t, rec, &payments)
	require.Len(t, payments, 1)
	assert.Equal(t, billing.PaymentApproved, payments[0].Status)
}
