package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	. "github.com/startuplab/backend/apps/api/echo"
	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/accounting"
	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/bizplan"
	"github.com/startuplab/backend/core/branding"
	"github.com/startuplab/backend/core/canvas"
	"github.com/startuplab/backend/core/idea"
	"github.com/startuplab/backend/core/pitch"
	"github.com/startuplab/backend/core/product"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/task"
	"github.com/startuplab/backend/core/user"
	emailsvc "github.com/startuplab/backend/services/email"
	logsvc "github.com/startuplab/backend/services/logger"
	pdfsvc "github.com/startuplab/backend/services/pdf"
	"github.com/startuplab/backend/storage/database/sqlxrepos"
	"github.com/startuplab/backend/testutil"
)

var ctxBg = context.Background()

// testApp is a server wired on a fresh database.
type testApp struct {
	Server
	conf     *core.Config
	usrRepo  user.Repository
	projRepo project.Repository
	checkout *fakeCheckout
}

func setup(t *testing.T) *testApp {
	conf := testutil.NewConfig(t)

	// set up DB & repos
	db := testutil.PrepareDB(t, conf)
	usrRepo := sqlxrepos.NewUserRepository(db)
	projRepo := sqlxrepos.NewProjectRepository(db)
	workspaceRepo := sqlxrepos.NewWorkspaceRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	renderer := pdfsvc.NewRenderer()
	checkout := &fakeCheckout{sessions: make(map[string]bool)}

	usrSvc := user.NewServiceMock(usrRepo, mailSvc, nil /* verifier */, conf)
	projectSvc := project.NewService(db, projRepo, mailSvc)
	productSvc := product.NewService(sqlxrepos.NewProductRepository(db))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	project.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	branding.InitValidators(validate, translator)
	product.InitValidators(validate, translator)

	// set up server
	srv := NewServer(&Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		ProjectSvc:    projectSvc,
		IdeaSvc:       idea.NewService(sqlxrepos.NewIdeaRepository(db), projectSvc, idea.NewGenerator(1)),
		CanvasSvc:     canvas.NewService(workspaceRepo),
		BrandingSvc:   branding.NewService(workspaceRepo, branding.NewGenerator(1)),
		BizplanSvc:    bizplan.NewService(workspaceRepo, renderer, mailSvc, conf),
		PitchSvc:      pitch.NewService(workspaceRepo, renderer, mailSvc, conf),
		TaskSvc:       task.NewService(sqlxrepos.NewTaskRepository(db), projectSvc),
		BillingSvc:    billing.NewService(db, sqlxrepos.NewBillingRepository(db), usrRepo, checkout, mailSvc),
		ProductSvc:    productSvc,
		AccountingSvc: accounting.NewService(sqlxrepos.NewAccountingRepository(db), productSvc, projectSvc),
	})
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{Server: srv, conf: conf, usrRepo: usrRepo, projRepo: projRepo, checkout: checkout}
}

// fakeCheckout opens fake card sessions; a webhook is valid when its signature is "valid".
type fakeCheckout struct {
	sessions map[string]bool
}

func (c *fakeCheckout) CreateCheckout(_ context.Context, p billing.Payment, _ string) (string, string, error) {
	sessionID := "cs_test_" + p.ID
	c.sessions[sessionID] = true
	return sessionID, "https://checkout.test/" + sessionID, nil
}

func (c *fakeCheckout) ParseWebhook(payload []byte, signature string) (billing.CheckoutEvent, error) {
	if signature != "valid" {
		return billing.CheckoutEvent{}, billing.ErrInvalidWebhook
	}
	var ev struct {
		SessionID string `json:"session_id"`
		Paid      bool   `json:"paid"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return billing.CheckoutEvent{}, errors.Wrap(billing.ErrInvalidWebhook, err.Error())
	}
	return billing.CheckoutEvent{SessionID: ev.SessionID, Paid: ev.Paid}, nil
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves the request and returns the recorder.
func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
