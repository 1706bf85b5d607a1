package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core/bizplan"
	"github.com/startuplab/backend/core/branding"
	"github.com/startuplab/backend/core/pitch"
	"github.com/startuplab/backend/core/plan"
	emailsvc "github.com/startuplab/backend/services/email"
	"github.com/startuplab/backend/testutil"
)

func Test_workspaceApi_businessModel(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, app.usrRepo, "Owner", "owner@test.cd", "", "", "", true)
	p := testutil.CreateProject(t, app.projRepo, owner, "Lab")
	token := getToken(t, app.conf, owner)
	path := "/api/projects/" + p.ID + "/business-model"

	var resp struct {
		ProjectID  string `json:"project_id"`
		Channels   string `json:"channels"`
		Completion int    `json:"completion"`
	}

	// never saved: an empty canvas
	rec := app.do(http.MethodGet, path, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &resp)
	assert.Equal(t, 0, resp.Completion)

	rec = app.do(http.MethodPut, path, token, []byte(`{"channels": " web ", "value_propositions": "faster", "cost_structure": ""}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &resp)
	assert.Equal(t, p.ID, resp.ProjectID)
	assert.Equal(t, "web", resp.Channels)
	assert.Equal(t, 2, resp.Completion)

	rec = app.do(http.MethodGet, path, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &resp)
	assert.Equal(t, 2, resp.Completion)

	rec = app.do(http.MethodPut, path, token, []byte(`{"channels": "`+strings.Repeat("x", 5001)+`"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func Test_workspaceApi_branding(t *testing.T) {
	app := setup(t)
	free := testutil.CreateUser(t, app.usrRepo, "Free", "free@test.cd", "", "", plan.Free, true)
	starter := testutil.CreateUser(t, app.usrRepo, "Starter", "starter@test.cd", "", "", plan.Starter, true)
	freeP := testutil.CreateProject(t, app.projRepo, free, "Lab")
	starterP := testutil.CreateProject(t, app.projRepo, starter, "Lab")
	freeToken := getToken(t, app.conf, free)
	starterToken := getToken(t, app.conf, starter)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "basic branding on free plan",
			method:   http.MethodPut,
			path:     "/api/projects/" + freeP.ID + "/branding",
			token:    freeToken,
			body:     marshalObj(t, branding.Branding{BrandName: "Lab", PrimaryColor: "#112233", LogoStyle: "minimal"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "secondary color needs advanced branding",
			method:   http.MethodPut,
			path:     "/api/projects/" + freeP.ID + "/branding",
			token:    freeToken,
			body:     marshalObj(t, branding.Branding{BrandName: "Lab", SecondaryColor: "#445566"}),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "advanced branding on starter plan",
			method:   http.MethodPut,
			path:     "/api/projects/" + starterP.ID + "/branding",
			token:    starterToken,
			body:     marshalObj(t, branding.Branding{BrandName: "Lab", SecondaryColor: "#445566", LogoStyle: "emblem"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "premium logo style",
			method:   http.MethodPut,
			path:     "/api/projects/" + starterP.ID + "/branding",
			token:    starterToken,
			body:     marshalObj(t, branding.Branding{BrandName: "Lab", LogoStyle: "mascot"}),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "invalid color",
			method:   http.MethodPut,
			path:     "/api/projects/" + starterP.ID + "/branding",
			token:    starterToken,
			body:     marshalObj(t, branding.Branding{BrandName: "Lab", PrimaryColor: "blue"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "slogans need a brand name",
			method:   http.MethodPost,
			path:     "/api/branding/slogans",
			token:    freeToken,
			body:     []byte(`{"industry": "food"}`),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("suggestion count follows the plan", func(t *testing.T) {
		body := marshalObj(t, branding.NameRequest{Keywords: []string{"lab", "idea"}, Industry: "tech"})

		rec := app.do(http.MethodPost, "/api/branding/names", freeToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var names []string
		unmarshalBody(t, rec, &names)
		assert.Len(t, names, 3)

		rec = app.do(http.MethodPost, "/api/branding/names", starterToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &names)
		assert.Len(t, names, 6)
	})

	t.Run("logo styles follow the plan", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/branding/logos", freeToken, []byte(`{"brand_name": "Lab", "style": "geometric"}`))
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		rec = app.do(http.MethodPost, "/api/branding/logos", freeToken, []byte(`{"brand_name": "Lab", "industry": "food"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var logos []branding.LogoSuggestion
		unmarshalBody(t, rec, &logos)
		require.NotEmpty(t, logos)
		for _, l := range logos {
			assert.Contains(t, branding.LogoStyles(plan.Free), l.Style)
		}
	})
}

func Test_workspaceApi_businessPlanExport(t *testing.T) {
	app := setup(t)
	free := testutil.CreateUser(t, app.usrRepo, "Free", "free@test.cd", "", "", plan.Free, true)
	starter := testutil.CreateUser(t, app.usrRepo, "Starter", "starter@test.cd", "", "", plan.Starter, true)
	freeP := testutil.CreateProject(t, app.projRepo, free, "Lab")
	starterP := testutil.CreateProject(t, app.projRepo, starter, "Mon Lab")
	freeToken := getToken(t, app.conf, free)
	starterToken := getToken(t, app.conf, starter)

	// saving is open to every plan
	rec := app.do(http.MethodPut, "/api/projects/"+freeP.ID+"/business-plan", freeToken,
		marshalObj(t, bizplan.BusinessPlan{ExecutiveSummary: "We build labs."}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/projects/"+freeP.ID+"/business-plan/export", freeToken)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPut, "/api/projects/"+starterP.ID+"/business-plan", starterToken,
		marshalObj(t, bizplan.BusinessPlan{ExecutiveSummary: "We build labs.", FundingRequest: "50k"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/projects/"+starterP.ID+"/business-plan/export", starterToken,
		marshalObj(t, bizplan.ExportRequest{SendEmail: true}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bp bizplan.BusinessPlan
	unmarshalBody(t, rec, &bp)
	assert.Equal(t, "50k", bp.FundingRequest)
	require.True(t, strings.HasPrefix(bp.PDFURL, "/files/pdf/mon-lab-business-plan-"), bp.PDFURL)

	msgs := emailsvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "starter@test.cd", msgs[0].To[0].Address)

	// the exported file is served as a static media file
	rec = app.do(http.MethodGet, bp.PDFURL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = app.do(http.MethodGet, "/api/projects/"+starterP.ID+"/business-plan", starterToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got bizplan.BusinessPlan
	unmarshalBody(t, rec, &got)
	assert.Equal(t, bp.PDFURL, got.PDFURL)
}

func Test_workspaceApi_pitchDeck(t *testing.T) {
	app := setup(t)
	starter := testutil.CreateUser(t, app.usrRepo, "Starter", "starter@test.cd", "", "", plan.Starter, true)
	pro := testutil.CreateUser(t, app.usrRepo, "Pro", "pro@test.cd", "", "", plan.Pro, true)
	starterP := testutil.CreateProject(t, app.projRepo, starter, "Lab")
	proP := testutil.CreateProject(t, app.projRepo, pro, "Lab")
	starterToken := getToken(t, app.conf, starter)
	proToken := getToken(t, app.conf, pro)

	// the default outline is readable by everyone
	rec := app.do(http.MethodGet, "/api/projects/"+starterP.ID+"/pitch-deck", starterToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d pitch.Deck
	unmarshalBody(t, rec, &d)
	assert.Equal(t, "Lab", d.Title)
	assert.Len(t, d.Slides, len(pitch.DefaultSlides))

	runHTTPTests(t, app, []httpTest{
		{
			name:     "saving needs the pitch deck feature",
			method:   http.MethodPut,
			path:     "/api/projects/" + starterP.ID + "/pitch-deck",
			token:    starterToken,
			body:     marshalObj(t, d),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "exporting needs the pitch deck feature",
			method:   http.MethodPost,
			path:     "/api/projects/" + starterP.ID + "/pitch-deck/export",
			token:    starterToken,
			wantCode: http.StatusForbidden,
		},
	})

	rec = app.do(http.MethodPost, "/api/projects/"+proP.ID+"/pitch-deck/export", proToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &d)
	assert.NotEmpty(t, d.PDFURL)
	assert.Empty(t, emailsvc.SentMessages())

	rec = app.do(http.MethodGet, d.PDFURL, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
