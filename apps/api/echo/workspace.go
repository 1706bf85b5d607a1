package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/bizplan"
	"github.com/startuplab/backend/core/branding"
	"github.com/startuplab/backend/core/canvas"
	"github.com/startuplab/backend/core/pitch"
	"github.com/startuplab/backend/core/project"
)

// workspaceApi serves the one-per-project documents: business model canvas, branding, business plan and pitch deck.
type workspaceApi struct {
	canvasSvc   *canvas.Service
	brandingSvc *branding.Service
	bizplanSvc  *bizplan.Service
	pitchSvc    *pitch.Service
	validate    *validator.Validate
}

func registerWorkspaceAPI(g *echo.Group, deps *Deps) {
	api := workspaceApi{
		canvasSvc:   deps.CanvasSvc,
		brandingSvc: deps.BrandingSvc,
		bizplanSvc:  deps.BizplanSvc,
		pitchSvc:    deps.PitchSvc,
		validate:    deps.Validate,
	}
	read := projectMiddleware(deps.ProjectSvc, project.ReadRoles...)
	write := projectMiddleware(deps.ProjectSvc, project.WriteRoles...)

	// plain routes: a "/projects/:id" group would shadow the project detail endpoints
	g.GET("/projects/:id/business-model", api.getCanvas, read)
	g.PUT("/projects/:id/business-model", api.saveCanvas, write)

	g.GET("/projects/:id/branding", api.getBranding, read)
	g.PUT("/projects/:id/branding", api.saveBranding, write)

	g.GET("/projects/:id/business-plan", api.getBusinessPlan, read)
	g.PUT("/projects/:id/business-plan", api.saveBusinessPlan, write)
	g.POST("/projects/:id/business-plan/export", api.exportBusinessPlan, write)

	g.GET("/projects/:id/pitch-deck", api.getPitchDeck, read)
	g.PUT("/projects/:id/pitch-deck", api.savePitchDeck, write)
	g.POST("/projects/:id/pitch-deck/export", api.exportPitchDeck, write)

	// generators, sized by the plan of the context user
	bg := g.Group("/branding")
	bg.POST("/names", api.suggestNames)
	bg.POST("/slogans", api.suggestSlogans)
	bg.POST("/logos", api.suggestLogos)
}

// Business model canvas

func (api *workspaceApi) getCanvas(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	bm, err := api.canvasSvc.Get(ctx.Request().Context(), acc.Project.ID)
	if err != nil {
		return errors.Wrap(err, "getting business model")
	}
	return ctx.JSON(http.StatusOK, canvasResponse{BusinessModel: bm, Completion: bm.Completion()})
}

func (api *workspaceApi) saveCanvas(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}

	var data canvas.BusinessModel
	if err = bindBody(ctx, &data, "BusinessModel"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	bm, err := api.canvasSvc.Save(ctx.Request().Context(), acc.Project.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving business model")
	}
	return ctx.JSON(http.StatusOK, canvasResponse{BusinessModel: bm, Completion: bm.Completion()})
}

// Branding

func (api *workspaceApi) getBranding(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	b, err := api.brandingSvc.Get(ctx.Request().Context(), acc.Project.ID)
	if err != nil {
		return errors.Wrap(err, "getting branding")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *workspaceApi) saveBranding(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}

	var data branding.Branding
	if err = bindBody(ctx, &data, "Branding"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.brandingSvc.Save(ctx.Request().Context(), acc.Project.ID, acc.Project.OwnerPlan, data)
	if err != nil {
		return errors.Wrap(err, "saving branding")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *workspaceApi) suggestNames(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data branding.NameRequest
	if err = bindBody(ctx, &data, "NameRequest"); err != nil {
		return err
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.brandingSvc.SuggestNames(usr.Plan, data))
}

func (api *workspaceApi) suggestSlogans(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data branding.SloganRequest
	if err = bindBody(ctx, &data, "SloganRequest"); err != nil {
		return err
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.brandingSvc.SuggestSlogans(usr.Plan, data))
}

func (api *workspaceApi) suggestLogos(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data LogoRequest
	if err = bindBody(ctx, &data, "LogoRequest"); err != nil {
		return err
	}
	data.Style = core.CleanString(data.Style, true /* lower */)
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	logos, err := api.brandingSvc.SuggestLogos(usr.Plan, core.CleanString(data.Industry), data.LogoRequest)
	if err != nil {
		return errors.Wrap(err, "suggesting logos")
	}
	return ctx.JSON(http.StatusOK, logos)
}

// Business plan

func (api *workspaceApi) getBusinessPlan(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	bp, err := api.bizplanSvc.Get(ctx.Request().Context(), acc.Project.ID)
	if err != nil {
		return errors.Wrap(err, "getting business plan")
	}
	return ctx.JSON(http.StatusOK, bp)
}

func (api *workspaceApi) saveBusinessPlan(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}

	var data bizplan.BusinessPlan
	if err = bindBody(ctx, &data, "BusinessPlan"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	bp, err := api.bizplanSvc.Save(ctx.Request().Context(), acc.Project.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving business plan")
	}
	return ctx.JSON(http.StatusOK, bp)
}

func (api *workspaceApi) exportBusinessPlan(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data bizplan.ExportRequest
	if err = bindBody(ctx, &data, "ExportRequest"); err != nil {
		return err
	}

	bp, err := api.bizplanSvc.Export(ctx.Request().Context(), usr, acc.Project, data)
	if err != nil {
		return errors.Wrap(err, "exporting business plan")
	}
	return ctx.JSON(http.StatusOK, bp)
}

// Pitch deck

func (api *workspaceApi) getPitchDeck(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	d, err := api.pitchSvc.Get(ctx.Request().Context(), acc.Project)
	if err != nil {
		return errors.Wrap(err, "getting pitch deck")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *workspaceApi) savePitchDeck(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}

	var data pitch.Deck
	if err = bindBody(ctx, &data, "Deck"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.pitchSvc.Save(ctx.Request().Context(), acc.Project, data)
	if err != nil {
		return errors.Wrap(err, "saving pitch deck")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *workspaceApi) exportPitchDeck(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data pitch.ExportRequest
	if err = bindBody(ctx, &data, "ExportRequest"); err != nil {
		return err
	}

	d, err := api.pitchSvc.Export(ctx.Request().Context(), usr, acc.Project, data)
	if err != nil {
		return errors.Wrap(err, "exporting pitch deck")
	}
	return ctx.JSON(http.StatusOK, d)
}

type (
	canvasResponse struct {
		canvas.BusinessModel
		Completion int `json:"completion"`
	}

	// LogoRequest adds the industry the icons are picked from.
	LogoRequest struct {
		branding.LogoRequest
		Industry string `json:"industry" validate:"max=120"`
	}
)
