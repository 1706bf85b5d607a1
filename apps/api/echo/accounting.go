package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/accounting"
)

type accountingApi struct {
	svc      *accounting.Service
	validate *validator.Validate
}

func registerAccountingAPI(g *echo.Group, deps *Deps) {
	api := accountingApi{svc: deps.AccountingSvc, validate: deps.Validate}

	ag := g.Group("/accounting", accountingMiddleware(api.svc))
	ag.GET("/entries", api.entries)
	ag.POST("/entries", api.createEntry)
	ag.DELETE("/entries/:id", api.destroyEntry)
	ag.GET("/summary", api.summary)
}

// Handlers

func (api *accountingApi) entries(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	filter := new(accounting.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []accounting.Entry{})
	}
	filter.Clean()

	entries, err := api.svc.List(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "listing entries")
	}
	if entries == nil {
		entries = []accounting.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *accountingApi) createEntry(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data accounting.NewEntry
	if err = bindBody(ctx, &data, "NewEntry"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *accountingApi) destroyEntry(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), e); err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountingApi) summary(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var filter accounting.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "année invalide"})
	}
	filter.Clean()

	s, err := api.svc.Summary(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "summarizing entries")
	}
	return ctx.JSON(http.StatusOK, s)
}
