package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core/product"
)

type productApi struct {
	svc *product.Service
}

func registerProductAPI(public, authed *echo.Group, deps *Deps) {
	api := productApi{svc: deps.ProductSvc}

	public.GET("/products", api.catalog)
	authed.GET("/products/mine", api.mine)
	authed.POST("/products/:id/request", api.request)
}

// Handlers

func (api *productApi) catalog(ctx echo.Context) error {
	products, err := api.svc.Catalog(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing products")
	}
	if products == nil {
		products = []product.Product{}
	}
	return ctx.JSON(http.StatusOK, products)
}

func (api *productApi) mine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	requests, err := api.svc.Mine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing product requests")
	}
	if requests == nil {
		requests = []product.UserProduct{}
	}
	return ctx.JSON(http.StatusOK, requests)
}

func (api *productApi) request(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	up, err := api.svc.Request(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "requesting product")
	}
	return ctx.JSON(http.StatusCreated, up)
}
