package echoapi

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/plan"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBodyBytes   = 65536
)

type billingApi struct {
	svc      *billing.Service
	validate *validator.Validate
}

func registerBillingAPI(public, authed *echo.Group, deps *Deps) {
	api := billingApi{svc: deps.BillingSvc, validate: deps.Validate}

	// un-authed endpoints
	public.GET("/plans", api.plans)
	public.POST("/payments/stripe/webhook", api.stripeWebhook)

	// authed endpoints
	authed.GET("/subscription", api.subscription)
	authed.POST("/subscription/cancel", api.cancelSubscription)
	authed.GET("/payments", api.payments)
	authed.POST("/payments", api.createPayment)
}

// Handlers

func (api *billingApi) plans(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, plan.All())
}

func (api *billingApi) subscription(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	resp := SubscriptionResponse{Plan: plan.Get(usr.Plan)}
	s, err := api.svc.Current(ctx.Request().Context(), usr)
	switch {
	case err == nil:
		resp.Subscription = &s
	case errors.Cause(err) != billing.ErrNoSubscription:
		return errors.Wrap(err, "getting current subscription")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *billingApi) cancelSubscription(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Cancel(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "cancelling subscription")
	}
	return ctx.JSON(http.StatusOK, SubscriptionResponse{Plan: plan.Get(plan.Free)})
}

func (api *billingApi) payments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	payments, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	if payments == nil {
		payments = []billing.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *billingApi) createPayment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data billing.NewPayment
	if err = bindBody(ctx, &data, "NewPayment"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *billingApi) stripeWebhook(ctx echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return errors.Wrap(err, "reading webhook payload")
	}
	err = api.svc.CompleteCheckout(ctx.Request().Context(), payload, ctx.Request().Header.Get(stripeSignatureHeader))
	if err != nil {
		return errors.Wrap(err, "completing checkout")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"received": true})
}

type SubscriptionResponse struct {
	Plan         plan.Plan             `json:"plan"`
	Subscription *billing.Subscription `json:"subscription"`
}
