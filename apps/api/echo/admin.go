package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/product"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/user"
)

type adminApi struct {
	userSvc    user.Service
	projectSvc *project.Service
	billingSvc *billing.Service
	productSvc *product.Service
	validate   *validator.Validate
}

// registerAdminAPI expects g to be restricted to admins.
func registerAdminAPI(g *echo.Group, deps *Deps) {
	api := adminApi{
		userSvc:    deps.UserSvc,
		projectSvc: deps.ProjectSvc,
		billingSvc: deps.BillingSvc,
		productSvc: deps.ProductSvc,
		validate:   deps.Validate,
	}

	g.GET("/stats", api.stats)

	g.GET("/users", api.queryUsers)
	g.PUT("/users/:id", api.updateUser)
	g.DELETE("/users/:id", api.destroyUser)

	g.GET("/payments", api.queryPayments)
	g.POST("/payments/:id/approve", api.approvePayment)
	g.POST("/payments/:id/reject", api.rejectPayment)

	g.GET("/user-products", api.queryUserProducts)
	g.POST("/user-products/:id/approve", api.approveUserProduct)
	g.POST("/user-products/:id/reject", api.rejectUserProduct)

	g.GET("/products", api.queryProducts)
	g.POST("/products", api.createProduct)
	g.PUT("/products/:id", api.updateProduct)
	g.DELETE("/products/:id", api.destroyProduct)
}

// Handlers

func (api *adminApi) stats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	byPlan, err := api.userSvc.CountByPlan(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting users by plan")
	}
	var users int
	for _, n := range byPlan {
		users += n
	}
	projects, err := api.projectSvc.Count(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting projects")
	}
	billingStats, err := api.billingSvc.Stats(reqCtx)
	if err != nil {
		return errors.Wrap(err, "computing billing stats")
	}

	return ctx.JSON(http.StatusOK, AdminStats{
		Users:       users,
		UsersByPlan: byPlan,
		Projects:    projects,
		Stats:       billingStats,
	})
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.userSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) updateUser(ctx echo.Context) error {
	usr, err := api.userSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data user.AdminUpdateUser
	if err = bindBody(ctx, &data, "AdminUpdateUser"); err != nil {
		return err
	}
	if err = data.Validate(usr, api.validate, api.userSvc); err != nil {
		return err
	}

	// an admin cannot demote or deactivate themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if usr.ID == ctxUsr.ID && (data.Role != user.RoleAdmin || (data.IsActive != nil && !*data.IsActive)) {
		return errHttpForbidden
	}

	origPlan := usr.Plan
	usr, err = api.userSvc.AdminUpdate(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	// the granted plan outlives any subscription bought before
	if usr.Plan != origPlan {
		if err = api.billingSvc.Revoke(ctx.Request().Context(), usr.ID); err != nil {
			return errors.Wrap(err, "revoking subscription")
		}
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) destroyUser(ctx echo.Context) error {
	usr, err := api.userSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err = api.userSvc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryPayments(ctx echo.Context) error {
	filter := new(billing.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []billing.Payment{})
	}
	filter.Clean()

	payments, err := api.billingSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []billing.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

// reviewPayment loads the `:id` payment and the review note before approving or rejecting it.
func (api *adminApi) reviewPayment(
	ctx echo.Context,
	review func(ctx echo.Context, admin user.User, p billing.Payment, r billing.Review) (billing.Payment, error),
) error {
	admin, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	p, err := api.billingSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data billing.Review
	if err = bindBody(ctx, &data, "Review"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if p, err = review(ctx, admin, p, data); err != nil {
		return errors.Wrap(err, "reviewing payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *adminApi) approvePayment(ctx echo.Context) error {
	return api.reviewPayment(ctx, func(ctx echo.Context, admin user.User, p billing.Payment, r billing.Review) (billing.Payment, error) {
		return api.billingSvc.Approve(ctx.Request().Context(), admin, p, r)
	})
}

func (api *adminApi) rejectPayment(ctx echo.Context) error {
	return api.reviewPayment(ctx, func(ctx echo.Context, admin user.User, p billing.Payment, r billing.Review) (billing.Payment, error) {
		return api.billingSvc.Reject(ctx.Request().Context(), admin, p, r)
	})
}

func (api *adminApi) queryUserProducts(ctx echo.Context) error {
	filter := new(product.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []product.UserProduct{})
	}

	requests, err := api.productSvc.QueryRequests(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying product requests")
	}
	if requests == nil {
		requests = []product.UserProduct{}
	}
	return ctx.JSON(http.StatusOK, requests)
}

func (api *adminApi) approveUserProduct(ctx echo.Context) error {
	up, err := api.productSvc.GetRequest(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if up, err = api.productSvc.Approve(ctx.Request().Context(), up); err != nil {
		return errors.Wrap(err, "approving product request")
	}
	return ctx.JSON(http.StatusOK, up)
}

func (api *adminApi) rejectUserProduct(ctx echo.Context) error {
	up, err := api.productSvc.GetRequest(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if up, err = api.productSvc.Reject(ctx.Request().Context(), up); err != nil {
		return errors.Wrap(err, "rejecting product request")
	}
	return ctx.JSON(http.StatusOK, up)
}

func (api *adminApi) queryProducts(ctx echo.Context) error {
	products, err := api.productSvc.All(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing products")
	}
	if products == nil {
		products = []product.Product{}
	}
	return ctx.JSON(http.StatusOK, products)
}

func (api *adminApi) createProduct(ctx echo.Context) error {
	var data product.NewProduct
	if err := bindBody(ctx, &data, "NewProduct"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.productSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating product")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *adminApi) updateProduct(ctx echo.Context) error {
	p, err := api.productSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data product.UpdateProduct
	if err = bindBody(ctx, &data, "UpdateProduct"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if p, err = api.productSvc.Update(ctx.Request().Context(), p, data); err != nil {
		return errors.Wrap(err, "updating product")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *adminApi) destroyProduct(ctx echo.Context) error {
	p, err := api.productSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = api.productSvc.Delete(ctx.Request().Context(), p); err != nil {
		return errors.Wrap(err, "deleting product")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type AdminStats struct {
	billing.Stats
	Users       int            `json:"users"`
	UsersByPlan map[string]int `json:"users_by_plan"`
	Projects    int            `json:"projects"`
}
