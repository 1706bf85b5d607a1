package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core/idea"
)

type ideaApi struct {
	svc      *idea.Service
	validate *validator.Validate
}

func registerIdeaAPI(g *echo.Group, deps *Deps) {
	api := ideaApi{svc: deps.IdeaSvc, validate: deps.Validate}

	ig := g.Group("/ideas")
	ig.GET("", api.query)
	ig.POST("", api.create)
	ig.POST("/generate", api.generate)

	// detail endpoints
	dg := ig.Group("/:id", ideaMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/favorite", api.toggleFavorite)
}

// Handlers

func (api *ideaApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	filter := new(idea.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []idea.Idea{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ideas, err := api.svc.List(ctx.Request().Context(), usr, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying ideas")
	}
	if ideas == nil {
		ideas = []idea.Idea{}
	}
	return ctx.JSON(http.StatusOK, ideas)
}

func (api *ideaApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data idea.NewIdea
	if err = bindBody(ctx, &data, "NewIdea"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	i, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating idea")
	}
	return ctx.JSON(http.StatusCreated, i)
}

func (api *ideaApi) generate(ctx echo.Context) error {
	var data idea.GenerateRequest
	if err := bindBody(ctx, &data, "GenerateRequest"); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Generate(data))
}

func (api *ideaApi) retrieve(ctx echo.Context) error {
	i, err := getContextIdea(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *ideaApi) update(ctx echo.Context) error {
	i, err := getContextIdea(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data idea.UpdateIdea
	if err = bindBody(ctx, &data, "UpdateIdea"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	i, err = api.svc.Update(ctx.Request().Context(), usr, i, data)
	if err != nil {
		return errors.Wrap(err, "updating idea")
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *ideaApi) toggleFavorite(ctx echo.Context) error {
	i, err := getContextIdea(ctx)
	if err != nil {
		return err
	}
	i, err = api.svc.ToggleFavorite(ctx.Request().Context(), i)
	if err != nil {
		return errors.Wrap(err, "toggling favorite")
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *ideaApi) destroy(ctx echo.Context) error {
	i, err := getContextIdea(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), i); err != nil {
		return errors.Wrap(err, "deleting idea")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ideaMiddleware loads the `:id` idea of the context user.
func ideaMiddleware(svc *idea.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			i, err := svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, i)
			return next(ctx)
		}
	}
}

func getContextIdea(ctx echo.Context) (idea.Idea, error) {
	i, ok := ctx.Get(contextObjectKey).(idea.Idea)
	if !ok {
		return idea.Idea{}, errors.Wrap(errObjNotFoundInCtx, "retrieving idea from context")
	}
	return i, nil
}
