package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/task"
)

type taskApi struct {
	svc      *task.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, deps *Deps) {
	api := taskApi{svc: deps.TaskSvc, validate: deps.Validate}
	write := projectMiddleware(deps.ProjectSvc, project.WriteRoles...)

	tg := g.Group("/projects/:id/tasks")
	tg.GET("", api.board, projectMiddleware(deps.ProjectSvc, project.ReadRoles...))
	tg.POST("", api.create, write)
	tg.PUT("/:taskId", api.update, write, api.taskMiddleware)
	tg.PATCH("/:taskId/status", api.updateStatus, write, api.taskMiddleware)
	tg.DELETE("/:taskId", api.destroy, write, api.taskMiddleware)
}

// Handlers

func (api *taskApi) board(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	board, err := api.svc.Board(ctx.Request().Context(), acc.Project.ID)
	if err != nil {
		return errors.Wrap(err, "getting board")
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *taskApi) create(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data task.NewTask
	if err = bindBody(ctx, &data, "NewTask"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), usr, acc.Project.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	t, err := getContextTask(ctx)
	if err != nil {
		return err
	}

	var data task.UpdateTask
	if err = bindBody(ctx, &data, "UpdateTask"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	t, err := getContextTask(ctx)
	if err != nil {
		return err
	}

	var data task.StatusUpdate
	if err = bindBody(ctx, &data, "StatusUpdate"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err = api.svc.UpdateStatus(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	t, err := getContextTask(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), t); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// taskMiddleware loads the `:taskId` task of the project resolved by projectMiddleware.
func (api *taskApi) taskMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		acc, err := getContextAccess(ctx)
		if err != nil {
			return err
		}
		t, err := api.svc.Get(ctx.Request().Context(), acc.Project.ID, ctx.Param("taskId"))
		if err != nil {
			return err
		}
		ctx.Set(contextTaskKey, t)
		return next(ctx)
	}
}

const contextTaskKey = "task"

func getContextTask(ctx echo.Context) (task.Task, error) {
	t, ok := ctx.Get(contextTaskKey).(task.Task)
	if !ok {
		return task.Task{}, errors.Wrap(errObjNotFoundInCtx, "retrieving task from context")
	}
	return t, nil
}
