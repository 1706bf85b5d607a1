package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core/project"
)

type projectApi struct {
	svc      *project.Service
	validate *validator.Validate
}

func registerProjectAPI(g *echo.Group, deps *Deps) {
	api := projectApi{svc: deps.ProjectSvc, validate: deps.Validate}
	access := func(roles ...string) echo.MiddlewareFunc { return projectMiddleware(api.svc, roles...) }

	pg := g.Group("/projects")
	pg.GET("", api.list)
	pg.POST("", api.create)

	// detail endpoints
	pg.GET("/:id", api.retrieve, access(project.ReadRoles...))
	pg.PUT("/:id", api.update, access(project.ManageRoles...))
	pg.DELETE("/:id", api.destroy, access(project.DeleteRoles...))

	// team
	pg.GET("/:id/team", api.team, access(project.ReadRoles...))
	pg.POST("/:id/team", api.invite, access(project.ManageRoles...))
	pg.PUT("/:id/team/:memberId", api.updateMember, access(project.ManageRoles...))
	pg.DELETE("/:id/team/:memberId", api.removeMember, access(project.ManageRoles...))

	// invitations received by the context user
	ig := g.Group("/invitations")
	ig.GET("", api.invitations)
	ig.POST("/:memberId/accept", api.acceptInvitation)
	ig.POST("/:memberId/decline", api.declineInvitation)
}

// Handlers

func (api *projectApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	projects, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *projectApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data project.NewProject
	if err = bindBody(ctx, &data, "NewProject"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	p := acc.Project
	p.Role = acc.Role
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) update(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}

	var data project.UpdateProject
	if err = bindBody(ctx, &data, "UpdateProject"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), acc, data)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) destroy(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), acc); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) team(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	members, err := api.svc.Team(ctx.Request().Context(), acc)
	if err != nil {
		return errors.Wrap(err, "listing team members")
	}
	if members == nil {
		members = []project.TeamMember{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *projectApi) invite(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data project.NewTeamMember
	if err = bindBody(ctx, &data, "NewTeamMember"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Invite(ctx.Request().Context(), acc, usr, data)
	if err != nil {
		return errors.Wrap(err, "inviting team member")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *projectApi) updateMember(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}

	var data project.UpdateTeamMember
	if err = bindBody(ctx, &data, "UpdateTeamMember"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.UpdateMember(ctx.Request().Context(), acc, ctx.Param("memberId"), data)
	if err != nil {
		return errors.Wrap(err, "updating team member")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *projectApi) removeMember(ctx echo.Context) error {
	acc, err := getContextAccess(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RemoveMember(ctx.Request().Context(), acc, ctx.Param("memberId")); err != nil {
		return errors.Wrap(err, "removing team member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) invitations(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	invitations, err := api.svc.Invitations(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing invitations")
	}
	if invitations == nil {
		invitations = []project.Invitation{}
	}
	return ctx.JSON(http.StatusOK, invitations)
}

func (api *projectApi) acceptInvitation(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.AcceptInvitation(ctx.Request().Context(), usr, ctx.Param("memberId"))
	if err != nil {
		return errors.Wrap(err, "accepting invitation")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *projectApi) declineInvitation(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeclineInvitation(ctx.Request().Context(), usr, ctx.Param("memberId")); err != nil {
		return errors.Wrap(err, "declining invitation")
	}
	return ctx.NoContent(http.StatusNoContent)
}
