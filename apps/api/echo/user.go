package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/user"
)

type authApi struct {
	conf     *core.Config
	svc      user.Service
	logger   core.Logger
	validate *validator.Validate
}

func registerAuthAPI(public, authed *echo.Group, deps *Deps) {
	api := authApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	// un-authed endpoints
	pg := public.Group("/auth")
	pg.POST("/register", api.register)
	pg.POST("/login", api.login)
	pg.POST("/face-login", api.faceLogin)
	pg.POST("/google", api.googleLogin)
	pg.POST("/password-reset", api.resetPassword)
	pg.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := authed.Group("/auth")
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.PUT("/me", api.updateMe)
	ag.PUT("/me/face", api.enrollFace)
	ag.DELETE("/me/face", api.removeFace)
}

// Handlers

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := bindBody(ctx, &data, "NewUser"); err != nil {
		return err
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	resp, err := loginResponse(ctx, api.conf, api.svc, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindBody(ctx, &data, "LoginRequest"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	resp, err := loginResponse(ctx, api.conf, api.svc, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) faceLogin(ctx echo.Context) error {
	var data FaceLoginRequest
	if err := bindBody(ctx, &data, "FaceLoginRequest"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.MatchFace(ctx.Request().Context(), data.Descriptor, data.Email)
	if err != nil {
		return err
	}
	resp, err := loginResponse(ctx, api.conf, api.svc, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) googleLogin(ctx echo.Context) error {
	var data GoogleLoginRequest
	if err := bindBody(ctx, &data, "GoogleLoginRequest"); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	usr, err := api.svc.LoginWithGoogle(ctx.Request().Context(), data.Credential)
	if err != nil {
		return err
	}
	resp, err := loginResponse(ctx, api.conf, api.svc, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := bindBody(ctx, &data, "PasswordResetRequest"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "Si cette adresse est associée à un compte actif, vous recevrez sous peu un email " +
			"contenant les instructions pour réinitialiser votre mot de passe.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := bindBody(ctx, &data, "ResetUserPassword"); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Votre mot de passe a été réinitialisé."})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	usr, _ := getContextUser(ctx)
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) updateMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateProfile
	if err = bindBody(ctx, &data, "UpdateProfile"); err != nil {
		return err
	}
	if err = data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) enrollFace(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.FaceEnrollment
	if err = bindBody(ctx, &data, "FaceEnrollment"); err != nil {
		return err
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	usr, err = api.svc.SetFaceDescriptor(ctx.Request().Context(), usr, data.Descriptor)
	if err != nil {
		return errors.Wrap(err, "setting face descriptor")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) removeFace(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.ClearFaceDescriptor(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "clearing face descriptor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	FaceLoginRequest struct {
		Email      string          `json:"email" validate:"omitempty,email"`
		Descriptor user.Descriptor `json:"descriptor" validate:"required,len=128"`
	}

	GoogleLoginRequest struct {
		Credential string `json:"credential" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (fr *FaceLoginRequest) Validate(validate *validator.Validate) error {
	fr.Email = core.CleanString(fr.Email, true /* lower */)
	return validate.Struct(fr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
