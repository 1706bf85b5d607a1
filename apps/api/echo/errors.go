package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "utilisateur non authentifié")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "email ou mot de passe incorrect")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "compte désactivé")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "le rafraîchissement du jeton a expiré")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission refusée")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "introuvable")
	errObjNotFoundInCtx     = errors.New("object not found in echo.Context")

	// status codes of the domain errors that are not validation, not found or permission errors
	domainErrCodes = map[error]int{
		user.ErrFaceNotRecognized:  http.StatusUnauthorized,
		user.ErrInvalidGoogleToken: http.StatusUnauthorized,
		user.ErrGoogleEmailMissing: http.StatusBadRequest,
		user.ErrGoogleUnavailable:  http.StatusServiceUnavailable,
		billing.ErrCardUnavailable: http.StatusServiceUnavailable,
		billing.ErrInvalidWebhook:  http.StatusBadRequest,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = "jeton d'authentification manquant ou mal formé"
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
			if code == http.StatusUnauthorized && origErr.Internal != nil {
				message = "jeton d'authentification invalide ou expiré"
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *core.PermissionError:
			code = http.StatusForbidden
			message = origErr.Error()
		default:
			if plan.IsGateError(cause) {
				code = http.StatusForbidden
				message = cause.Error()
				break
			}
			if c, ok := domainErrCodes[cause]; ok {
				code = c
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			usr, uErr := getContextUser(ctx)
			if uErr != nil {
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr = user.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email}
				}
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
