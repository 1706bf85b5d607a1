package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/accounting"
	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/user"
)

const contextObjectKey = "object"

// userMiddleware loads the authenticated user, downgrading their plan if their subscription expired.
func userMiddleware(svc user.Service, billingSvc *billing.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			reqCtx := ctx.Request().Context()
			usr, err := svc.GetByID(reqCtx, claims.Subject)
			if err != nil {
				if core.IsNotFound(err) {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			if billingSvc != nil {
				if usr, err = billingSvc.Refresh(reqCtx, usr); err != nil {
					return errors.Wrap(err, "refreshing subscription")
				}
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if usr.IsAdmin() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// projectMiddleware resolves the access of the context user on the `:id` project.
// roles restricts the team roles allowed through; none lets every participant in.
func projectMiddleware(svc *project.Service, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			acc, err := svc.ResolveAccess(ctx.Request().Context(), usr, ctx.Param("id"), roles...)
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, acc)
			return next(ctx)
		}
	}
}

func getContextAccess(ctx echo.Context) (project.Access, error) {
	acc, ok := ctx.Get(contextObjectKey).(project.Access)
	if !ok {
		return project.Access{}, errors.Wrap(errObjNotFoundInCtx, "retrieving project access from context")
	}
	return acc, nil
}

// accountingMiddleware lets through the users whose plan or products include accounting.
func accountingMiddleware(svc *accounting.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if err = svc.CheckAccess(ctx.Request().Context(), usr); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			req := ctx.Request()
			res := ctx.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", ctx.RealIP()),
				zap.Int64("bytes_out", res.Size),
			}
			if usr, uErr := getContextUser(ctx); uErr == nil {
				fields = append(fields, zap.String("user_id", usr.ID))
			}

			switch {
			case res.Status >= 500:
				logger.Error("request", fields...)
			case res.Status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
