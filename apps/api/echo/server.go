package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/accounting"
	"github.com/startuplab/backend/core/billing"
	"github.com/startuplab/backend/core/bizplan"
	"github.com/startuplab/backend/core/branding"
	"github.com/startuplab/backend/core/canvas"
	"github.com/startuplab/backend/core/idea"
	"github.com/startuplab/backend/core/pitch"
	"github.com/startuplab/backend/core/product"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/task"
	"github.com/startuplab/backend/core/user"
)

type (
	// Deps holds everything the handlers need.
	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		ReqLogger  *zap.Logger // nil disables access logs
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       user.Service
		ProjectSvc    *project.Service
		IdeaSvc       *idea.Service
		CanvasSvc     *canvas.Service
		BrandingSvc   *branding.Service
		BizplanSvc    *bizplan.Service
		PitchSvc      *pitch.Service
		TaskSvc       *task.Service
		BillingSvc    *billing.Service
		ProductSvc    *product.Service
		AccountingSvc *accounting.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     *Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps *Deps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if s.deps.ReqLogger != nil {
		s.app.Use(requestLogger(s.deps.ReqLogger))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.Static(conf.MediaURL, conf.MediaDir)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))
	authed := api.Group("", jwt, userMiddleware(s.deps.UserSvc, s.deps.BillingSvc))

	registerAuthAPI(api, authed, s.deps)
	registerProjectAPI(authed, s.deps)
	registerIdeaAPI(authed, s.deps)
	registerWorkspaceAPI(authed, s.deps)
	registerTaskAPI(authed, s.deps)
	registerBillingAPI(api, authed, s.deps)
	registerProductAPI(api, authed, s.deps)
	registerAccountingAPI(authed, s.deps)
	registerAdminAPI(authed.Group("/admin", adminMiddleware), s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Bienvenue sur l'API StartUpLab !"})
}
