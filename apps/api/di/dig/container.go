package dig_container

import (
	"fmt"
	"log"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/startuplab/backend/apps/api/echo"
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
	emailsvc "github.com/startuplab/backend/services/email"
	googlesvc "github.com/startuplab/backend/services/google"
	logsvc "github.com/startuplab/backend/services/logger"
	pdfsvc "github.com/startuplab/backend/services/pdf"
	stripesvc "github.com/startuplab/backend/services/stripe"
	"github.com/startuplab/backend/storage/database"
	"github.com/startuplab/backend/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DepsParam gathers the services the HTTP handlers need.
type DepsParam struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Zap        *zap.Logger
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

func newLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	return logsvc.NewRollbarLogger(zl.Named("api"), conf)
}

func newDBLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

// newDB opens and migrates the database.
func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB, loggerParam.Logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newDeps(p DepsParam) *echoapi.Deps {
	var reqLogger *zap.Logger
	if !p.Conf.TestMode {
		reqLogger = p.Zap.Named("http")
	}
	return &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		ReqLogger:     reqLogger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		ProjectSvc:    p.ProjectSvc,
		IdeaSvc:       p.IdeaSvc,
		CanvasSvc:     p.CanvasSvc,
		BrandingSvc:   p.BrandingSvc,
		BizplanSvc:    p.BizplanSvc,
		PitchSvc:      p.PitchSvc,
		TaskSvc:       p.TaskSvc,
		BillingSvc:    p.BillingSvc,
		ProductSvc:    p.ProductSvc,
		AccountingSvc: p.AccountingSvc,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(logsvc.NewZapLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	// outer services
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(googlesvc.NewVerifier))
	must(c.Provide(stripesvc.NewCheckout))
	must(c.Provide(pdfsvc.NewRenderer, dig.As(new(core.PDFRenderer))))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository), new(billing.PlanWriter))))
	must(c.Provide(sqlxrepos.NewProjectRepository, dig.As(new(project.Repository))))
	must(c.Provide(sqlxrepos.NewIdeaRepository, dig.As(new(idea.Repository))))
	must(c.Provide(sqlxrepos.NewWorkspaceRepository, dig.As(
		new(canvas.Repository), new(branding.Repository), new(bizplan.Repository), new(pitch.Repository),
	)))
	must(c.Provide(sqlxrepos.NewTaskRepository, dig.As(new(task.Repository))))
	must(c.Provide(sqlxrepos.NewBillingRepository, dig.As(new(billing.Repository))))
	must(c.Provide(sqlxrepos.NewProductRepository, dig.As(new(product.Repository))))
	must(c.Provide(sqlxrepos.NewAccountingRepository, dig.As(new(accounting.Repository))))

	// domain services
	must(c.Provide(user.NewService))
	must(c.Provide(project.NewService))
	must(c.Provide(func(svc *project.Service) idea.ProjectWriter { return svc }))
	must(c.Provide(func(svc *project.Service) task.ParticipantChecker { return svc }))
	must(c.Provide(func(svc *project.Service) accounting.ProjectWriter { return svc }))
	must(c.Provide(func() *idea.Generator { return idea.NewGenerator(time.Now().UnixNano()) }))
	must(c.Provide(idea.NewService))
	must(c.Provide(canvas.NewService))
	must(c.Provide(func() *branding.Generator { return branding.NewGenerator(time.Now().UnixNano()) }))
	must(c.Provide(branding.NewService))
	must(c.Provide(bizplan.NewService))
	must(c.Provide(pitch.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(billing.NewService))
	must(c.Provide(product.NewService))
	must(c.Provide(func(svc *product.Service) accounting.ProductChecker { return svc }))
	must(c.Provide(accounting.NewService))

	// HTTP
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
