package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dig_container "github.com/startuplab/backend/apps/api/di/dig"
	echoapi "github.com/startuplab/backend/apps/api/echo"
	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/branding"
	"github.com/startuplab/backend/core/product"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/task"
	"github.com/startuplab/backend/core/user"
)

func main() {
	c := dig_container.New()
	if err := c.Invoke(run); err != nil {
		log.Fatal(err)
	}
}

func run(
	conf *core.Config,
	apiLogger core.Logger,
	zl *zap.Logger,
	db *sqlx.DB,
	validate *validator.Validate,
	translator ut.Translator,
	server echoapi.Server,
) error {
	// =========================================================================
	// Initialize App

	apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer func() { _ = zl.Sync() }()

	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	project.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	branding.InitValidators(validate, translator)
	product.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, apiLogger)

	defer func() {
		if err := db.Close(); err != nil {
			apiLogger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	defer apiLogger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	debugSrv := &http.Server{Addr: conf.Server.DebugHost, Handler: http.DefaultServeMux}

	var g errgroup.Group
	g.Go(func() error {
		if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
		return nil
	})

	// =========================================================================
	// Start API Service

	g.Go(func() error {
		apiLogger.Info("API listening on " + conf.Server.Address)
		server.Start()
		return nil
	})

	// =========================================================================
	// Shutdown

	g.Go(func() error {
		defer func() { _ = debugSrv.Close() }()

		select {
		case err := <-server.Errors():
			return errors.Wrap(err, "server error")

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					return errors.Wrap(err, "could not force stop server")
				}
			}
			return nil
		}
	})

	return g.Wait()
}
