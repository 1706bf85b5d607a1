package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/startuplab/backend/core"
	logsvc "github.com/startuplab/backend/services/logger"
	"github.com/startuplab/backend/storage/database"
	"github.com/startuplab/backend/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	zl, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		logger:  logger,
		out:     os.Stdout,
	}
	err = cli.run(os.Args[1:])
	_ = db.Close()
	if err != nil {
		logger.Error(fmt.Sprintf("error: %v", err), err)
		os.Exit(1)
	}
}
