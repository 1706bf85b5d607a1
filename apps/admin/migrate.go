package main

import (
	"database/sql"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/storage/database"
)

var runMigrationsFunc = func(db *sql.DB, logger core.Logger, command string, args ...string) error { // mockable
	return database.RunMigrations(db, logger, command, args...)
}

func (cli *commandLine) migrate(command string, args ...string) error {
	return runMigrationsFunc(cli.db.DB, cli.logger, command, args...)
}
