package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/startuplab/backend/core"
	appfs "github.com/startuplab/backend/fs"
)

const (
	driverName    = "sqlite"
	migrationsDir = "migrations"
)

var gooseInit sync.Once

func dsn(conf *core.Config) string {
	busyTimeout := conf.Database.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_time_format", "sqlite")
	return "file:" + conf.Database.Path + "?" + q.Encode()
}

// Open opens the SQLite database at conf.Database.Path, creating its directory if needed.
// A single connection is kept open: SQLite allows one writer at a time.
func Open(conf *core.Config) (*sqlx.DB, error) {
	if dir := filepath.Dir(conf.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating database dir")
		}
	}

	sqlx.BindDriver(driverName, sqlx.QUESTION)
	db, err := sqlx.Open(driverName, dsn(conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// gooseLogger writes the migration logs through the app logger.
type gooseLogger struct {
	logger core.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(fmt.Sprintf(format, v...))
}

func initGoose(logger core.Logger) error {
	var err error
	gooseInit.Do(func() {
		goose.SetBaseFS(appfs.FS)
		if logger == nil {
			goose.SetLogger(goose.NopLogger())
		} else {
			goose.SetLogger(gooseLogger{logger})
		}
		err = goose.SetDialect("sqlite3")
	})
	return err
}

// Migrate applies the pending embedded migrations.
func Migrate(db *sql.DB, logger core.Logger) error {
	if err := initGoose(logger); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, version, redo, reset...).
func RunMigrations(db *sql.DB, logger core.Logger, command string, args ...string) error {
	if err := initGoose(logger); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}
