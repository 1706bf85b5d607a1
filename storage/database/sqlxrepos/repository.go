// Package sqlxrepos implements the domain repositories on SQLite with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/startuplab/backend/core"
)

type repository struct {
	db core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	return core.GetExec(repo.db, svcExec)
}

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on column (any column if empty).
func isUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT || !strings.Contains(se.Error(), "UNIQUE") {
		return false
	}
	return column == "" || strings.Contains(se.Error(), column)
}

// mustAffect returns notFound if res affected no row.
func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func count(ctx context.Context, exe core.DBExecutor, query string, args ...interface{}) (int, error) {
	var n int
	if err := exe.GetContext(ctx, &n, exe.Rebind(query), args...); err != nil {
		return 0, err
	}
	return n, nil
}

func namedExec(ctx context.Context, exe core.DBExecutor, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, exe, query, arg)
}

// where joins the conditions with AND; it returns an empty string if there are none.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func likeArg(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
