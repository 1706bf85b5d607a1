package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=-created_at,name`; a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindBody binds the request body into data, turning malformed payloads into a 400.
func bindBody(ctx echo.Context, data interface{}, name string) error {
	if err := ctx.Bind(data); err != nil {
		if _, ok := err.(*echo.HTTPError); ok {
			return core.NewValidationError(errors.New("données invalides"))
		}
		return errors.Wrapf(err, "binding to %s", name)
	}
	return nil
}
