package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/reminderx/backend/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the ordering query param ("field,-other"). Only fields in the
// bindable set survive; anything else is dropped so no raw user input ever
// reaches an ORDER BY clause.
func (ord *Ordering) Bind(ctx echo.Context, bindable ...string) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}

		var known bool
		for _, f := range bindable {
			if f == field {
				known = true
				break
			}
		}
		if !known {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
