// Package sqlxrepos provides PostgreSQL-backed repositories built on sqlx.
package sqlxrepos

import (
	"github.com/lib/pq"

	"github.com/reminderx/backend/core"
)

func pqStrArray(vals []string) pq.StringArray { return pq.StringArray(vals) }

// orderBy renders an ORDER BY clause from orderings, falling back to def.
// Request-bound fields are filtered against a bindable set in
// echoapi.Ordering.Bind before they get here.
func orderBy(ordering []core.DBOrdering, def string) string {
	if len(ordering) == 0 {
		if def == "" {
			return ""
		}
		return " ORDER BY " + def
	}
	clause := " ORDER BY "
	for i, ord := range ordering {
		if i > 0 {
			clause += ", "
		}
		clause += ord.String()
	}
	return clause
}
