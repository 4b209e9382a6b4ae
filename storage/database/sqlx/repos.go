// Package sqlxrepos implements the domain repositories on postgres via sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/trezcool/miradi/core"
)

func orderColumns(cols ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		set[col] = struct{}{}
	}
	return set
}

// orderBy renders an ORDER BY clause from the requested ordering. Field names
// reach the SQL text, so anything outside the repo's column set is dropped.
func orderBy(ordering []core.DBOrdering, columns map[string]struct{}) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if _, ok := columns[ord.Field]; !ok {
			continue
		}
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}
