package persistence

import (
	"strings"
)

// sortColumns whitelists the columns a list query may sort by
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

// Clause builds an ORDER BY clause from client input. Unknown columns sort
// by the fallback; anything but "asc" sorts descending.
func (s sortColumns) Clause(column, direction string) string {
	column = strings.TrimSpace(column)
	if _, ok := s.allowed[column]; !ok {
		column = s.fallback
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(direction), "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

var (
	orderSort    = newSortColumns("created_at", "updated_at", "order_code", "total_amount", "status", "completed_at")
	movementSort = newSortColumns("occurred_at", "quantity", "movement_type")
)
