package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

const aliasCount = "cnt"

// count returns the number of rows in table that match where.
func (s *Store) count(ctx context.Context, action string, table string, where ...exp.Expression) (int64, error) {
	ds := s.builder.
		From(table).
		Select(goqu.COUNT(goqu.Star()).As(aliasCount)).
		Where(where...)

	sqlQuery, err := s.toSQL(ctx, action, ds)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		return rows.Scan(&count)
	})

	return count, err
}

// containsPattern builds a LIKE pattern that matches fragment anywhere.
// SQLite has no default LIKE escape character, so wildcards inside fragment keep their meaning.
func containsPattern(fragment string) string {
	return "%" + fragment + "%"
}
