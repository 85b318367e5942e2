package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// schemaConstraint - ограничение order_items, на которое опирается репозиторий заказов.
type schemaConstraint struct {
	name string
	// kind - pg_constraint.contype: c - check, u - unique, f - foreign key.
	kind string
	// cascade - внешний ключ с ON DELETE CASCADE.
	cascade bool
}

var orderItemsConstraints = []schemaConstraint{
	// Нарушение отдаётся клиенту как неизвестный вариант позиции.
	{name: variantCheck, kind: "c"},
	{name: "order_items_position_unique", kind: "u"},
	// Удаление заказа уносит позиции.
	{name: "order_items_order_id_fkey", kind: "f", cascade: true},
}

// VerifySchema проверяет, что в базе есть ограничения order_items, без которых
// нарушится целостность позиций.
func (s *Store) VerifySchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	var missing []string
	for _, c := range orderItemsConstraints {
		b := psql.Select("COUNT(*)").
			From("pg_constraint").
			Where("conrelid = to_regclass(?)", "order_items").
			Where(sq.Eq{"conname": c.name, "contype::text": c.kind})
		if c.cascade {
			b = b.Where(sq.Eq{"confdeltype::text": "c"})
		}
		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build constraint check %s: %w", c.name, err)
		}

		var n int
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return fmt.Errorf("check constraint %s: %w", c.name, err)
		}
		if n == 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("order_items schema is missing constraints: %s", strings.Join(missing, ", "))
	}
	return nil
}
