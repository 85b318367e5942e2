package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// ProductCatalog читает товары из таблицы products.
type ProductCatalog struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewProductCatalog создаёт каталог поверх Store.
func NewProductCatalog(store *Store) *ProductCatalog {
	return &ProductCatalog{
		db: store.DB(),
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetProduct возвращает товар или ErrProductNotFound.
func (c *ProductCatalog) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := c.sb.Select("id", "name", "price").
		From("products").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("build select product: %w", err)
	}

	var p domain.Product
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

// Upsert создаёт товар или обновляет имя и цену существующего.
// Нужен для начального наполнения каталога и тестов.
func (c *ProductCatalog) Upsert(ctx context.Context, p domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := c.sb.Insert("products").
		Columns("id", "name", "price").
		Values(p.ID, p.Name, p.Price).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert product: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert product %d: %w", p.ID, err)
	}
	return nil
}

var _ domain.ProductCatalog = (*ProductCatalog)(nil)
