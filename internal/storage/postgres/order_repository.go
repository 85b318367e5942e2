package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	pgCheckViolation = "23514"
	variantCheck     = "order_items_variant_check"
)

var orderColumns = []string{"id", "customer_name", "pickup_date", "notes", "created_at", "updated_at"}

var itemColumns = []string{
	"oi.id", "oi.order_id", "oi.item_type", "oi.product_id", "oi.amount",
	"oi.custom_name", "oi.custom_price", "oi.price_at_sale", "oi.notes",
	"p.id", "p.name", "p.price",
}

// queryer покрывает и *sql.DB, и *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type orderRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{
		db: store.DB(),
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (id int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := r.sb.Insert("orders").
		Columns("customer_name", "pickup_date", "notes", "created_at", "updated_at").
		Values(order.CustomerName, pickupValue(order.PickupDate), nullString(order.Notes), order.CreatedAt, order.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert order: %w", err)
	}
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	if err = r.insertItems(ctx, tx, id, order.Items); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Order{}, fmt.Errorf("build select order: %w", err)
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, r.db, id)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items[id]
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := r.sb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, r.db, ids...)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// Update выполняет патч заголовка и замену позиций в одной транзакции.
// UPDATE по заголовку берёт блокировку строки заказа до конца транзакции.
func (r *orderRepository) Update(ctx context.Context, id int64, update domain.OrderUpdate) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if update.Header.Empty() && !update.ReplaceItems {
		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return tx.Commit()
	}

	builder := r.sb.Update("orders").
		Set("updated_at", update.UpdatedAt).
		Where(sq.Eq{"id": id})
	if update.Header.CustomerName != nil {
		builder = builder.Set("customer_name", *update.Header.CustomerName)
	}
	if update.Header.PickupDate != nil {
		builder = builder.Set("pickup_date", update.Header.PickupDate.Time())
	}
	if update.Header.Notes != nil {
		builder = builder.Set("notes", nullString(*update.Header.Notes))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update order: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	if update.ReplaceItems {
		if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err = r.insertItems(ctx, tx, id, update.Items); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update order: %w", err)
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := r.sb.Delete("orders").
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, customer_name, pickup_date, notes, created_at, updated_at").
		ToSql()
	if err != nil {
		return domain.Order{}, fmt.Errorf("build delete order: %w", err)
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("delete order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) insertItems(ctx context.Context, q queryer, orderID int64, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := r.sb.Insert("order_items").Columns(
		"order_id", "position", "item_type", "product_id", "amount",
		"custom_name", "custom_price", "price_at_sale", "notes",
	)
	for pos, item := range items {
		row, err := itemRow(orderID, pos, item)
		if err != nil {
			return err
		}
		builder = builder.Values(row...)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert order items: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if isVariantViolation(err) {
			return fmt.Errorf("insert order items: %w", domain.ErrUnknownItemVariant)
		}
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// itemRow раскладывает вариант позиции по nullable-колонкам таблицы.
func itemRow(orderID int64, pos int, item domain.LineItem) ([]any, error) {
	var (
		productID   sql.NullInt64
		amount      sql.NullInt32
		customName  sql.NullString
		customPrice sql.NullInt64
	)
	switch line := item.Line.(type) {
	case domain.ProductLine:
		productID = sql.NullInt64{Int64: line.ProductID, Valid: true}
		amount = sql.NullInt32{Int32: line.Amount, Valid: true}
	case domain.CustomLine:
		customName = sql.NullString{String: line.Name, Valid: true}
		customPrice = sql.NullInt64{Int64: line.Price, Valid: true}
	default:
		return nil, fmt.Errorf("item %d: %w", pos, domain.ErrUnknownItemVariant)
	}

	return []any{
		orderID, pos, string(item.Line.Kind()), productID, amount,
		customName, customPrice, nullInt64(item.PriceAtSale), nullString(item.Notes),
	}, nil
}

func (r *orderRepository) loadItems(ctx context.Context, q queryer, orderIDs ...int64) (map[int64][]domain.LineItem, error) {
	query, args, err := r.sb.Select(itemColumns...).
		From("order_items oi").
		LeftJoin("products p ON p.id = oi.product_id").
		Where(sq.Eq{"oi.order_id": orderIDs}).
		OrderBy("oi.order_id", "oi.position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load order items: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		pickup sql.NullTime
		notes  sql.NullString
	)
	if err := row.Scan(&order.ID, &order.CustomerName, &pickup, &notes, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	if pickup.Valid {
		d := domain.DateOf(pickup.Time)
		order.PickupDate = &d
	}
	order.Notes = notes.String
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

func scanItem(row rowScanner) (domain.LineItem, error) {
	var (
		item        domain.LineItem
		kind        string
		productID   sql.NullInt64
		amount      sql.NullInt32
		customName  sql.NullString
		customPrice sql.NullInt64
		priceAtSale sql.NullInt64
		notes       sql.NullString
		joinedID    sql.NullInt64
		joinedName  sql.NullString
		joinedPrice sql.NullInt64
	)
	if err := row.Scan(
		&item.ID, &item.OrderID, &kind, &productID, &amount,
		&customName, &customPrice, &priceAtSale, &notes,
		&joinedID, &joinedName, &joinedPrice,
	); err != nil {
		return domain.LineItem{}, fmt.Errorf("scan order item: %w", err)
	}

	item.Notes = notes.String
	if priceAtSale.Valid {
		v := priceAtSale.Int64
		item.PriceAtSale = &v
	}

	switch domain.ItemKind(kind) {
	case domain.ItemKindProduct:
		line := domain.ProductLine{ProductID: productID.Int64, Amount: amount.Int32}
		if joinedID.Valid {
			line.Product = &domain.Product{ID: joinedID.Int64, Name: joinedName.String, Price: joinedPrice.Int64}
		}
		item.Line = line
	case domain.ItemKindCustom:
		item.Line = domain.CustomLine{Name: customName.String, Price: customPrice.Int64}
	default:
		return domain.LineItem{}, fmt.Errorf("order item %d: %w: %q", item.ID, domain.ErrUnknownItemVariant, kind)
	}
	return item, nil
}

func pickupValue(d *domain.Date) sql.NullTime {
	if d == nil || d.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func isVariantViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation && pgErr.ConstraintName == variantCheck
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
