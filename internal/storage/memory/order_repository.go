package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// orderRepositoryInMemory - простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu         sync.RWMutex
	orders     map[int64]domain.Order
	catalog    domain.ProductCatalog
	nextOrder  int64
	nextItemID int64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
// catalog используется для присоединения товаров при чтении и может быть nil.
func NewOrderRepository(catalog domain.ProductCatalog) domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders:  make(map[int64]domain.Order),
		catalog: catalog,
	}
}

// Create сохраняет заголовок и позиции, присваивая идентификаторы.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (int64, error) {
	if err := checkItems(order.Items); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOrder++
	order.ID = r.nextOrder
	order.Items = r.assignItems(order.ID, order.Items)
	r.orders[order.ID] = order
	return order.ID, nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(ctx context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	order, ok := r.orders[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return r.joinProducts(ctx, order)
}

// List возвращает все заказы, новые первыми.
func (r *orderRepositoryInMemory) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		result = append(result, order)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	for i := range result {
		joined, err := r.joinProducts(ctx, result[i])
		if err != nil {
			return nil, err
		}
		result[i] = joined
	}
	return result, nil
}

// Update применяет патч и заменяет позиции в одной критической секции.
// Новый набор собирается целиком до того, как подменить старый.
func (r *orderRepositoryInMemory) Update(_ context.Context, id int64, update domain.OrderUpdate) error {
	if update.ReplaceItems {
		if err := checkItems(update.Items); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}

	next := current
	update.Header.Apply(&next)
	if update.ReplaceItems {
		next.Items = r.assignItems(id, update.Items)
	}
	if !update.Header.Empty() || update.ReplaceItems {
		next.UpdatedAt = update.UpdatedAt
	}
	r.orders[id] = next
	return nil
}

// Delete удаляет заказ вместе с позициями.
func (r *orderRepositoryInMemory) Delete(_ context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return order.Header(), nil
}

func (r *orderRepositoryInMemory) assignItems(orderID int64, items []domain.LineItem) []domain.LineItem {
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	stored := make([]domain.LineItem, len(items))
	for i, item := range items {
		r.nextItemID++
		item.ID = r.nextItemID
		item.OrderID = orderID
		item.PriceAtSale = clonePrice(item.PriceAtSale)
		if line, ok := item.Line.(domain.ProductLine); ok {
			line.Product = nil
			item.Line = line
		}
		stored[i] = item
	}
	return stored
}

func (r *orderRepositoryInMemory) joinProducts(ctx context.Context, order domain.Order) (domain.Order, error) {
	items := make([]domain.LineItem, len(order.Items))
	for i, item := range order.Items {
		item.PriceAtSale = clonePrice(item.PriceAtSale)
		items[i] = item
	}
	order.Items = items

	if r.catalog == nil {
		return order, nil
	}
	for i, item := range items {
		line, ok := item.Line.(domain.ProductLine)
		if !ok {
			continue
		}
		product, err := r.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return domain.Order{}, fmt.Errorf("join product %d: %w", line.ProductID, err)
		}
		line.Product = &product
		items[i].Line = line
	}
	return order, nil
}

func clonePrice(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func checkItems(items []domain.LineItem) error {
	for i, item := range items {
		if item.Line == nil {
			return fmt.Errorf("item %d: %w", i, domain.ErrUnknownItemVariant)
		}
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
