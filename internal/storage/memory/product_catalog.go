package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// ProductCatalog - in-memory каталог товаров.
type ProductCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

// NewProductCatalog возвращает каталог, заполненный переданными товарами.
func NewProductCatalog(products ...domain.Product) *ProductCatalog {
	c := &ProductCatalog{products: make(map[int64]domain.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// Put добавляет или заменяет товар.
func (c *ProductCatalog) Put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// GetProduct возвращает товар или ErrProductNotFound.
func (c *ProductCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

var _ domain.ProductCatalog = (*ProductCatalog)(nil)
