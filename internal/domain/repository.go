package domain

import (
	"context"
	"time"
)

// OrderUpdate - изменения, применяемые к заказу одной транзакцией.
type OrderUpdate struct {
	Header HeaderPatch
	// ReplaceItems включает полную замену позиций на Items.
	ReplaceItems bool
	Items        []LineItem
	UpdatedAt    time.Time
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заголовок и позиции атомарно и возвращает присвоенный ID.
	Create(ctx context.Context, order Order) (int64, error)
	// Get возвращает заказ с позициями, присоединёнными к товарам, или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// List возвращает все заказы, новые первыми.
	List(ctx context.Context) ([]Order, error)
	// Update применяет патч заголовка и, если задано, заменяет все позиции.
	// Наблюдатель видит либо старый набор позиций, либо новый целиком.
	Update(ctx context.Context, id int64, update OrderUpdate) error
	// Delete удаляет заказ вместе с позициями и возвращает удалённый заголовок.
	Delete(ctx context.Context, id int64) (Order, error)
}

// ProductCatalog - доступ на чтение к каталогу товаров.
type ProductCatalog interface {
	// GetProduct возвращает товар или ErrProductNotFound.
	GetProduct(ctx context.Context, id int64) (Product, error)
}
