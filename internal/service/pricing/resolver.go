// Package pricing определяет цену продажи для позиций заказа в момент создания или замены.
package pricing

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
)

// DefaultLookupConcurrency - сколько чтений каталога выполняется одновременно.
const DefaultLookupConcurrency = 8

// Resolver фиксирует PriceAtSale для каждой позиции.
type Resolver struct {
	catalog     domain.ProductCatalog
	concurrency int
	metrics     *metrics.OrderMetrics
	logger      *log.Entry
}

// Option настраивает Resolver.
type Option func(*Resolver)

// WithConcurrency ограничивает число параллельных чтений каталога.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver создаёт Resolver поверх каталога.
func NewResolver(catalog domain.ProductCatalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:     catalog,
		concurrency: DefaultLookupConcurrency,
		logger:      log.WithField("component", "pricing"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve превращает проверенный ввод в позиции с зафиксированной ценой, сохраняя порядок.
//
// Явная priceAtSale (в том числе 0) берётся как есть. Без неё читается текущая цена товара;
// если товара нет, цена остаётся пустой и заказ не отклоняется. Любая другая ошибка каталога
// отменяет весь набор. Все чтения завершаются до возврата.
func (r *Resolver) Resolve(ctx context.Context, inputs []domain.ItemInput) ([]domain.LineItem, error) {
	prices := make([]*int64, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, in := range inputs {
		switch {
		case in.Kind == domain.ItemKindCustom:
			prices[i] = copyPrice(in.CustomPrice)
		case in.Kind != domain.ItemKindProduct:
			_ = g.Wait()
			return nil, fmt.Errorf("items[%d]: %w", i, domain.ErrUnknownItemVariant)
		case in.PriceAtSale != nil:
			prices[i] = copyPrice(in.PriceAtSale)
		default:
			g.Go(func() error {
				price, err := r.lookup(gctx, in.ProductID)
				if err != nil {
					return fmt.Errorf("items[%d]: %w", i, err)
				}
				prices[i] = price
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Цена из каталога подчиняется той же границе, что и цена из запроса.
	verr := domain.NewValidationError()
	for i, price := range prices {
		if price != nil && *price > domain.MaxUnitPrice {
			verr.Add(fmt.Sprintf("items[%d].priceAtSale", i), fmt.Sprintf("catalog price exceeds %d", domain.MaxUnitPrice))
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(inputs))
	for i, in := range inputs {
		item, err := domain.NewLineItem(in, prices[i])
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Resolver) lookup(ctx context.Context, productID int64) (*int64, error) {
	product, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			r.logger.WithField("product_id", productID).Warn("product not found, price left empty")
			r.metrics.RecordPriceFallback()
			return nil, nil
		}
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	price := product.Price
	return &price, nil
}

func copyPrice(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
