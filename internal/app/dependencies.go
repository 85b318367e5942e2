package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/postgres"
)

// runtimeDependencies - хранилище, выбранное по StorageDriver.
type runtimeDependencies struct {
	repo    domain.OrderRepository
	catalog domain.ProductCatalog
	closeFn func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		products := cfg.Products
		if cfg.ProductsFile != "" {
			seeded, err := loadProductsFile(cfg.ProductsFile)
			if err != nil {
				return runtimeDependencies{}, err
			}
			products = append(append([]domain.Product(nil), products...), seeded...)
		}
		catalog := memory.NewProductCatalog(products...)
		logger.WithFields(log.Fields{
			"products":      len(products),
			"products_file": cfg.ProductsFile,
		}).Info("using in-memory storage")
		if len(products) == 0 {
			logger.Warn("in-memory catalog is empty, product lines will be stored without a price")
		}
		return runtimeDependencies{
			repo:    memory.NewOrderRepository(catalog),
			catalog: catalog,
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return runtimeDependencies{}, errors.New("postgres storage driver requires a DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, err
		}
		// Без автомиграции схема только проверяется.
		prepare := store.VerifySchema
		if cfg.PostgresAutoMigrate {
			prepare = store.EnsureSchema
		}
		if err := prepare(ctx); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("prepare postgres schema: %w", err)
		}
		logger.WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("using postgres storage")
		return runtimeDependencies{
			repo:    postgres.NewOrderRepository(store),
			catalog: postgres.NewProductCatalog(store),
			closeFn: store.Close,
		}, nil

	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
