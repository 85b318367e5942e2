package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderdesk/internal/printer"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/pricing"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска orderdesk.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	// Products и ProductsFile заполняют in-memory каталог при старте.
	Products            []domain.Product
	ProductsFile        string

	PrinterDevice          string
	ReceiptTimezone        string
	PriceLookupConcurrency int

	CORSAllowedOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:               ":8080",
		MetricsAddr:            ":9090",
		StorageDriver:          StorageDriverMemory,
		PostgresAutoMigrate:    true,
		PrinterDevice:          printer.DefaultDevicePath,
		ReceiptTimezone:        "UTC",
		PriceLookupConcurrency: pricing.DefaultLookupConcurrency,
		CORSAllowedOrigins:     []string{"*"},
		KafkaTopic:             kafka.TopicOrderEvents,
		ShutdownTimeout:        5 * time.Second,
	}
}

// Validate проверяет конфигурацию до запуска серверов.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres storage driver requires a DSN"))
		}
		if c.ProductsFile != "" {
			errs = append(errs, errors.New("products file applies only to memory storage, postgres reads the products table"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if strings.TrimSpace(c.PrinterDevice) == "" {
		errs = append(errs, errors.New("printer device path is required"))
	}
	if _, err := time.LoadLocation(c.ReceiptTimezone); err != nil {
		errs = append(errs, fmt.Errorf("receipt timezone %q: %w", c.ReceiptTimezone, err))
	}
	if c.PriceLookupConcurrency <= 0 {
		errs = append(errs, errors.New("price lookup concurrency must be positive"))
	}
	return errors.Join(errs...)
}
