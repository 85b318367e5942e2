package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/app"
)

const (
	envHTTPAddr               = "ORDERDESK_HTTP_ADDR"
	envMetricsAddr            = "ORDERDESK_METRICS_ADDR"
	envStorageDriver          = "ORDERDESK_STORAGE_DRIVER"
	envPostgresDSN            = "ORDERDESK_POSTGRES_DSN"
	envPostgresAutoMigrate    = "ORDERDESK_POSTGRES_AUTO_MIGRATE"
	envProductsFile           = "ORDERDESK_PRODUCTS_FILE"
	envPrinterDevice          = "ORDERDESK_PRINTER_DEVICE"
	envReceiptTimezone        = "ORDERDESK_RECEIPT_TIMEZONE"
	envPriceLookupConcurrency = "ORDERDESK_PRICE_LOOKUP_CONCURRENCY"
	envCORSAllowedOrigins     = "ORDERDESK_CORS_ALLOWED_ORIGINS"
	envShutdownTimeout        = "ORDERDESK_SHUTDOWN_TIMEOUT"
	envLogLevel               = "ORDERDESK_LOG_LEVEL"
	envKafkaBrokers           = "KAFKA_BROKERS"
	envKafkaTopic             = "ORDERDESK_KAFKA_TOPIC"
)

type envLookup func(string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level := log.InfoLevel
	if raw, ok := lookupTrimmed(lookup, envLogLevel); ok {
		if parsed, err := log.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)
}

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения пропускаются с предупреждением.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookupTrimmed(lookup, envHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, envPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := lookupTrimmed(lookup, envPostgresAutoMigrate); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, invalidValue(envPostgresAutoMigrate, v, err))
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envProductsFile); ok {
		cfg.ProductsFile = v
	}
	if v, ok := lookupTrimmed(lookup, envPrinterDevice); ok {
		cfg.PrinterDevice = v
	}
	if v, ok := lookupTrimmed(lookup, envReceiptTimezone); ok {
		if _, err := time.LoadLocation(v); err != nil {
			warnings = append(warnings, invalidValue(envReceiptTimezone, v, err))
		} else {
			cfg.ReceiptTimezone = v
		}
	}
	if v, ok := lookupTrimmed(lookup, envPriceLookupConcurrency); ok {
		parsed, err := parsePositiveInt(v)
		if err != nil {
			warnings = append(warnings, invalidValue(envPriceLookupConcurrency, v, err))
		} else {
			cfg.PriceLookupConcurrency = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envCORSAllowedOrigins); ok {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := lookupTrimmed(lookup, envShutdownTimeout); ok {
		parsed, err := parseDuration(v)
		if err != nil {
			warnings = append(warnings, invalidValue(envShutdownTimeout, v, err))
		} else {
			cfg.ShutdownTimeout = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = splitList(v)
	}
	if v, ok := lookupTrimmed(lookup, envKafkaTopic); ok {
		cfg.KafkaTopic = v
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	raw, ok := lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, errors.New("expected boolean")
	}
}

func parsePositiveInt(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("must be > 0")
	}
	return v, nil
}

func parseDuration(raw string) (time.Duration, error) {
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("must be > 0")
	}
	return v, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func invalidValue(key, value string, err error) string {
	return fmt.Sprintf("invalid %s=%q: %v, using default", key, value, err)
}

// loadDotEnv подхватывает .env из рабочего каталога, если он есть.
// Уже заданные переменные окружения не перезаписываются.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	dotenvErr := loadDotEnv()
	setupLogger(os.LookupEnv)
	if dotenvErr != nil {
		log.WithError(dotenvErr).Warn("failed to load .env")
	}

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"printer":      cfg.PrinterDevice,
	}).Info("запускаем orderdesk")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("orderdesk остановлен")
}
