// Package app собирает orderdesk из конфигурации и управляет жизненным циклом серверов.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
	"github.com/vladislavdragonenkov/orderdesk/internal/printer"
	"github.com/vladislavdragonenkov/orderdesk/internal/receipt"
	httpsvc "github.com/vladislavdragonenkov/orderdesk/internal/service/http"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/pricing"
	"github.com/vladislavdragonenkov/orderdesk/internal/version"
)

const readHeaderTimeout = 5 * time.Second

// Run поднимает HTTP API и сервер метрик и блокируется до отмены ctx или ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.Info(version.String())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	loc, err := time.LoadLocation(cfg.ReceiptTimezone)
	if err != nil {
		return fmt.Errorf("load receipt timezone: %w", err)
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer deps.close(logger)

	// Kafka не обязательна: без неё события не публикуются.
	producer, _ := initKafkaProducer(cfg.KafkaBrokers, logger.WithField("layer", "kafka"))
	defer closeKafka(producer, logger)

	orderMetrics := metrics.NewOrderMetrics()
	svc := orders.NewService(orders.Deps{
		Repo: deps.repo,
		Prices: pricing.NewResolver(deps.catalog,
			pricing.WithConcurrency(cfg.PriceLookupConcurrency),
			pricing.WithMetrics(orderMetrics),
			pricing.WithLogger(logger.WithField("layer", "pricing")),
		),
		Encoder: receipt.NewEncoder(loc),
		Printer: printer.NewDevice(cfg.PrinterDevice, logger.WithField("layer", "printer")),
		Events:  newEventPublisher(producer, cfg.KafkaTopic),
		Metrics: orderMetrics,
		Logger:  logger.WithField("layer", "orders"),
	})

	router := httpsvc.NewRouter(svc, httpsvc.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        orderMetrics,
		Logger:         logger.WithField("layer", "http"),
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger)

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return err
	}
	httpSrv := &http.Server{Handler: router, ReadHeaderTimeout: readHeaderTimeout}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"addr":    lis.Addr().String(),
			"printer": cfg.PrinterDevice,
			"storage": cfg.StorageDriver,
		}).Info("HTTP API слушает")
		errCh <- httpSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(httpSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 0, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер. timeout <= 0 означает 5 секунд.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
