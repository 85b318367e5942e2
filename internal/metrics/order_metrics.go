package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций для метки result.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// OrderMetrics содержит метрики операций с заказами и печати чеков.
// Методы безопасно вызывать на nil.
type OrderMetrics struct {
	// Счётчики операций
	operations    *prometheus.CounterVec
	itemsReplaced prometheus.Counter
	priceFallback prometheus.Counter
	publishFailed prometheus.Counter

	// Печать
	printAttempts *prometheus.CounterVec
	receiptBytes  prometheus.Histogram
	printDuration prometheus.Histogram

	// HTTP
	requestDuration *prometheus.HistogramVec
}

// NewOrderMetrics создаёт метрики в глобальном реестре.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer создаёт метрики в переданном реестре.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderdesk_order_operations_total",
			Help: "Total number of order operations by operation and result",
		}, []string{"operation", "result"}),
		itemsReplaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderdesk_order_items_replaced_total",
			Help: "Total number of full item replacements on update",
		}),
		priceFallback: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderdesk_price_fallback_total",
			Help: "Total number of product lines persisted without a price because the product was missing",
		}),
		publishFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderdesk_event_publish_failed_total",
			Help: "Total number of order events that failed to publish",
		}),
		printAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderdesk_print_attempts_total",
			Help: "Total number of receipt print attempts by result",
		}, []string{"result"}),
		receiptBytes: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderdesk_receipt_bytes",
			Help:    "Size of encoded receipts in bytes",
			Buckets: prometheus.ExponentialBuckets(128, 2, 8),
		}),
		printDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderdesk_print_duration_seconds",
			Help:    "Duration of printer writes in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orderdesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RecordOperation учитывает результат операции create/update/delete/get/list/print/receipt.
func (m *OrderMetrics) RecordOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordItemsReplaced учитывает полную замену позиций.
func (m *OrderMetrics) RecordItemsReplaced() {
	if m == nil {
		return
	}
	m.itemsReplaced.Inc()
}

// RecordPriceFallback учитывает позицию без цены из-за отсутствующего товара.
func (m *OrderMetrics) RecordPriceFallback() {
	if m == nil {
		return
	}
	m.priceFallback.Inc()
}

// RecordPublishFailed учитывает неотправленное событие.
func (m *OrderMetrics) RecordPublishFailed() {
	if m == nil {
		return
	}
	m.publishFailed.Inc()
}

// RecordPrint записывает попытку печати, размер чека и время записи.
func (m *OrderMetrics) RecordPrint(result string, size int, duration time.Duration) {
	if m == nil {
		return
	}
	m.printAttempts.WithLabelValues(result).Inc()
	m.receiptBytes.Observe(float64(size))
	m.printDuration.Observe(duration.Seconds())
}

// ObserveRequest записывает длительность HTTP-запроса.
func (m *OrderMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
