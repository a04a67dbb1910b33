package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests      metric.Int64Counter
	HTTPDuration      metric.Float64Histogram
	CacheHits         metric.Int64Counter
	CacheMisses       metric.Int64Counter
	ActiveConnections metric.Int64UpDownCounter

	AssetsRegistered   metric.Int64Counter
	TransfersInitiated metric.Int64Counter
	ReceiptsApplied    metric.Int64Counter
	ReplaysRejected    metric.Int64Counter
	SignatureFailures  metric.Int64Counter
}

func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"mg_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"mg_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CacheHits, err = meter.Int64Counter(
		"mg_cache_hits_total",
		metric.WithDescription("Total number of cache hits"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CacheMisses, err = meter.Int64Counter(
		"mg_cache_misses_total",
		metric.WithDescription("Total number of cache misses"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ActiveConnections, err = meter.Int64UpDownCounter(
		"mg_websocket_connections",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.AssetsRegistered, err = meter.Int64Counter(
		"mg_assets_registered_total",
		metric.WithDescription("Total number of assets registered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.TransfersInitiated, err = meter.Int64Counter(
		"mg_transfers_initiated_total",
		metric.WithDescription("Total number of outbound transfers initiated"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ReceiptsApplied, err = meter.Int64Counter(
		"mg_receipts_applied_total",
		metric.WithDescription("Total number of inbound messages applied"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ReplaysRejected, err = meter.Int64Counter(
		"mg_replays_rejected_total",
		metric.WithDescription("Total number of inbound messages rejected by the replay guard"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.SignatureFailures, err = meter.Int64Counter(
		"mg_signature_failures_total",
		metric.WithDescription("Total number of inbound messages rejected for invalid signatures"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.Handler()
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordCacheHit(ctx context.Context, key string) {
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}

func (m *Metrics) RecordCacheMiss(ctx context.Context, key string) {
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}

func (m *Metrics) IncrementConnections(ctx context.Context) {
	m.ActiveConnections.Add(ctx, 1)
}

func (m *Metrics) DecrementConnections(ctx context.Context) {
	m.ActiveConnections.Add(ctx, -1)
}

// bridge.Recorder

func (m *Metrics) RecordAssetRegistered(ctx context.Context) {
	m.AssetsRegistered.Add(ctx, 1)
}

func (m *Metrics) RecordTransferInitiated(ctx context.Context) {
	m.TransfersInitiated.Add(ctx, 1)
}

func (m *Metrics) RecordReceiptApplied(ctx context.Context) {
	m.ReceiptsApplied.Add(ctx, 1)
}

func (m *Metrics) RecordReplayRejected(ctx context.Context) {
	m.ReplaysRejected.Add(ctx, 1)
}

func (m *Metrics) RecordSignatureFailure(ctx context.Context) {
	m.SignatureFailures.Add(ctx, 1)
}
