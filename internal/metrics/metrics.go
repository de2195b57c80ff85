package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// AppMetrics holds all application metrics
type AppMetrics struct {
	// HTTP Metrics (local storefront surface)
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Gateway Metrics (calls to the CampusBazaar backend)
	GatewayCallsTotal   metric.Int64Counter
	GatewayCallErrors   metric.Int64Counter
	GatewayCallDuration metric.Float64Histogram

	// State store Metrics
	StoreOpsTotal   metric.Int64Counter
	StoreOpDuration metric.Float64Histogram

	// Business Metrics
	CheckoutTransitions metric.Int64Counter
	OrdersPlaced        metric.Int64Counter
	RevenueTotal        metric.Float64Counter
	StockShortages      metric.Int64Counter
	OTPFailures         metric.Int64Counter
	CartItemsCount      metric.Int64Gauge
	ProductsViewed      metric.Int64Counter

	// Session Metrics
	ActiveUsersCount metric.Int64Gauge
	UserLogins       metric.Int64Counter
	OAuthCallbacks   metric.Int64Counter

	serviceName string
}

// InitMetrics initializes OpenTelemetry metrics with an OTLP HTTP exporter
func InitMetrics(ctx context.Context, cfg *config.Config) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}

	// Explicit attributes take precedence over env
	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}

	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// WithEndpoint expects host:port without a scheme
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPHeaders != "" {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(parseHeaders(cfg.OTELExporterOTLPHeaders)))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(10*time.Second),
	)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	slog.Info("metrics exporter configured",
		"endpoint", cfg.OTELExporterOTLPEndpoint,
		"insecure", cfg.OTELExporterOTLPInsecure,
		"service", cfg.OTELServiceName,
		"interval", "10s",
	)

	appMetrics, err := NewAppMetrics(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}
	return appMetrics, meterProvider, nil
}

// NewNoopMetrics returns instruments that record nothing
func NewNoopMetrics() *AppMetrics {
	m, _ := NewAppMetrics(noop.NewMeterProvider().Meter("noop"), "noop")
	return m
}

// NewAppMetrics creates every instrument on meter
func NewAppMetrics(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	// SigNoz default histogram buckets in milliseconds, expanded to 60s
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

	m := &AppMetrics{serviceName: serviceName}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.server.request.error.count",
		metric.WithDescription("Total number of HTTP error requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http errors counter: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	if m.GatewayCallsTotal, err = meter.Int64Counter(
		"gateway.client.calls.count",
		metric.WithDescription("Total number of calls to the marketplace backend"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gateway calls counter: %w", err)
	}

	if m.GatewayCallErrors, err = meter.Int64Counter(
		"gateway.client.calls.error.count",
		metric.WithDescription("Total number of failed calls to the marketplace backend"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gateway errors counter: %w", err)
	}

	if m.GatewayCallDuration, err = meter.Float64Histogram(
		"gateway.client.calls.duration",
		metric.WithDescription("Backend call duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create gateway duration histogram: %w", err)
	}

	if m.StoreOpsTotal, err = meter.Int64Counter(
		"state.store.operations.count",
		metric.WithDescription("Total number of client state store operations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create store ops counter: %w", err)
	}

	if m.StoreOpDuration, err = meter.Float64Histogram(
		"state.store.operations.duration",
		metric.WithDescription("Client state store operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create store duration histogram: %w", err)
	}

	if m.CheckoutTransitions, err = meter.Int64Counter(
		"checkout_transitions_total",
		metric.WithDescription("Checkout state machine transitions"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create checkout transitions counter: %w", err)
	}

	if m.OrdersPlaced, err = meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Orders whose payment was verified"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	if m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total amount paid through checkout"),
		metric.WithUnit("INR"),
	); err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	if m.StockShortages, err = meter.Int64Counter(
		"stock_shortages_total",
		metric.WithDescription("Checkouts blocked by insufficient stock"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create stock shortages counter: %w", err)
	}

	if m.OTPFailures, err = meter.Int64Counter(
		"otp_failures_total",
		metric.WithDescription("Rejected OTP submissions"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create otp failures counter: %w", err)
	}

	if m.CartItemsCount, err = meter.Int64Gauge(
		"cart_items_count",
		metric.WithDescription("Current number of items in the cart"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cart items gauge: %w", err)
	}

	if m.ProductsViewed, err = meter.Int64Counter(
		"products_viewed_total",
		metric.WithDescription("Total number of product views"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create products viewed counter: %w", err)
	}

	if m.ActiveUsersCount, err = meter.Int64Gauge(
		"active_users_count",
		metric.WithDescription("Currently active users"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active users gauge: %w", err)
	}

	if m.UserLogins, err = meter.Int64Counter(
		"user_logins_total",
		metric.WithDescription("Completed logins by method"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create user logins counter: %w", err)
	}

	if m.OAuthCallbacks, err = meter.Int64Counter(
		"oauth_callbacks_total",
		metric.WithDescription("OAuth callbacks by outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create oauth callbacks counter: %w", err)
	}

	return m, nil
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// RecordGatewayCall records one backend call. status is 0 when no response arrived.
func (m *AppMetrics) RecordGatewayCall(ctx context.Context, method, route string, status int, start time.Time, failed bool) {
	duration := time.Since(start).Milliseconds()

	attrs := m.WithServiceName([]attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	})

	m.GatewayCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if failed {
		m.GatewayCallErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.GatewayCallDuration.Record(ctx, float64(duration), metric.WithAttributes(attrs...))
}

// RecordStoreOp records one state store operation
func (m *AppMetrics) RecordStoreOp(ctx context.Context, backend, operation, key string, start time.Time, success bool) {
	duration := time.Since(start).Milliseconds()

	status := "success"
	if !success {
		status = "error"
	}

	attrs := m.WithServiceName([]attribute.KeyValue{
		attribute.String("store.backend", backend),
		attribute.String("store.operation", operation),
		attribute.String("store.key", key),
		attribute.String("status", status),
	})

	m.StoreOpsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.StoreOpDuration.Record(ctx, float64(duration), metric.WithAttributes(attrs...))
}

// RecordCheckoutTransition counts one state machine step
func (m *AppMetrics) RecordCheckoutTransition(ctx context.Context, from, to, event string) {
	m.CheckoutTransitions.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("checkout.from", from),
		attribute.String("checkout.to", to),
		attribute.String("checkout.event", event),
	})...))
}

// RecordCartItems sets the cart size gauge
func (m *AppMetrics) RecordCartItems(ctx context.Context, count int) {
	m.CartItemsCount.Record(ctx, int64(count), metric.WithAttributes(m.WithServiceName(nil)...))
}

// RecordProductView counts one product detail view
func (m *AppMetrics) RecordProductView(ctx context.Context, pid string) {
	m.ProductsViewed.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("product.id", pid),
	})...))
}

// RecordActiveUser sets the active users gauge for this storefront's single shopper
func (m *AppMetrics) RecordActiveUser(ctx context.Context, authenticated bool) {
	var n int64
	if authenticated {
		n = 1
	}
	m.ActiveUsersCount.Record(ctx, n, metric.WithAttributes(m.WithServiceName(nil)...))
}

// RecordLogin counts one completed login. method is password, register or oauth.
func (m *AppMetrics) RecordLogin(ctx context.Context, method, userType string) {
	m.UserLogins.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("login.method", method),
		attribute.String("user.type", userType),
	})...))
}

// RecordOAuthCallback counts one OAuth callback by mode and outcome
func (m *AppMetrics) RecordOAuthCallback(ctx context.Context, mode, outcome string) {
	m.OAuthCallbacks.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("oauth.mode", mode),
		attribute.String("oauth.outcome", outcome),
	})...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	for _, pair := range strings.Split(headerStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
