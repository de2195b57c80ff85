package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type meterReader struct {
	t      *testing.T
	reader *sdkmetric.ManualReader
}

func newMeteredMetrics(t *testing.T) (*metrics.AppMetrics, *meterReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := metrics.NewAppMetrics(provider.Meter("test"), "storefront-test")
	require.NoError(t, err)
	return m, &meterReader{t: t, reader: reader}
}

func (r *meterReader) collect() []metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	require.NoError(r.t, r.reader.Collect(context.Background(), &rm))
	var out []metricdata.Metrics
	for _, sm := range rm.ScopeMetrics {
		out = append(out, sm.Metrics...)
	}
	return out
}

// sum totals a counter, keeping only points whose attribute key has value
func (r *meterReader) sum(name, key, value string) int64 {
	var total int64
	for _, md := range r.collect() {
		if md.Name != name {
			continue
		}
		data, ok := md.Data.(metricdata.Sum[int64])
		require.True(r.t, ok)
		for _, dp := range data.DataPoints {
			if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
				total += dp.Value
			}
		}
	}
	return total
}

func (r *meterReader) gauge(name string) int64 {
	for _, md := range r.collect() {
		if md.Name != name {
			continue
		}
		data, ok := md.Data.(metricdata.Gauge[int64])
		require.True(r.t, ok)
		require.Len(r.t, data.DataPoints, 1)
		return data.DataPoints[0].Value
	}
	r.t.Fatalf("no %s gauge recorded", name)
	return 0
}

func TestGetProductCountsView(t *testing.T) {
	fb, gw := newFakeBackend(t)
	fb.handle("GET /products/{pid}", http.StatusOK, map[string]any{
		"PID": "P1", "ProductName": "Lamp", "Price": 12.5,
		"Sellers": []map[string]any{{"EmailID": "s@x.edu", "Stock": 3}},
	})
	fb.handle("GET /products/P404", http.StatusNotFound, map[string]any{"detail": "Product not found"})
	m, reader := newMeteredMetrics(t)
	svc := NewProductService(gw, m, nil)

	_, err := svc.GetProduct(context.Background(), "P1")
	require.NoError(t, err)
	_, err = svc.GetProduct(context.Background(), "P404")
	require.Error(t, err)

	assert.Equal(t, int64(1), reader.sum("products_viewed_total", "product.id", "P1"))
	assert.Zero(t, reader.sum("products_viewed_total", "product.id", "P404"))
}

func TestSessionTracksActiveUser(t *testing.T) {
	m, reader := newMeteredMetrics(t)
	session := NewSessionService(store.NewDocument[*models.UserProfile](store.NewMemoryBackend(), store.KeyUser, nil), m, nil)
	ctx := context.Background()

	session.Restore(ctx)
	assert.Zero(t, reader.gauge("active_users_count"))

	_, err := session.Login(ctx, models.UserProfile{EmailID: "a@x.edu", FirstName: "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), reader.gauge("active_users_count"))

	require.NoError(t, session.Logout(ctx))
	assert.Zero(t, reader.gauge("active_users_count"))
}

func TestLoginsAreCountedByMethod(t *testing.T) {
	fb, gw := newFakeBackend(t)
	fb.handle("POST /users/login", http.StatusOK, map[string]any{"EmailID": "a@x.edu", "FirstName": "A"})
	m, reader := newMeteredMetrics(t)
	session := NewSessionService(store.NewDocument[*models.UserProfile](store.NewMemoryBackend(), store.KeyUser, nil), m, nil)
	ctx := context.Background()

	_, err := NewUserService(gw, session, nil).Login(ctx, "a@x.edu", "pw")
	require.NoError(t, err)

	oauth := NewOAuthHandler(session, nil)
	oauth.Handle(ctx, OAuthCallback{Success: "true", User: oauthUser, Mode: "signup"})
	oauth.Handle(ctx, OAuthCallback{Success: "true", User: "{broken"})
	oauth.Handle(ctx, OAuthCallback{Error: "access_denied"})

	assert.Equal(t, int64(1), reader.sum("user_logins_total", "login.method", "password"))
	assert.Equal(t, int64(1), reader.sum("user_logins_total", "login.method", "oauth"))
	assert.Equal(t, int64(1), reader.sum("oauth_callbacks_total", "oauth.outcome", "success"))
	assert.Equal(t, int64(1), reader.sum("oauth_callbacks_total", "oauth.outcome", "parse_error"))
	assert.Equal(t, int64(1), reader.sum("oauth_callbacks_total", "oauth.outcome", "provider_error"))
}
