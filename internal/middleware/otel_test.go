package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
)

func TestOTelMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := infrastructure.CreateMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")

	var traceID string
	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(tracer, metrics, quietLogger()).Handler)
	r.Get("/countries/{name}", func(w http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/countries/Atlantis", "/countries/Lemuria"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "GET /countries/{name}", ended[0].Name())
	assert.Equal(t, ended[1].SpanContext().TraceID().String(), traceID)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1, "both requests share one route series")
			route, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("route"))
			assert.Equal(t, "/countries/{name}", route.AsString())
			total = sum.DataPoints[0].Value
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestNewOTelMiddleware_Defaults(t *testing.T) {
	m := NewOTelMiddleware(nil, nil, quietLogger())

	rec := httptest.NewRecorder()
	m.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
