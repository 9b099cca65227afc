package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/dataprocessing"
	apierrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/middleware"
	"github.com/MorMundHS-MA/GDV/internal/services"
	"github.com/MorMundHS-MA/GDV/internal/shared/testutil"
)

// MockDataService is a mock implementation of DataServiceInterface
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) Current() (*services.DataSource, error) {
	args := m.Called()
	ds, _ := args.Get(0).(*services.DataSource)
	return ds, args.Error(1)
}

func (m *MockDataService) Reload(ctx context.Context, trigger string) (*services.DataSource, error) {
	args := m.Called(trigger)
	ds, _ := args.Get(0).(*services.DataSource)
	return ds, args.Error(1)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadWorld builds the five country fixture dataset through the real loader
func loadWorld(t *testing.T) *services.DataSource {
	t.Helper()
	loader := services.NewLoader(files.NewMapFetcher(testutil.WorldSources()), config.Default().Sources,
		dataprocessing.DefaultNameOverrides(), quietLogger())
	ds, err := loader.LoadData(context.Background())
	require.NoError(t, err)
	return ds
}

func newDataRouter(svc DataServiceInterface, opts ...DataHandlerOption) http.Handler {
	logger := quietLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewDataHandler(svc, middleware.NewValidationMiddleware(logger, errorHandler), logger, errorHandler, opts...)

	r := chi.NewRouter()
	r.Mount("/api/data", h.Routes())
	return r
}

func doRequest(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Count  int             `json:"count"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, "success", env.Status)
	return env
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}
