package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/exporter"
	"github.com/MorMundHS-MA/GDV/internal/middleware"
	"github.com/MorMundHS-MA/GDV/internal/services"
	api "github.com/MorMundHS-MA/GDV/pkg/contracts/api/v1"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

type ctxKey int

const (
	datasetKey ctxKey = iota
	countryKey
)

// DataHandler serves the loaded dataset with RFC 7807 errors
type DataHandler struct {
	service          DataServiceInterface
	validator        *middleware.ValidationMiddleware
	defaultIndicator domain.Indicator
	reloadGuard      func(http.Handler) http.Handler
	logger           *slog.Logger
	errorHandler     *apierrors.ErrorHandler
}

// DataHandlerOption configures a DataHandler
type DataHandlerOption func(*DataHandler)

// WithDefaultIndicator sets the snapshot indicator used when none is requested
func WithDefaultIndicator(ind domain.Indicator) DataHandlerOption {
	return func(h *DataHandler) { h.defaultIndicator = ind }
}

// WithReloadGuard protects POST /reload, typically with an API key check
func WithReloadGuard(guard func(http.Handler) http.Handler) DataHandlerOption {
	return func(h *DataHandler) { h.reloadGuard = guard }
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, validator *middleware.ValidationMiddleware,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler, opts ...DataHandlerOption) *DataHandler {
	h := &DataHandler{
		service:          service,
		validator:        validator,
		defaultIndicator: domain.IndicatorIneqComb,
		logger:           logger.With(slog.String("component", "data_handler")),
		errorHandler:     errorHandler,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Group(func(r chi.Router) {
		r.Use(h.DatasetCtx)

		r.Get("/countries", h.GetCountries)
		r.Route("/countries/{name}", func(r chi.Router) {
			r.Use(h.CountryCtx)
			r.Get("/", h.GetCountry)
			r.Get("/series", h.GetCountrySeries)
		})
		r.Get("/limits", h.GetLimits)
		r.Get("/limits/selection", h.GetSelectionLimits)
		r.Get("/snapshot/{year}", h.GetSnapshot)
		r.Get("/regions", h.GetRegions)
		r.Get("/search", h.Search)
		r.Get("/info", h.GetInfo)
		r.Get("/export/{format}", h.Export)
	})

	reload := http.Handler(http.HandlerFunc(h.Reload))
	if h.reloadGuard != nil {
		reload = h.reloadGuard(reload)
	}
	r.Method(http.MethodPost, "/reload", reload)

	return r
}

// DatasetCtx resolves the current dataset once per request and answers
// conditional requests whose ETag still matches
func (h *DataHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds, err := h.service.Current()
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		if fp := ds.Fingerprint(); fp != "" {
			etag := strconv.Quote(fp)
			w.Header().Set("ETag", etag)
			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		ctx := context.WithValue(r.Context(), datasetKey, ds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CountryCtx resolves {name} through every known spelling of a country
func (h *DataHandler) CountryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}

		if err := h.validator.ValidateStruct(api.CountryParams{Name: name}); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		c, ok := datasetFrom(r).Lookup(name)
		if !ok {
			h.logger.DebugContext(r.Context(), "country lookup missed",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("name", name))
			h.errorHandler.HandleError(w, r, apierrors.CountryNotFoundError(name))
			return
		}

		ctx := context.WithValue(r.Context(), countryKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCountries handles GET /api/data/countries[?region=]
func (h *DataHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	query := api.CountriesQuery{Region: strings.TrimSpace(r.URL.Query().Get("region"))}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	countries := datasetFrom(r).GetCountries()
	if query.Region != "" {
		filtered := countries[:0]
		for _, c := range countries {
			if strings.EqualFold(c.Region, query.Region) {
				filtered = append(filtered, c)
			}
		}
		countries = filtered
	}

	render.JSON(w, r, api.Success(countries, len(countries)))
}

// GetCountry handles GET /api/data/countries/{name}
func (h *DataHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Success(countryFrom(r), 1))
}

// GetCountrySeries handles GET /api/data/countries/{name}/series
func (h *DataHandler) GetCountrySeries(w http.ResponseWriter, r *http.Request) {
	series := datasetFrom(r).GetCountryStats(countryFrom(r))
	render.JSON(w, r, api.Success(series, len(series)))
}

// GetLimits handles GET /api/data/limits
func (h *DataHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Success(datasetFrom(r).GetStatLimits(), len(domain.AllIndicators())))
}

// GetSelectionLimits handles GET /api/data/limits/selection?countries=a,b
func (h *DataHandler) GetSelectionLimits(w http.ResponseWriter, r *http.Request) {
	query := api.SelectionQuery{Countries: splitList(r.URL.Query().Get("countries"))}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	ds := datasetFrom(r)
	found, missing := ds.CountriesByName(query.Countries)
	if missing == nil {
		missing = []string{}
	}

	render.JSON(w, r, api.Success(api.SelectionLimits{
		Limits:  ds.SelectionLimits(query.Countries),
		Missing: missing,
	}, len(found)))
}

// GetSnapshot handles GET /api/data/snapshot/{year}[?indicator=]
func (h *DataHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	query := api.SnapshotQuery{
		Year:      chi.URLParam(r, "year"),
		Indicator: r.URL.Query().Get("indicator"),
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	ind := h.defaultIndicator
	if query.Indicator != "" {
		parsed, err := domain.ParseIndicator(query.Indicator)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("indicator", err.Error()))
			return
		}
		ind = parsed
	}

	ds := datasetFrom(r)
	points, err := ds.Snapshot(query.Year, ind)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	xLimit, yLimit := ds.SnapshotLimits(ind)
	render.JSON(w, r, api.Success(api.Snapshot{
		Year:      query.Year,
		Indicator: ind,
		Points:    points,
		XLimit:    xLimit,
		YLimit:    yLimit,
	}, len(points)))
}

// GetRegions handles GET /api/data/regions
func (h *DataHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions := datasetFrom(r).Regions()
	render.JSON(w, r, api.Success(regions, len(regions)))
}

// Search handles GET /api/data/search?q=[&limit=]
func (h *DataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := api.SearchQuery{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be a number"))
			return
		}
		query.Limit = limit
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	matches := datasetFrom(r).Search(query.Q)
	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}

	results := make([]domain.CountryInfo, 0, len(matches))
	for _, c := range matches {
		results = append(results, c.CountryInfo)
	}

	h.logger.DebugContext(r.Context(), "search served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("query", query.Q),
		slog.Int("results", len(results)))

	render.JSON(w, r, api.Success(results, len(results)))
}

// GetInfo handles GET /api/data/info
func (h *DataHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := datasetFrom(r).Info()
	render.JSON(w, r, api.Success(info, info.Countries))
}

// Export handles GET /api/data/export/{format}[?bom=true]
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := api.ExportQuery{Format: strings.ToLower(chi.URLParam(r, "format"))}
	if raw := r.URL.Query().Get("bom"); raw != "" {
		bom, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("bom", "bom must be true or false"))
			return
		}
		query.BOM = bom
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	exp, err := exporter.New(query.Format, exporter.Options{BOM: query.BOM, Logger: h.logger})
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	ds := datasetFrom(r)

	// buffered so a failed export can still be reported as a problem
	var buf bytes.Buffer
	if err := exp.Write(&buf, ds); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("format", query.Format),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrExportFailed)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(exp, ds)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
	}
}

// Reload handles POST /api/data/reload
func (h *DataHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("request_id", reqID),
		slog.String("remote_addr", r.RemoteAddr))

	ds, err := h.service.Reload(r.Context(), services.TriggerManual)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	info := ds.Info()
	render.JSON(w, r, api.Success(api.Reload{
		Fingerprint: info.Fingerprint,
		Countries:   info.Countries,
		Collisions:  info.Collisions,
		LoadedAt:    info.LoadedAt,
	}, 1))
}

// handleServiceError maps service sentinels onto API errors. Anything else,
// including loader AppErrors, goes through the error handler as is.
func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotLoaded)
	case errors.Is(err, services.ErrUnknownYear):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("year", err.Error()))
	case errors.Is(err, services.ErrUnknownIndicator):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("indicator", err.Error()))
	case errors.Is(err, services.ErrReloadInProgress):
		h.errorHandler.HandleError(w, r, apierrors.ErrReloadInProgress)
	default:
		h.logger.ErrorContext(r.Context(), "data request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
	}
}

func datasetFrom(r *http.Request) *services.DataSource {
	return r.Context().Value(datasetKey).(*services.DataSource)
}

func countryFrom(r *http.Request) domain.Country {
	return r.Context().Value(countryKey).(domain.Country)
}

// etagMatches implements the If-None-Match comparison, which is weak
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// splitList parses a comma separated query value, keeping empty entries so
// validation can report their position
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
