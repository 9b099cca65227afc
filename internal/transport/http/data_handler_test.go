package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/middleware"
	"github.com/MorMundHS-MA/GDV/internal/services"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

func loadedService(t *testing.T) (*MockDataService, *services.DataSource) {
	t.Helper()
	ds := loadWorld(t)
	svc := new(MockDataService)
	svc.On("Current").Return(ds, nil)
	return svc, ds
}

func TestDataHandler_GetCountries(t *testing.T) {
	svc, ds := loadedService(t)
	router := newDataRouter(svc)

	tests := []struct {
		name      string
		target    string
		wantNames []string
	}{
		{name: "all in load order", target: "/api/data/countries",
			wantNames: []string{"Germany", "France", "Ivory Coast", "DR Congo", "Republic of the Congo"}},
		{name: "region filter ignores case", target: "/api/data/countries?region=africa",
			wantNames: []string{"Ivory Coast", "DR Congo", "Republic of the Congo"}},
		{name: "unknown region", target: "/api/data/countries?region=Atlantis", wantNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, strconv.Quote(ds.Fingerprint()), rec.Header().Get("ETag"))

			env := decodeEnvelope(t, rec)
			var countries []domain.Country
			require.NoError(t, json.Unmarshal(env.Data, &countries))

			names := make([]string, 0, len(countries))
			for _, c := range countries {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, len(tt.wantNames), env.Count)
		})
	}
}

func TestDataHandler_ConditionalRequests(t *testing.T) {
	svc, ds := loadedService(t)
	router := newDataRouter(svc)
	etag := strconv.Quote(ds.Fingerprint())

	tests := []struct {
		name        string
		ifNoneMatch string
		want        int
	}{
		{name: "matching etag", ifNoneMatch: etag, want: http.StatusNotModified},
		{name: "weak match in a list", ifNoneMatch: `"stale", W/` + etag, want: http.StatusNotModified},
		{name: "wildcard", ifNoneMatch: "*", want: http.StatusNotModified},
		{name: "stale etag", ifNoneMatch: `"stale"`, want: http.StatusOK},
		{name: "no header", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.ifNoneMatch != "" {
				header.Set("If-None-Match", tt.ifNoneMatch)
			}
			rec := doRequest(router, http.MethodGet, "/api/data/limits", header)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, etag, rec.Header().Get("ETag"))
			if tt.want == http.StatusNotModified {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestDataHandler_DatasetNotLoaded(t *testing.T) {
	svc := new(MockDataService)
	svc.On("Current").Return(nil, services.ErrDatasetNotLoaded)
	router := newDataRouter(svc)

	for _, target := range []string{"/api/data/countries", "/api/data/snapshot/2017", "/api/data/export/csv"} {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Empty(t, rec.Header().Get("ETag"))
			assert.Equal(t, "DATASET_NOT_LOADED", decodeProblem(t, rec)["error_code"])
		})
	}
}

func TestDataHandler_GetCountry(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	tests := []struct {
		name     string
		path     string
		want     int
		wantCode string
	}{
		{name: "canonical name", path: "Germany", want: http.StatusOK, wantCode: "DEU"},
		{name: "country code", path: "fra", want: http.StatusOK, wantCode: "FRA"},
		{name: "escaped alternate name", path: url.PathEscape("Côte d'Ivoire"), want: http.StatusOK, wantCode: "CIV"},
		{name: "override name", path: "Congo", want: http.StatusOK, wantCode: "COD"},
		{name: "unknown", path: "Atlantis", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, "/api/data/countries/"+tt.path, nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())

			if tt.want != http.StatusOK {
				problem := decodeProblem(t, rec)
				assert.Equal(t, apierrors.TypeCountryNotFound, problem["type"])
				assert.Equal(t, "COUNTRY_NOT_FOUND", problem["error_code"])
				return
			}

			var c domain.Country
			require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &c))
			assert.Equal(t, tt.wantCode, c.Code)
			assert.Len(t, c.Stats, len(domain.Years()))
		})
	}
}

func TestDataHandler_GetCountrySeries(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/data/countries/Germany/series", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var series map[string][]domain.StatPoint
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &series))

	assert.Len(t, series, len(domain.AllIndicators()))
	assert.Len(t, series["gdp"], 8)
	assert.Equal(t, []domain.StatPoint{{Year: "2010", Value: 0.05}, {Year: "2017", Value: 0.04}}, series["ineqEdu"])
}

func TestDataHandler_GetLimits(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/data/limits", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var limits map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &limits))

	assert.Equal(t, float64(400), limits["gdp"]["min"])
	assert.Equal(t, float64(48000), limits["gdp"]["max"])
	assert.Contains(t, limits, "inequality")
}

func TestDataHandler_GetSelectionLimits(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	t.Run("partial selection", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/data/limits/selection?countries=Germany,%20Atlantis", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		env := decodeEnvelope(t, rec)
		var body struct {
			Limits  map[string]map[string]interface{} `json:"limits"`
			Missing []string                          `json:"missing"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))

		assert.Equal(t, 1, env.Count)
		assert.Equal(t, []string{"Atlantis"}, body.Missing)
		assert.Equal(t, float64(41000), body.Limits["gdp"]["min"])
		assert.Equal(t, float64(48000), body.Limits["gdp"]["max"])
	})

	t.Run("nothing missing", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/data/limits/selection?countries=Germany", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"missing":[]`)
	})

	t.Run("empty selection", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/data/limits/selection", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec)["type"])
	})
}

func TestDataHandler_GetSnapshot(t *testing.T) {
	svc, ds := loadedService(t)
	router := newDataRouter(svc)

	tests := []struct {
		name          string
		target        string
		want          int
		wantIndicator string
		wantCodes     []string
	}{
		{name: "default indicator", target: "/api/data/snapshot/2017", want: http.StatusOK,
			wantIndicator: "ineqComb", wantCodes: []string{"DEU", "FRA"}},
		{name: "explicit indicator", target: "/api/data/snapshot/2017?indicator=ineqEdu", want: http.StatusOK,
			wantIndicator: "ineqEdu", wantCodes: []string{"DEU"}},
		{name: "resource id", target: "/api/data/snapshot/2010?indicator=ineq_inc", want: http.StatusOK,
			wantIndicator: "ineqInc", wantCodes: []string{"DEU", "FRA"}},
		{name: "year without data", target: "/api/data/snapshot/2013", want: http.StatusOK,
			wantIndicator: "ineqComb", wantCodes: []string{}},
		{name: "unknown year", target: "/api/data/snapshot/2009", want: http.StatusBadRequest},
		{name: "unknown indicator", target: "/api/data/snapshot/2017?indicator=hdi", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusOK {
				assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec)["type"])
				return
			}

			env := decodeEnvelope(t, rec)
			var snap struct {
				Indicator string                `json:"indicator"`
				Points    []domain.ScatterPoint `json:"points"`
				XLimit    domain.Limit          `json:"x_limit"`
				YLimit    domain.Limit          `json:"y_limit"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &snap))

			codes := make([]string, 0, len(snap.Points))
			for _, p := range snap.Points {
				codes = append(codes, p.Code)
			}
			assert.Equal(t, tt.wantIndicator, snap.Indicator)
			assert.Equal(t, tt.wantCodes, codes)
			assert.Equal(t, len(tt.wantCodes), env.Count)
			assert.Equal(t, ds.GetStatLimits().Inequality(), snap.XLimit, "inequality indicators share one axis")
			assert.Equal(t, ds.GetStatLimits().GDP, snap.YLimit)
		})
	}
}

func TestDataHandler_WithDefaultIndicator(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc, WithDefaultIndicator(domain.IndicatorIneqLife))

	rec := doRequest(router, http.MethodGet, "/api/data/snapshot/2010", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"indicator":"ineqLife"`)
}

func TestDataHandler_GetRegions(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/data/regions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var regions []domain.RegionGroup
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &regions))
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, "Europe", regions[0].Region)
	assert.Equal(t, []string{"Germany", "France"}, regions[0].Countries)
}

func TestDataHandler_Search(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	tests := []struct {
		name      string
		target    string
		want      int
		wantCodes []string
	}{
		{name: "accent folded", target: "/api/data/search?q=cote", want: http.StatusOK, wantCodes: []string{"CIV"}},
		{name: "several matches", target: "/api/data/search?q=congo", want: http.StatusOK, wantCodes: []string{"COD", "COG"}},
		{name: "limited", target: "/api/data/search?q=congo&limit=1", want: http.StatusOK, wantCodes: []string{"COD"}},
		{name: "no match", target: "/api/data/search?q=atlantis", want: http.StatusOK, wantCodes: []string{}},
		{name: "missing query", target: "/api/data/search", want: http.StatusBadRequest},
		{name: "bad limit", target: "/api/data/search?q=congo&limit=abc", want: http.StatusBadRequest},
		{name: "limit out of range", target: "/api/data/search?q=congo&limit=0", want: http.StatusOK, wantCodes: []string{"COD", "COG"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusOK {
				return
			}

			var results []domain.CountryInfo
			require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &results))
			codes := make([]string, 0, len(results))
			for _, c := range results {
				codes = append(codes, c.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestDataHandler_GetInfo(t *testing.T) {
	svc, ds := loadedService(t)
	router := newDataRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/data/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, 5, env.Count)
	assert.Equal(t, ds.Fingerprint(), info["fingerprint"])
	assert.Equal(t, float64(2), info["regions"])
}

func TestDataHandler_Export(t *testing.T) {
	svc, _ := loadedService(t)
	router := newDataRouter(svc)

	t.Run("csv", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/data/export/csv", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("code;name;region;year;indicator;value\n")))
		assert.Contains(t, rec.Body.String(), "DEU;Germany;Europe;2017;gdp;48000")
	})

	t.Run("csv with bom", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/data/export/csv?bom=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	})

	t.Run("xlsx", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/data/export/XLSX", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		name, err := f.GetCellValue("Countries", "B2")
		require.NoError(t, err)
		assert.Equal(t, "Germany", name)
	})

	for _, target := range []string{"/api/data/export/pdf", "/api/data/export/csv?bom=maybe"} {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec)["type"])
		})
	}
}

func TestDataHandler_Reload(t *testing.T) {
	ds := loadWorld(t)

	tests := []struct {
		name      string
		result    *services.DataSource
		err       error
		want      int
		wantCode  string
		wantCount int
	}{
		{name: "success", result: ds, want: http.StatusOK},
		{name: "already running", err: services.ErrReloadInProgress, want: http.StatusConflict, wantCode: "CONFLICT"},
		{name: "source unreachable", err: apierrors.NewNetworkError("fetch gdp.csv", assert.AnError),
			want: http.StatusBadGateway, wantCode: "NETWORK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDataService)
			svc.On("Reload", services.TriggerManual).Return(tt.result, tt.err)
			router := newDataRouter(svc)

			rec := doRequest(router, http.MethodPost, "/api/data/reload", nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
			svc.AssertNotCalled(t, "Current")

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeProblem(t, rec)["error_code"])
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
			assert.Equal(t, ds.Fingerprint(), body["fingerprint"])
			assert.Equal(t, float64(5), body["countries"])
		})
	}
}

func TestDataHandler_ReloadGuard(t *testing.T) {
	ds := loadWorld(t)
	svc := new(MockDataService)
	svc.On("Reload", mock.Anything).Return(ds, nil)
	router := newDataRouter(svc, WithReloadGuard(middleware.APIKeyAuth("s3cret", quietLogger())))

	rec := doRequest(router, http.MethodPost, "/api/data/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Reload", mock.Anything)

	rec = doRequest(router, http.MethodPost, "/api/data/reload", http.Header{middleware.APIKeyHeader: {"s3cret"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertNumberOfCalls(t, "Reload", 1)
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{header: "", want: false},
		{header: `"abc"`, want: true},
		{header: `W/"abc"`, want: true},
		{header: `"x", "abc"`, want: true},
		{header: `"abcd"`, want: false},
		{header: "*", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, etagMatches(tt.header, `"abc"`))
		})
	}
}
