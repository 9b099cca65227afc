package errors

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(404, TypeCountryNotFound, "Not Found", "country missing", "/api/data/countries/x").
		WithExtension("error_code", "COUNTRY_NOT_FOUND").
		WithExtension("status", "overridden")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeCountryNotFound, decoded["type"])
	assert.Equal(t, float64(404), decoded["status"], "standard fields win over extensions")
	assert.Equal(t, "COUNTRY_NOT_FOUND", decoded["error_code"])
	assert.Equal(t, "/api/data/countries/x", decoded["instance"])
}

func TestProblemDetails_OmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(NewProblemDetails(500, TypeInternal, "Internal Server Error", "", ""))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "detail")
	assert.NotContains(t, decoded, "instance")
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	pd := &ProblemDetails{Status: 400}
	pd.WithExtension("field", "year")
	assert.Equal(t, "year", pd.Extensions["field"])
}
