// Package api contains the request and response contracts of the data API.
// Version v1 represents the current stable API version.
package api

// CountriesQuery filters GET /api/data/countries
type CountriesQuery struct {
	Region string `json:"region" query:"region" validate:"omitempty,max=64"`
}

// CountryParams addresses a single country by any registered name or code
type CountryParams struct {
	Name string `json:"name" param:"name" validate:"required,max=128"`
}

// SelectionQuery lists the countries for GET /api/data/limits/selection
type SelectionQuery struct {
	Countries []string `json:"countries" query:"countries" validate:"required,min=1,max=250,dive,required,max=128"`
}

// SnapshotQuery selects one year of the scatter plot
type SnapshotQuery struct {
	Year      string `json:"year" param:"year" validate:"required,year"`
	Indicator string `json:"indicator" query:"indicator" validate:"omitempty,indicator"`
}

// SearchQuery is an accent-folded name search
type SearchQuery struct {
	Q     string `json:"q" query:"q" validate:"required,min=1,max=128"`
	Limit int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=250"`
}

// ExportQuery selects the download format
type ExportQuery struct {
	Format string `json:"format" param:"format" validate:"required,oneof=xlsx csv"`
	BOM    bool   `json:"bom" query:"bom"`
}
