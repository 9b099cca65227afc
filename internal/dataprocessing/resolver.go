package dataprocessing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// NameOverrides lists extra names per country code for spellings that only
// the indicator tables use
type NameOverrides map[string][]string

// DefaultNameOverrides returns a fresh copy of the built-in overrides.
// COD and COG are crossed on purpose: the indicator tables label the two
// Congos that way.
func DefaultNameOverrides() NameOverrides {
	return NameOverrides{
		"BRN": {"Brunei Darussalam"},
		"PSE": {"Palestine, State of"},
		"STP": {"Sao Tome and Principe"},
		"MKD": {"The former Yugoslav Republic of Macedonia"},
		"HKG": {"Hong Kong, China (SAR)"},
		"COG": {"Congo (Democratic Republic of the)"},
		"COD": {"Congo"},
	}
}

// Merge returns a copy of o with the names of other appended per code
func (o NameOverrides) Merge(other NameOverrides) NameOverrides {
	out := make(NameOverrides, len(o)+len(other))
	for code, names := range o {
		out[code] = append([]string(nil), names...)
	}
	for code, names := range other {
		out[code] = append(out[code], names...)
	}
	return out
}

// NativeName is a country name in one native language
type NativeName struct {
	Common   string `json:"common"`
	Official string `json:"official"`
}

// CountryName groups the names of a metadata record
type CountryName struct {
	Common   string                `json:"common" validate:"required"`
	Official string                `json:"official" validate:"required"`
	Native   map[string]NativeName `json:"native"`
}

// CountryRecord is one entry of the country metadata resource
type CountryRecord struct {
	CCA3         string      `json:"cca3" validate:"required,len=3,alpha"`
	Name         CountryName `json:"name"`
	AltSpellings []string    `json:"altSpellings" validate:"required"`
	Region       string      `json:"region"`
}

// DecodeRecords parses the metadata JSON array
func DecodeRecords(data []byte) ([]CountryRecord, error) {
	var records []CountryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.NewParsingError("decode country metadata", err)
	}
	return records, nil
}

// CountryIndex maps every known spelling to a code and codes to identities
type CountryIndex struct {
	NameToCode   map[string]string
	InfoFromCode map[string]domain.CountryInfo
	// Collisions counts names that were first registered for another code
	Collisions int

	names map[string][]string
}

// Resolve returns the code registered for name
func (idx *CountryIndex) Resolve(name string) (string, bool) {
	code, ok := idx.NameToCode[name]
	return code, ok
}

// Info returns the identity of a resolved name
func (idx *CountryIndex) Info(name string) (domain.CountryInfo, bool) {
	code, ok := idx.Resolve(name)
	if !ok {
		return domain.CountryInfo{}, false
	}
	info, ok := idx.InfoFromCode[code]
	return info, ok
}

// Names returns the alternate names gathered for a code in registration order
func (idx *CountryIndex) Names(code string) []string {
	return append([]string(nil), idx.names[code]...)
}

// Resolver builds a CountryIndex from metadata records
type Resolver struct {
	overrides NameOverrides
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewResolver creates a resolver that adds overrides to the metadata names
func NewResolver(overrides NameOverrides, logger *slog.Logger) *Resolver {
	return &Resolver{
		overrides: overrides,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With(slog.String("component", "resolver")),
	}
}

// Build validates every record and indexes its names. Later records win
// on conflicting names and codes.
func (r *Resolver) Build(records []CountryRecord) (*CountryIndex, error) {
	for i := range records {
		if err := r.validate.Struct(records[i]); err != nil {
			return nil, recordValidationError(i, records[i].CCA3, err)
		}
	}

	idx := &CountryIndex{
		NameToCode:   make(map[string]string),
		InfoFromCode: make(map[string]domain.CountryInfo, len(records)),
		names:        make(map[string][]string, len(records)),
	}

	for _, rec := range records {
		code := rec.CCA3
		names := r.alternateNames(rec)

		for _, name := range names {
			if name == "" {
				continue
			}
			if prev, ok := idx.NameToCode[name]; ok && prev != code {
				idx.Collisions++
				r.logger.Warn("country name registered for two codes",
					slog.String("name", name),
					slog.String("previous", prev),
					slog.String("code", code))
			}
			idx.NameToCode[name] = code
		}

		if _, dup := idx.InfoFromCode[code]; dup {
			r.logger.Warn("duplicate country code, keeping the later record",
				slog.String("code", code))
		}
		idx.InfoFromCode[code] = domain.CountryInfo{
			Code:   code,
			Name:   rec.Name.Common,
			Region: rec.Region,
		}
		idx.names[code] = names
	}

	r.logger.Info("country index built",
		slog.Int("records", len(records)),
		slog.Int("names", len(idx.NameToCode)),
		slog.Int("collisions", idx.Collisions))
	return idx, nil
}

// alternateNames gathers every spelling of a record in registration order
func (r *Resolver) alternateNames(rec CountryRecord) []string {
	names := []string{rec.Name.Common, rec.Name.Official}

	langs := make([]string, 0, len(rec.Name.Native))
	for lang := range rec.Name.Native {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		native := rec.Name.Native[lang]
		names = append(names, native.Common, native.Official)
	}

	var variants []string
	for _, name := range names {
		if v, ok := ofVariant(name); ok {
			variants = append(variants, v)
		}
	}
	names = append(names, variants...)

	names = append(names, rec.AltSpellings...)
	names = append(names, r.overrides[rec.CCA3]...)
	return names
}

// ofVariant turns "Republic of Testland" into "Testland (Republic of)"
func ofVariant(name string) (string, bool) {
	const marker = " of "
	pos := strings.Index(name, marker)
	if pos < 0 {
		return "", false
	}
	prefix := strings.TrimSpace(name[:pos+len(marker)])
	rest := strings.TrimSpace(name[pos+len(marker):])
	return rest + " (" + prefix + ")", true
}

func recordValidationError(index int, code string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("country record %d is invalid", index), err)
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "CountryRecord.")
	return apperrors.NewAppError(apperrors.ErrTypeValidation,
		fmt.Sprintf("country record %d: field %s failed %q", index, field, fe.Tag()), err).
		WithContext("index", index).
		WithContext("field", field).
		WithContext("code", code)
}
