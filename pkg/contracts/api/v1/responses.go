package api

import (
	"time"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// StatusSuccess marks a successful envelope
const StatusSuccess = "success"

// Response is the success envelope of every data endpoint
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Count  int         `json:"count"`
}

// Success wraps data in the envelope
func Success(data interface{}, count int) Response {
	return Response{Status: StatusSuccess, Data: data, Count: count}
}

// SelectionLimits reports ranges over a set of countries and the requested
// names that resolved to nothing
type SelectionLimits struct {
	Limits  *domain.StatLimits `json:"limits"`
	Missing []string           `json:"missing"`
}

// Snapshot is one year of the scatter plot with the axis ranges to draw it.
// X is the chosen indicator, Y is GDP.
type Snapshot struct {
	Year      string                `json:"year"`
	Indicator domain.Indicator      `json:"indicator"`
	Points    []domain.ScatterPoint `json:"points"`
	XLimit    domain.Limit          `json:"x_limit"`
	YLimit    domain.Limit          `json:"y_limit"`
}

// Reload summarizes the dataset that replaced the previous one
type Reload struct {
	Fingerprint string    `json:"fingerprint"`
	Countries   int       `json:"countries"`
	Collisions  int       `json:"collisions"`
	LoadedAt    time.Time `json:"loaded_at"`
}
