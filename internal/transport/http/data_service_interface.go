package http

import (
	"context"

	"github.com/MorMundHS-MA/GDV/internal/services"
)

// DataServiceInterface defines the dataset operations the handlers need
type DataServiceInterface interface {
	Current() (*services.DataSource, error)
	Reload(ctx context.Context, trigger string) (*services.DataSource, error)
}
