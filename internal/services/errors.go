package services

import "errors"

// Dataset errors
var (
	ErrCountryNotFound  = errors.New("country not found")
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrUnknownYear      = errors.New("unknown year")
	ErrReloadInProgress = errors.New("reload already in progress")
)
