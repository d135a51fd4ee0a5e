package store

import (
	"context"

	"sjsage522/listingworker/internal/models"
)

// Store persists a site's records
type Store interface {
	// Load returns every record already persisted, in file order
	Load(ctx context.Context) ([]models.Record, error)

	// Append adds records after the existing ones
	Append(ctx context.Context, records []models.Record) error

	// Rewrite replaces the whole content with records
	Rewrite(ctx context.Context, records []models.Record) error

	// Location describes where the records live, for logging
	Location() string
}
