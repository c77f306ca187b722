package source

import (
	"context"
	"errors"

	"govspend/internal/core"
)

// RowReader is the port implemented by every data source backend.
type RowReader interface {
	// ReadRows runs the backend's fixed department/year/amount projection and
	// returns the rows as stored, without any validation.
	ReadRows(ctx context.Context) ([]core.RawRow, error)
}

var (
	// ErrNotConfigured means a backend is missing connection settings.
	ErrNotConfigured = errors.New("data source not configured")
	// ErrUnauthorized means the backend rejected the credentials.
	ErrUnauthorized = errors.New("data source rejected credentials")
)
