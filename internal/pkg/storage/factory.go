package storage

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverLocal selects the local filesystem backend.
	DriverLocal = "local"
	// DriverMinIO selects the MinIO backend.
	DriverMinIO = "minio"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions groups configuration for storage drivers.
type FactoryOptions struct {
	// Local configures the filesystem backend.
	Local LocalOptions
	// MinIO configures the MinIO backend.
	MinIO MinIOOptions
}

// NewFromDriver constructs a Storage implementation by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(driver) {
	case DriverLocal:
		return NewLocal(opts.Local)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
