// Package blob is the single entry point to the blob storage backends.
// Callers depend on Store and obtain one through Open; only this package
// imports the infra implementations.
package blob

import (
	"context"
	"fmt"

	"genecore/internal/blob/core"
	"genecore/internal/config"
	"genecore/internal/infra/blob/fs"
	"genecore/internal/infra/blob/memory"
	"genecore/internal/infra/blob/s3"
)

type (
	Store      = core.Store
	Info       = core.Info
	PutOptions = core.PutOptions
	Driver     = core.Driver
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// ErrNotFound is returned by Get and Head for missing keys.
var ErrNotFound = core.ErrNotFound

// NewMemory returns an in-memory store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a store rooted at root.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// NewS3Mock returns an s3 store served by an in-process fake transport, for
// tests of packages layered on Store.
func NewS3Mock() Store { return s3.NewMockForTests() }

// Open selects a blob store from configuration. Only the memory, fs and s3
// drivers are blob backed.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch Driver(cfg.StoreDriver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.StoreDriver)
	}
}
