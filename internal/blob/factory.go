// Package blob selects the object store used for result exports.
package blob

import (
	"context"
	"fmt"
	"popstudy/internal/blob/core"
	"popstudy/internal/infra/blob/memory"
	"popstudy/internal/infra/blob/s3"
)

type (
	Store  = core.Store
	Driver = core.Driver
)

// Config selects and configures the export store.
type Config struct {
	Driver      Driver
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Open returns the configured store. An empty driver selects memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case core.DriverMemory, "":
		return memory.New(), nil
	case core.DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
