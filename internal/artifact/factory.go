package artifact

import (
	"context"
	"fmt"

	"seqreport/internal/infra/artifact/fs"
	"seqreport/internal/infra/artifact/memory"
	"seqreport/internal/infra/artifact/s3"
)

// S3Options configures the s3 driver.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for MinIO
	PathStyle bool
}

// Options selects and configures an artifact driver.
type Options struct {
	Driver Driver
	FSRoot string // root directory when Driver is fs
	S3     S3Options
}

// Open constructs the store named by opts.Driver. An empty driver defaults
// to the filesystem.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverFilesystem:
		return fs.New(opts.FSRoot)
	case DriverS3:
		if opts.S3.Bucket == "" {
			return s3.OpenFromEnv(ctx)
		}
		return s3.New(ctx, s3.Config{
			Bucket:    opts.S3.Bucket,
			Region:    opts.S3.Region,
			Endpoint:  opts.S3.Endpoint,
			PathStyle: opts.S3.PathStyle,
		})
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", opts.Driver)
	}
}
