// Package artifact re-exports the artifact store abstractions and selects
// drivers, giving callers a single stable import.
package artifact

import (
	"seqreport/internal/artifact/core"
)

type (
	// Driver identifies an artifact backend driver.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored artifact metadata.
	Info = core.Info
	// Store is the interface for artifact storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported
