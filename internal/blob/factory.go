package blob

import (
	"context"
	"fmt"
	"os"

	fsstore "github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/blob/fs"
	memorystore "github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/blob/memory"
	s3store "github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/blob/s3"
)

// NewMemory returns an in-memory Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem returns a filesystem-backed Store rooted at root.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// Open selects a Store implementation using environment variables.
//
//	FLUXCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	FLUXCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./modeldata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("FLUXCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("FLUXCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
