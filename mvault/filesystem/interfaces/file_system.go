package interfaces

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/options"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"
)

// Hasher computes the content digest used as the dedup key
type Hasher interface {
	Sum(path string) (string, error)
}

// TimestampResolver determines the capture time of a media file
type TimestampResolver interface {
	Resolve(ctx context.Context, path string, kind types.MediaKind) (types.Resolution, error)
}

// PathAllocator assigns non-colliding archive paths for one run
type PathAllocator interface {
	Allocate(ctx context.Context, kind types.MediaKind, ts time.Time, stem, ext string) (string, error)
	Release(path string)
}

// FileOperations defines the mutations a run performs on disk
type FileOperations interface {
	MoveFile(ctx context.Context, srcPath, dstPath string, opts options.MoveOptions) error
	DeleteFile(ctx context.Context, path string, opts options.DeleteOptions) error
	EnsureDir(ctx context.Context, dir string, dryRun bool) error
}

// Scanner enumerates a directory tree
type Scanner interface {
	Scan(ctx context.Context, root string, opts options.ScanOptions) ([]types.DiscoveredFile, error)
}

// OrganizationService runs the dropbox intake pipeline
type OrganizationService interface {
	Organize(ctx context.Context, opts options.OrganizeOptions) (*types.OrganizeResult, error)
}

// ReconcileService rebuilds the checksum index from the archive
type ReconcileService interface {
	Reconcile(ctx context.Context, opts options.ReconcileOptions) (*types.ReconcileResult, error)
}
