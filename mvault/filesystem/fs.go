package filesystem

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/checksum"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/interfaces"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/options"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/services"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/timestamp"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"

	"github.com/rs/zerolog"
)

// FileSystem is the entry point of mvault. It wires the intake and
// reconciliation services for a configuration.
type FileSystem struct {
	// Core services
	organizationService interfaces.OrganizationService
	reconcileService    interfaces.ReconcileService

	// Utilities
	pathUtils *common.PathUtils
}

// New creates a filesystem manager for cfg
func New(cfg *config.Config, log zerolog.Logger) (*FileSystem, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Create services in correct order
	hasher := checksum.NewHasher(cfg.Checksum)
	resolver := timestamp.NewResolver(cfg, log)
	fileOperations := services.NewFileOperationsService(log)
	scanner := services.NewScannerService(log)
	organizationService := services.NewOrganizationService(cfg, hasher, resolver, fileOperations, scanner, log)
	reconcileService := services.NewReconcileService(cfg, hasher, scanner, log)

	return &FileSystem{
		organizationService: organizationService,
		reconcileService:    reconcileService,
		pathUtils:           common.NewPathUtils(),
	}, nil
}

// High-level API methods

// Organize processes the dropbox under root
func (fs *FileSystem) Organize(ctx context.Context, root string, dryRun bool) (*types.OrganizeResult, error) {
	if err := fs.pathUtils.ValidatePath(root); err != nil {
		return nil, err
	}
	return fs.organizationService.Organize(ctx, options.OrganizeOptions{
		ArchiveRoot: fs.pathUtils.NormalizePath(root),
		DryRun:      dryRun,
	})
}

// Refresh rebuilds the checksum index of root from its archive subtrees
func (fs *FileSystem) Refresh(ctx context.Context, root string, dryRun bool) (*types.ReconcileResult, error) {
	if err := fs.pathUtils.ValidatePath(root); err != nil {
		return nil, err
	}
	return fs.reconcileService.Reconcile(ctx, options.ReconcileOptions{
		ArchiveRoot: fs.pathUtils.NormalizePath(root),
		DryRun:      dryRun,
	})
}
