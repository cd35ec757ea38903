package services

import (
	"context"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/fileops"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/options"

	"github.com/rs/zerolog"
)

const dirPerm = 0o755

// FileOperationsService performs the moves, deletes and directory creation of
// a run. In dry-run mode every operation is logged and nothing is touched.
type FileOperationsService struct {
	log zerolog.Logger
}

// NewFileOperationsService creates a new file operations service
func NewFileOperationsService(log zerolog.Logger) *FileOperationsService {
	return &FileOperationsService{log: log.With().Str("component", "fileops").Logger()}
}

// MoveFile moves srcPath to dstPath, never replacing an existing file
func (fos *FileOperationsService) MoveFile(ctx context.Context, srcPath, dstPath string, opts options.MoveOptions) error {
	if opts.DryRun {
		fos.log.Info().Str("src", srcPath).Str("dst", dstPath).Msg("DRY RUN: would move file")
		return nil
	}

	// Check for context cancellation
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fileops.MoveFile(srcPath, dstPath); err != nil {
		return err
	}
	fos.log.Info().Str("src", srcPath).Str("dst", dstPath).Msg("Moved file")
	return nil
}

// DeleteFile removes a single file
func (fos *FileOperationsService) DeleteFile(ctx context.Context, path string, opts options.DeleteOptions) error {
	if opts.DryRun {
		fos.log.Info().Str("path", path).Msg("DRY RUN: would delete file")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	fos.log.Info().Str("path", path).Msg("Deleted file")
	return nil
}

// EnsureDir creates dir and its parents if they are missing
func (fos *FileOperationsService) EnsureDir(ctx context.Context, dir string, dryRun bool) error {
	if dryRun {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fos.log.Debug().Str("dir", dir).Msg("DRY RUN: would create directory")
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
