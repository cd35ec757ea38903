package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/interfaces"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"

	"github.com/rs/zerolog"
)

// recordedPaths is the part of the checksum index the allocator consults.
type recordedPaths interface {
	ChecksumAt(path string) (string, bool)
}

// PathAllocatorService assigns archive paths of the form
// <kind root>/YYYY/MM/<stem>[_NN]<EXT>. Names handed out during a run are
// remembered so a dry run predicts the same names a real run would pick.
// A name the index still records is taken even when the file is gone.
type PathAllocatorService struct {
	layout      types.Layout
	maxAttempts int
	dryRun      bool
	fileOps     interfaces.FileOperations
	recorded    recordedPaths
	claimed     map[string]struct{}
	log         zerolog.Logger
}

// NewPathAllocatorService creates an allocator for one run. recorded may be nil.
func NewPathAllocatorService(layout types.Layout, maxAttempts int, dryRun bool, fileOps interfaces.FileOperations, recorded recordedPaths, log zerolog.Logger) *PathAllocatorService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PathAllocatorService{
		layout:      layout,
		maxAttempts: maxAttempts,
		dryRun:      dryRun,
		fileOps:     fileOps,
		recorded:    recorded,
		claimed:     make(map[string]struct{}),
		log:         log.With().Str("component", "allocator").Logger(),
	}
}

// TargetDir returns the year/month directory for kind at ts.
func (pa *PathAllocatorService) TargetDir(kind types.MediaKind, ts time.Time) (string, error) {
	root, ok := pa.layout.KindRoot(kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedKind, kind)
	}
	return filepath.Join(root, fmt.Sprintf("%04d", ts.Year()), fmt.Sprintf("%02d", int(ts.Month()))), nil
}

// Allocate returns the first free candidate, probing no suffix, then _01,
// _02, ... up to the attempt budget.
func (pa *PathAllocatorService) Allocate(ctx context.Context, kind types.MediaKind, ts time.Time, stem, ext string) (string, error) {
	if stem == "" {
		return "", fmt.Errorf("empty file name stem")
	}
	dir, err := pa.TargetDir(kind, ts)
	if err != nil {
		return "", err
	}
	if err := pa.fileOps.EnsureDir(ctx, dir, pa.dryRun); err != nil {
		return "", err
	}

	ext = NormalizeExtension(ext)
	for attempt := 0; attempt < pa.maxAttempts; attempt++ {
		name := stem + ext
		if attempt > 0 {
			name = fmt.Sprintf("%s_%02d%s", stem, attempt, ext)
		}
		candidate := filepath.Join(dir, name)

		if _, taken := pa.claimed[candidate]; taken {
			continue
		}
		if pa.recorded != nil {
			if sum, stale := pa.recorded.ChecksumAt(candidate); stale {
				pa.log.Warn().Str("target", candidate).Str("checksum", sum).Msg("Name still recorded in index, skipping")
				continue
			}
		}
		if _, err := os.Lstat(candidate); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to probe %s: %w", candidate, err)
		}

		pa.claimed[candidate] = struct{}{}
		if attempt > 0 {
			pa.log.Debug().Str("target", candidate).Int("attempt", attempt).Msg("Name collision resolved with suffix")
		}
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %s%s in %s after %d attempts", common.ErrCollisionBudget, stem, ext, dir, pa.maxAttempts)
}

// Release forgets a claimed path whose move did not happen.
func (pa *PathAllocatorService) Release(path string) {
	delete(pa.claimed, path)
}

// NormalizeExtension forces a leading dot and upper case.
func NormalizeExtension(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToUpper(ext)
}
