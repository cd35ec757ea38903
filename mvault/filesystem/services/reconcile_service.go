package services

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/interfaces"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/options"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"
	"github.com/ZanzyTHEbar/mvault/mvault/index"

	"github.com/rs/zerolog"
)

// ReconcileService rebuilds the checksum index from the files actually
// present in the photo and video subtrees.
type ReconcileService struct {
	cfg     *config.Config
	hasher  interfaces.Hasher
	scanner interfaces.Scanner
	log     zerolog.Logger
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(cfg *config.Config, hasher interfaces.Hasher, scanner interfaces.Scanner, log zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		cfg:     cfg,
		hasher:  hasher,
		scanner: scanner,
		log:     log.With().Str("component", "reconcile").Logger(),
	}
}

// Reconcile hashes every regular archive file into a fresh index and writes
// it over the primary index, or to the refresh side file in dry-run mode.
// The previous index is only read for the drift report.
func (rs *ReconcileService) Reconcile(ctx context.Context, opts options.ReconcileOptions) (*types.ReconcileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	layout := rs.cfg.Layout(opts.ArchiveRoot)
	store := index.NewStore(layout.Index, rs.cfg.Index.BackupSuffix, rs.log)

	rs.log.Info().Str("root", layout.Root).Bool("dryRun", opts.DryRun).Msg("Rebuilding checksum index")

	previous, err := store.Load()
	if err != nil {
		rs.log.Warn().Err(err).Msg("Previous index unavailable, drift report skipped")
	}

	fresh := index.New()
	result := &types.ReconcileResult{Layout: layout, DryRun: opts.DryRun}

	for _, root := range []string{layout.Photos, layout.Videos} {
		files, err := rs.scanner.Scan(ctx, root, options.ScanOptions{ExcludeMarkers: rs.cfg.Archive.ExcludeMarkers})
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				rs.log.Debug().Str("dir", root).Msg("Archive subtree does not exist")
				continue
			}
			return nil, err
		}

		for _, f := range files {
			if !f.Regular() {
				continue
			}
			sum, err := rs.hasher.Sum(f.Path)
			if err != nil {
				rs.log.Error().Err(err).Str("path", f.Path).Msg("Failed to hash archive file")
				result.Failures = append(result.Failures, types.FileOutcome{Path: f.Path, State: types.StateFailed, Err: err})
				continue
			}
			if kept, seen := fresh.Lookup(sum); seen {
				rs.log.Warn().Str("path", f.Path).Str("kept", kept).Msg("Archive holds the same content twice")
				result.Duplicates = append(result.Duplicates, types.ArchiveDuplicate{Path: f.Path, Checksum: sum, KeptPath: kept})
				continue
			}
			if err := fresh.Insert(sum, f.Path); err != nil {
				rs.log.Error().Err(err).Str("path", f.Path).Msg("Failed to index archive file")
				result.Failures = append(result.Failures, types.FileOutcome{Path: f.Path, State: types.StateFailed, Checksum: sum, Err: err})
				continue
			}
		}
	}

	if previous != nil {
		result.Drift = computeDrift(previous, fresh, layout)
	}
	result.Entries = fresh.Len()

	if opts.DryRun {
		written, err := store.WriteSide(fresh, rs.cfg.Index.RefreshFile)
		if err != nil {
			return nil, err
		}
		result.WrittenTo = written
	} else {
		if err := store.Save(fresh); err != nil {
			return nil, err
		}
		result.WrittenTo = store.Path()
	}

	result.Duration = time.Since(start)
	rs.log.Info().
		Int("entries", result.Entries).
		Int("duplicates", len(result.Duplicates)).
		Int("failed", len(result.Failures)).
		Int("added", len(result.Drift.Added)).
		Int("dropped", len(result.Drift.Dropped)).
		Str("writtenTo", result.WrittenTo).
		Msg("Checksum index rebuilt")
	return result, nil
}

// computeDrift compares the previous index with the rebuilt one. Foreign
// entries point outside the photo and video subtrees.
func computeDrift(previous, fresh *index.Index, layout types.Layout) types.IndexDrift {
	drift := types.IndexDrift{PreviousLoaded: true}

	inside := make(map[string]struct{})
	for _, root := range []string{layout.Photos, layout.Videos} {
		for _, e := range previous.Under(root) {
			inside[e.Path] = struct{}{}
		}
	}

	for _, e := range previous.Entries() {
		if _, ok := inside[filepath.Clean(e.Path)]; !ok {
			drift.Foreign = append(drift.Foreign, e.Path)
		}
		now, ok := fresh.Lookup(e.Checksum)
		switch {
		case !ok:
			drift.Dropped = append(drift.Dropped, e.Path)
		case filepath.Clean(now) != filepath.Clean(e.Path):
			drift.Changed = append(drift.Changed, now)
		}
	}

	for _, e := range fresh.Entries() {
		if _, ok := previous.Lookup(e.Checksum); !ok {
			drift.Added = append(drift.Added, e.Path)
		}
	}
	return drift
}
