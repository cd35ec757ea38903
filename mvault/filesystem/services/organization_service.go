package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/interfaces"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/options"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"
	"github.com/ZanzyTHEbar/mvault/mvault/index"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

// mediaHandler holds the per-kind naming rules.
type mediaHandler struct {
	stem func(ts time.Time, originalStem string) string
	ext  func(ext string) string
}

// OrganizationService moves novel media from the dropbox into the archive and
// deletes incoming files whose content is already archived.
type OrganizationService struct {
	cfg          *config.Config
	hasher       interfaces.Hasher
	resolver     interfaces.TimestampResolver
	fileOps      interfaces.FileOperations
	scanner      interfaces.Scanner
	handlers     map[types.MediaKind]mediaHandler
	pathUtils    *common.PathUtils
	newAllocator func(layout types.Layout, dryRun bool, idx *index.Index) interfaces.PathAllocator
	log          zerolog.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(
	cfg *config.Config,
	hasher interfaces.Hasher,
	resolver interfaces.TimestampResolver,
	fileOps interfaces.FileOperations,
	scanner interfaces.Scanner,
	log zerolog.Logger,
) *OrganizationService {
	ors := &OrganizationService{
		cfg:       cfg,
		hasher:    hasher,
		resolver:  resolver,
		fileOps:   fileOps,
		scanner:   scanner,
		pathUtils: common.NewPathUtils(),
		log:       log.With().Str("component", "organizer").Logger(),
	}
	ors.handlers = map[types.MediaKind]mediaHandler{
		types.KindPhoto: {
			stem: func(ts time.Time, _ string) string {
				return cfg.Naming.PhotoPrefix + "_" + ts.Format("20060102-150405")
			},
			ext: func(string) string { return ".JPG" },
		},
		types.KindVideo: {
			stem: func(_ time.Time, originalStem string) string { return originalStem },
			ext:  NormalizeExtension,
		},
	}
	ors.newAllocator = func(layout types.Layout, dryRun bool, idx *index.Index) interfaces.PathAllocator {
		return NewPathAllocatorService(layout, cfg.Naming.MaxAttempts, dryRun, fileOps, idx, log)
	}
	return ors
}

// organizeRun is the state of one Organize call.
type organizeRun struct {
	layout    types.Layout
	dryRun    bool
	idx       *index.Index
	allocator interfaces.PathAllocator
}

// Organize runs the intake pipeline over the dropbox of opts.ArchiveRoot.
// A missing or malformed index aborts the run before anything is touched;
// per-file problems are recorded in the result and never stop the batch.
func (ors *OrganizationService) Organize(ctx context.Context, opts options.OrganizeOptions) (*types.OrganizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	layout := ors.cfg.Layout(opts.ArchiveRoot)

	ors.log.Info().
		Str("root", layout.Root).
		Str("dropbox", layout.Dropbox).
		Bool("dryRun", opts.DryRun).
		Msg("Starting dropbox intake")

	store := index.NewStore(layout.Index, ors.cfg.Index.BackupSuffix, ors.log)
	idx, err := store.Load()
	if err != nil {
		return nil, err
	}

	files, err := ors.scanner.Scan(ctx, layout.Dropbox, options.ScanOptions{
		ExcludeMarkers: ors.cfg.Archive.ExcludeMarkers,
		IgnoreFile:     ors.cfg.Archive.IgnoreFile,
	})
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		ors.log.Warn().Str("dropbox", layout.Dropbox).Msg("Dropbox does not exist, nothing to do")
	}

	run := &organizeRun{
		layout:    layout,
		dryRun:    opts.DryRun,
		idx:       idx,
		allocator: ors.newAllocator(layout, opts.DryRun, idx),
	}
	result := &types.OrganizeResult{
		Layout:    layout,
		DryRun:    opts.DryRun,
		StartTime: start,
		Outcomes:  make([]types.FileOutcome, 0, len(files)),
	}

	for _, f := range files {
		outcome := ors.processFileSafely(ctx, run, f)
		switch outcome.State {
		case types.StateArchived:
			result.Counters.Moved++
		case types.StateDuplicate:
			result.Counters.Removed++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.IndexEntries = idx.Len()
	if result.Counters.Mutated() && !opts.DryRun {
		if err := store.Save(idx); err != nil {
			ors.finish(result)
			return result, err
		}
		result.IndexSaved = true
	}

	ors.finish(result)
	ors.log.Info().
		Int("moved", result.Counters.Moved).
		Int("removed", result.Counters.Removed).
		Int("failed", len(result.Failures())).
		Bool("indexSaved", result.IndexSaved).
		Dur("duration", result.Duration).
		Msg("Dropbox intake completed")
	return result, nil
}

func (ors *OrganizationService) finish(result *types.OrganizeResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
}

// processFileSafely turns a panic while handling f into a failed outcome.
func (ors *OrganizationService) processFileSafely(ctx context.Context, run *organizeRun, f types.DiscoveredFile) types.FileOutcome {
	var outcome types.FileOutcome
	var pc panics.Catcher
	pc.Try(func() { outcome = ors.processFile(ctx, run, f) })
	if r := pc.Recovered(); r != nil {
		outcome = types.FileOutcome{Path: f.Path, State: types.StateFailed, Err: r.AsError()}
		ors.log.Error().Err(outcome.Err).Str("path", f.Path).Msg("Recovered from panic while processing file")
	}
	return outcome
}

func (ors *OrganizationService) processFile(ctx context.Context, run *organizeRun, f types.DiscoveredFile) types.FileOutcome {
	outcome := types.FileOutcome{Path: f.Path}
	fail := func(err error) types.FileOutcome {
		outcome.State = types.StateFailed
		outcome.Err = err
		ors.log.Error().Err(err).Str("path", f.Path).Msg("Failed to process file")
		return outcome
	}

	kind, ok := types.KindForExtension(filepath.Ext(f.Path))
	if !ok {
		outcome.State = types.StateSkipped
		outcome.SkipReason = types.SkipUnsupportedExtension
		ors.log.Debug().Str("path", f.Path).Msg("Skipping unsupported file type")
		return outcome
	}
	outcome.Kind = kind

	if !f.Regular() {
		outcome.State = types.StateSkipped
		outcome.SkipReason = types.SkipNotRegularFile
		ors.log.Debug().Str("path", f.Path).Str("mode", f.Mode.String()).Msg("Skipping non-regular file")
		return outcome
	}

	sum, err := ors.hasher.Sum(f.Path)
	if err != nil {
		return fail(err)
	}
	outcome.Checksum = sum

	if existing, dup := run.idx.Lookup(sum); dup {
		outcome.State = types.StateDuplicate
		outcome.Existing = existing
		ors.log.Info().Str("path", f.Path).Str("existing", existing).Msg("Duplicate of archived file, removing")
		if err := ors.fileOps.DeleteFile(ctx, f.Path, options.DeleteOptions{DryRun: run.dryRun}); err != nil {
			// Still a duplicate; the counter reflects the matching record.
			outcome.Err = err
			ors.log.Error().Err(err).Str("path", f.Path).Msg("Failed to delete duplicate")
		}
		return outcome
	}

	res, err := ors.resolver.Resolve(ctx, f.Path, kind)
	if err != nil {
		return fail(err)
	}
	outcome.Timestamp = res.Time
	outcome.Source = res.Source

	handler := ors.handlers[kind]
	_, originalStem, ext := ors.pathUtils.SplitPath(f.Path)

	target, err := run.allocator.Allocate(ctx, kind, res.Time, handler.stem(res.Time, originalStem), handler.ext(ext))
	if err != nil {
		return fail(err)
	}
	// Checked before the move so the file stays in the dropbox.
	if err := index.CheckPath(target); err != nil {
		run.allocator.Release(target)
		return fail(err)
	}

	if err := ors.fileOps.MoveFile(ctx, f.Path, target, options.MoveOptions{DryRun: run.dryRun}); err != nil {
		run.allocator.Release(target)
		return fail(fmt.Errorf("failed to move %s to %s: %w", f.Path, target, err))
	}

	if err := run.idx.Insert(sum, target); err != nil {
		return fail(err)
	}
	outcome.State = types.StateArchived
	outcome.Target = target
	ors.log.Info().
		Str("path", f.Path).
		Str("target", target).
		Str("source", string(res.Source)).
		Msg("Archived file")
	return outcome
}
