package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/options"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"

	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
)

// ScannerService walks a directory tree in lexical order and reports every
// non-directory entry that is not excluded.
type ScannerService struct {
	pathUtils *common.PathUtils
	log       zerolog.Logger
}

// NewScannerService creates a new scanner
func NewScannerService(log zerolog.Logger) *ScannerService {
	return &ScannerService{
		pathUtils: common.NewPathUtils(),
		log:       log.With().Str("component", "scanner").Logger(),
	}
}

// Scan enumerates root. A missing root returns an error matching
// fs.ErrNotExist.
func (ss *ScannerService) Scan(ctx context.Context, root string, opts options.ScanOptions) ([]types.DiscoveredFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	matcher, ignorePath, err := ss.loadIgnoreFile(root, opts.IgnoreFile)
	if err != nil {
		return nil, err
	}

	var files []types.DiscoveredFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			ss.log.Warn().Err(walkErr).Str("path", path).Msg("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if ss.pathUtils.HasMarker(rel, opts.ExcludeMarkers) {
			ss.log.Debug().Str("path", path).Msg("Skipping system metadata entry")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher != nil {
			candidate := filepath.ToSlash(rel)
			if d.IsDir() {
				candidate += "/"
			}
			if path == ignorePath || matcher.MatchesPath(candidate) {
				ss.log.Debug().Str("path", path).Msg("Skipping ignored entry")
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}
		files = append(files, types.DiscoveredFile{Path: path, Mode: d.Type()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	ss.log.Debug().Str("root", root).Int("entries", len(files)).Msg("Scan complete")
	return files, nil
}

func (ss *ScannerService) loadIgnoreFile(root, name string) (*ignore.GitIgnore, string, error) {
	if name == "" {
		return nil, "", nil
	}
	p := filepath.Join(root, name)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to stat ignore file %s: %w", p, err)
	}
	matcher, err := ignore.CompileIgnoreFile(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read ignore file %s: %w", p, err)
	}
	ss.log.Debug().Str("file", p).Msg("Loaded ignore patterns")
	return matcher, p, nil
}
