package index

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/fileops"

	"github.com/rs/zerolog"
)

const indexPerm = 0o644

// Store persists an Index as a line-oriented text file with a backup sibling.
type Store struct {
	path         string
	backupSuffix string
	log          zerolog.Logger
}

// NewStore returns a store for the index file at path.
func NewStore(path, backupSuffix string, log zerolog.Logger) *Store {
	return &Store{
		path:         filepath.Clean(path),
		backupSuffix: backupSuffix,
		log:          log.With().Str("component", "index").Logger(),
	}
}

// Path returns the primary index file path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the backup sibling path, or "" when backups are off.
func (s *Store) BackupPath() string {
	if s.backupSuffix == "" {
		return ""
	}
	return s.path + s.backupSuffix
}

// Load reads the primary index file. A missing file is ErrIndexMissing; it
// is never created implicitly.
func (s *Store) Load() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrIndexMissing, s.path)
		}
		return nil, fmt.Errorf("failed to read index %s: %w", s.path, err)
	}

	idx, err := Parse(bytes.NewReader(data), s.path)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("path", s.path).Int("entries", idx.Len()).Msg("Loaded checksum index")
	return idx, nil
}

// Save copies the current primary to the backup sibling and then replaces the
// primary atomically. A failed backup is logged and does not stop the save.
func (s *Store) Save(idx *Index) error {
	if err := s.backup(); err != nil {
		s.log.Warn().Err(err).Str("backup", s.BackupPath()).Msg("Could not back up checksum index, saving anyway")
	}

	dir, name := filepath.Split(s.path)
	if err := fileops.WriteFileAtomic(filepath.Clean(dir), name, idx.Bytes(), indexPerm); err != nil {
		return fmt.Errorf("failed to save index %s: %w", s.path, err)
	}

	s.log.Info().Str("path", s.path).Int("entries", idx.Len()).Msg("Saved checksum index")
	return nil
}

// WriteSide writes idx to a sibling file named name, leaving the primary and
// its backup untouched. It returns the written path.
func (s *Store) WriteSide(idx *Index, name string) (string, error) {
	dir := filepath.Dir(s.path)
	target := filepath.Join(dir, name)
	if target == s.path {
		return "", fmt.Errorf("side file %s would replace the primary index", target)
	}
	if err := fileops.WriteFileAtomic(dir, name, idx.Bytes(), indexPerm); err != nil {
		return "", fmt.Errorf("failed to write index side file %s: %w", target, err)
	}

	s.log.Info().Str("path", target).Int("entries", idx.Len()).Msg("Wrote checksum index side file")
	return target, nil
}

func (s *Store) backup() error {
	if s.backupSuffix == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to back up yet.
			return nil
		}
		return err
	}
	dir, name := filepath.Split(s.BackupPath())
	return fileops.WriteFileAtomic(filepath.Clean(dir), name, data, indexPerm)
}
