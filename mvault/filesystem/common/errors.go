package common

import (
	"errors"
	"fmt"
)

// Common error types used across filesystem packages
var (
	// Fatal: the run stops before any mutation.
	ErrIndexMissing = errors.New("checksum index file does not exist")
	ErrIndexParse   = errors.New("checksum index file is malformed")

	// Per-file: the file is left untouched and the batch continues.
	ErrTimestampUnresolved = errors.New("capture timestamp could not be resolved")
	ErrTimestampParse      = errors.New("timestamp does not match any known layout")
	ErrCollisionBudget     = errors.New("no free target file name within the attempt budget")
	ErrTargetExists        = errors.New("target path already exists")
	ErrNotRegularFile      = errors.New("not a regular file")
	ErrUnsupportedKind     = errors.New("unsupported media kind")
	ErrPathUnrecordable    = errors.New("path cannot be recorded in the checksum index")

	ErrPathEmpty = errors.New("path cannot be empty")
)

// IndexParseError reports the offending line of a checksum index file.
type IndexParseError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *IndexParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Reason, e.Text)
}

func (e *IndexParseError) Unwrap() error { return ErrIndexParse }

// IsFatal reports whether err must abort a run rather than a single file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIndexMissing) || errors.Is(err, ErrIndexParse)
}
