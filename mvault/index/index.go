// Package index holds the content-addressed dedup index: a mapping from file
// checksum to the archive path holding that content.
package index

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"

	"github.com/armon/go-radix"
)

// Entry is one checksum record.
type Entry struct {
	Checksum string
	Path     string
}

// Index is an insertion-ordered checksum to path mapping with a reverse
// path lookup. It is not safe for concurrent use.
type Index struct {
	order  []string          // checksums in insertion order
	paths  map[string]string // checksum -> path
	byPath *radix.Tree       // clean path -> checksum
}

// New returns an empty index.
func New() *Index {
	return &Index{
		paths:  make(map[string]string),
		byPath: radix.New(),
	}
}

// Len returns the number of records.
func (i *Index) Len() int {
	return len(i.order)
}

// Lookup returns the archive path recorded for checksum.
func (i *Index) Lookup(checksum string) (string, bool) {
	p, ok := i.paths[checksum]
	return p, ok
}

// CheckPath reports whether path survives the one-record-per-line format.
func CheckPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", common.ErrPathUnrecordable)
	}
	if strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("%w: %q contains a line break", common.ErrPathUnrecordable, path)
	}
	return nil
}

// Insert records checksum at path. Checksums are unique keys; inserting a
// known checksum is an error and leaves the index unchanged.
func (i *Index) Insert(checksum, path string) error {
	if checksum == "" {
		return fmt.Errorf("invalid index entry %q -> %q", checksum, path)
	}
	if err := CheckPath(path); err != nil {
		return err
	}
	if existing, ok := i.paths[checksum]; ok {
		return fmt.Errorf("checksum %s already recorded at %s", checksum, existing)
	}
	i.order = append(i.order, checksum)
	i.paths[checksum] = path
	i.byPath.Insert(filepath.Clean(path), checksum)
	return nil
}

// ChecksumAt returns the checksum recorded for path.
func (i *Index) ChecksumAt(path string) (string, bool) {
	v, ok := i.byPath.Get(filepath.Clean(path))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Under returns the entries whose path lies below dir, in path order.
func (i *Index) Under(dir string) []Entry {
	prefix := strings.TrimSuffix(filepath.Clean(dir), string(filepath.Separator)) + string(filepath.Separator)
	var out []Entry
	i.byPath.WalkPrefix(prefix, func(p string, v interface{}) bool {
		out = append(out, Entry{Checksum: v.(string), Path: p})
		return false
	})
	return out
}

// Entries returns all records in insertion order.
func (i *Index) Entries() []Entry {
	out := make([]Entry, 0, len(i.order))
	for _, sum := range i.order {
		out = append(out, Entry{Checksum: sum, Path: i.paths[sum]})
	}
	return out
}

// WriteTo writes one "checksum path" line per record in insertion order.
func (i *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, sum := range i.order {
		written, err := fmt.Fprintf(bw, "%s %s\n", sum, i.paths[sum])
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Bytes returns the serialized index.
func (i *Index) Bytes() []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail.
	_, _ = i.WriteTo(&buf)
	return buf.Bytes()
}

// Parse reads an index from r. name labels parse errors.
func Parse(r io.Reader, name string) (*Index, error) {
	idx := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fail := func(reason string) error {
			return &common.IndexParseError{Path: name, Line: lineNo, Text: line, Reason: reason}
		}

		sum, path, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fail("missing separator")
		}
		if path == "" {
			return nil, fail("empty path")
		}
		if len(sum)%2 != 0 || len(sum) == 0 {
			return nil, fail("checksum is not a hex digest")
		}
		if _, err := hex.DecodeString(sum); err != nil {
			return nil, fail("checksum is not a hex digest")
		}
		if _, dup := idx.paths[sum]; dup {
			return nil, fail("duplicate checksum")
		}
		if err := idx.Insert(sum, path); err != nil {
			return nil, fail(err.Error())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", name, err)
	}
	return idx, nil
}
