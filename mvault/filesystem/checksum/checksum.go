// Package checksum computes the content digest that keys the dedup index.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
)

const mib = 1 << 20

// Hasher produces MD5 hex digests of a bounded prefix of a file.
// Files that only differ past the bound hash the same.
type Hasher struct {
	chunkSize int
	maxChunks int // <= 0 hashes the whole file
}

// NewHasher returns a hasher for cfg.
func NewHasher(cfg config.ChecksumConfig) *Hasher {
	h := &Hasher{
		chunkSize: cfg.ChunkSizeMB * mib,
		maxChunks: cfg.MaxChunks,
	}
	if h.chunkSize <= 0 {
		h.chunkSize = 20 * mib
	}
	if cfg.FullFile {
		h.maxChunks = 0
	}
	return h
}

// Limit returns the number of bytes hashed, or -1 for the whole file.
func (h *Hasher) Limit() int64 {
	if h.maxChunks <= 0 {
		return -1
	}
	return int64(h.chunkSize) * int64(h.maxChunks)
}

// Sum returns the hex digest of the file at path.
func (h *Hasher) Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", common.ErrNotRegularFile, path)
	}

	return h.SumReader(f)
}

// SumReader hashes r up to the configured bound.
func (h *Hasher) SumReader(r io.Reader) (string, error) {
	digest := md5.New()
	if limit := h.Limit(); limit >= 0 {
		r = io.LimitReader(r, limit)
	}

	buf := make([]byte, min(h.chunkSize, 4*mib))
	if _, err := io.CopyBuffer(digest, r, buf); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
