package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// TempName returns the hidden sibling name used while writing name.
func TempName(name string) string {
	return "." + name + ".tmp-" + uuid.NewString()
}

// WriteFileAtomic replaces dir/name with data. The data goes to a temporary
// file in the same directory which is synced and then renamed over the
// target, so readers see either the old or the new content.
func WriteFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	dst := filepath.Join(dir, name)
	if fi, err := os.Lstat(dst); err == nil && fi.IsDir() {
		return fmt.Errorf("cannot replace directory %s with a file", dst)
	}

	tmpName := filepath.Join(dir, TempName(name))
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", dst, err)
	}
	defer func() {
		_ = tmp.Close()
		// After a successful rename tmpName no longer exists.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := Rename(tmpName, dst); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}

	_ = syncDirBestEffort(dir)
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
