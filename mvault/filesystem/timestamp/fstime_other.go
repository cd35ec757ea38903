//go:build !linux && !darwin

package timestamp

import (
	"os"
	"time"
)

// Only the modification time is portable.
func earliestFileTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
