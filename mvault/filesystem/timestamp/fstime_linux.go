//go:build linux

package timestamp

import (
	"os"
	"syscall"
	"time"
)

// earliestFileTime returns the earliest of the status-change, access and
// modification times of info.
func earliestFileTime(info os.FileInfo) time.Time {
	earliest := info.ModTime()
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return earliest
	}
	for _, ts := range []syscall.Timespec{st.Ctim, st.Atim} {
		if t := time.Unix(ts.Unix()); t.Before(earliest) {
			earliest = t
		}
	}
	return earliest
}
