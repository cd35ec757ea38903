//go:build darwin

package timestamp

import (
	"os"
	"syscall"
	"time"
)

func earliestFileTime(info os.FileInfo) time.Time {
	earliest := info.ModTime()
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return earliest
	}
	for _, ts := range []syscall.Timespec{st.Ctimespec, st.Atimespec} {
		if t := time.Unix(ts.Unix()); t.Before(earliest) {
			earliest = t
		}
	}
	return earliest
}
