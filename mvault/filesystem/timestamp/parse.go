// Package timestamp resolves the capture time of a media file.
package timestamp

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
)

// Layouts accepted by ParseTimestamp, in order.
var Layouts = []string{
	"2006:01:02 15:04:05", // EXIF
	"20060102-150405",     // archive file names
	"2006-01-02T15:04:05", // ISO 8601 without zone
	"2006:01:02",          // EXIF date only
}

// ParseTimestamp parses s with the first matching layout as local wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range Layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrTimestampParse, s)
}

// datePattern extracts a timestamp from a file name.
type datePattern struct {
	regex  *regexp.Regexp
	layout string
	desc   string
}

// match returns the first occurrence in name that parses as a date.
func (p datePattern) match(name string) (time.Time, bool) {
	for _, m := range p.regex.FindAllStringSubmatch(name, -1) {
		if len(m) < 2 {
			continue
		}
		if t, err := time.ParseInLocation(p.layout, m[1], time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// photoPatterns are tried in order; first match wins.
func photoPatterns(prefix string) []datePattern {
	return []datePattern{
		// Archive naming: IMG_20250619-123456.JPG
		{regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_(\d{8}-\d{6})`), "20060102-150405", "archive photo name"},

		// Generic phone camera: IMG_20250619_123456.jpg, PXL_20250619_123456789.jpg
		{regexp.MustCompile(`(\d{8}_\d{6})`), "20060102_150405", "generic timestamp"},
	}
}

// videoPatterns are tried in order; first match wins.
func videoPatterns() []datePattern {
	return []datePattern{
		{regexp.MustCompile(`(\d{8}-\d{6})`), "20060102-150405", "dashed timestamp"},
		{regexp.MustCompile(`(\d{8}_\d{6})`), "20060102_150405", "generic timestamp"},
		{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02", "ISO date"},

		// Last resort, less specific
		{regexp.MustCompile(`(\d{8})`), "20060102", "compact date"},
	}
}

func matchFirst(patterns []datePattern, name string) (time.Time, string, bool) {
	for _, p := range patterns {
		if t, ok := p.match(name); ok {
			return t, p.desc, true
		}
	}
	return time.Time{}, "", false
}
