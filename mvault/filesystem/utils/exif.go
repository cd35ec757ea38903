package utils

import (
	"os"
	"strings"

	exiflib "github.com/rwcarlsen/goexif/exif"
)

// CaptureTimeFields are the EXIF tags that carry a capture time, most
// authoritative first.
var CaptureTimeFields = []exiflib.FieldName{
	exiflib.DateTimeOriginal,
	exiflib.DateTimeDigitized,
	exiflib.DateTime,
}

// CaptureTimes returns the raw values of the CaptureTimeFields present in the
// file at path, keyed by field name. Unreadable or EXIF-less files yield nil.
func CaptureTimes(path string) map[string]string {
	x := decode(path)
	if x == nil {
		return nil
	}
	out := make(map[string]string, len(CaptureTimeFields))
	for _, field := range CaptureTimeFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		val, err := tag.StringVal()
		if err != nil {
			continue
		}
		// ASCII values are NUL padded by some cameras.
		val = strings.TrimSpace(strings.TrimRight(val, "\x00"))
		if val != "" {
			out[string(field)] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func decode(path string) *exiflib.Exif {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exiflib.Decode(f)
	if err != nil && (x == nil || exiflib.IsCriticalError(err)) {
		return nil
	}
	return x
}
