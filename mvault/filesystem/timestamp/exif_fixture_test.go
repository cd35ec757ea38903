package timestamp

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// exifTag is an ASCII EXIF tag written into a test JPEG.
type exifTag struct {
	id    uint16
	value string // "YYYY:MM:DD HH:MM:SS"
}

const (
	tagDateTime          = 0x0132
	tagExifIFDPointer    = 0x8769
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
)

// buildJPEG returns a minimal JPEG whose APP1 segment carries a
// little-endian TIFF structure with the given IFD0 and Exif sub-IFD tags.
func buildJPEG(ifd0 []exifTag, exifIFD []exifTag) []byte {
	le := binary.LittleEndian
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	n0 := len(ifd0) + 1 // plus the Exif IFD pointer
	ifd0Off := 8
	exifOff := ifd0Off + ifdSize(n0)
	dataOff := exifOff + ifdSize(len(exifIFD))

	var data bytes.Buffer
	entry := func(buf *bytes.Buffer, t exifTag) {
		val := append([]byte(t.value), 0)
		_ = binary.Write(buf, le, t.id)
		_ = binary.Write(buf, le, uint16(2)) // ASCII
		_ = binary.Write(buf, le, uint32(len(val)))
		_ = binary.Write(buf, le, uint32(dataOff+data.Len()))
		data.Write(val)
	}

	var tiff bytes.Buffer
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(ifd0Off))

	_ = binary.Write(&tiff, le, uint16(n0))
	for _, t := range ifd0 {
		entry(&tiff, t)
	}
	_ = binary.Write(&tiff, le, uint16(tagExifIFDPointer))
	_ = binary.Write(&tiff, le, uint16(4)) // LONG
	_ = binary.Write(&tiff, le, uint32(1))
	_ = binary.Write(&tiff, le, uint32(exifOff))
	_ = binary.Write(&tiff, le, uint32(0)) // no next IFD

	_ = binary.Write(&tiff, le, uint16(len(exifIFD)))
	for _, t := range exifIFD {
		entry(&tiff, t)
	}
	_ = binary.Write(&tiff, le, uint32(0))

	tiff.Write(data.Bytes())

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var jpg bytes.Buffer
	jpg.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&jpg, binary.BigEndian, uint16(len(payload)+2))
	jpg.Write(payload)
	jpg.Write([]byte{0xFF, 0xD9})
	return jpg.Bytes()
}

func writeJPEG(t *testing.T, dir, name string, ifd0, exifIFD []exifTag) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buildJPEG(ifd0, exifIFD), 0o644))
	return p
}
