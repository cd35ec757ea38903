package timestamp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func local(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.Local)
}

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("not really media"), 0o644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

type fakeProber struct {
	t     time.Time
	err   error
	calls int
}

func (f *fakeProber) CreationTime(context.Context, string) (time.Time, error) {
	f.calls++
	return f.t, f.err
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2019:07:04 18:30:00", local(2019, 7, 4, 18, 30, 0)},
		{"20190704-183000", local(2019, 7, 4, 18, 30, 0)},
		{"2019-07-04T18:30:00", local(2019, 7, 4, 18, 30, 0)},
		{"2019:07:04", local(2019, 7, 4, 0, 0, 0)},
		{" 2019:07:04 18:30:00 ", local(2019, 7, 4, 18, 30, 0)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
	}

	for _, bad := range []string{"", "yesterday", "2019/07/04 18:30:00", "0000:00:00 00:00:00"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, common.ErrTimestampParse, bad)
	}
}

func TestCaptureTimesFromJPEG(t *testing.T) {
	dir := t.TempDir()
	p := writeJPEG(t, dir, "a.JPG",
		[]exifTag{{tagDateTime, "2020:01:01 00:00:03"}},
		[]exifTag{{tagDateTimeOriginal, "2020:01:01 00:00:01"}, {tagDateTimeDigitized, "2020:01:01 00:00:02"}},
	)

	fields := utils.CaptureTimes(p)
	require.NotNil(t, fields)
	assert.Equal(t, "2020:01:01 00:00:01", fields["DateTimeOriginal"])
	assert.Equal(t, "2020:01:01 00:00:02", fields["DateTimeDigitized"])
	assert.Equal(t, "2020:01:01 00:00:03", fields["DateTime"])


	plain := touch(t, dir, "plain.JPG", time.Now())
	assert.Nil(t, utils.CaptureTimes(plain))
}

func TestResolvePhotoFieldPriority(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(config.Default(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name    string
		ifd0    []exifTag
		exifIFD []exifTag
		want    time.Time
		source  types.TimestampSource
	}{
		{
			name:    "original wins",
			ifd0:    []exifTag{{tagDateTime, "2020:01:01 00:00:03"}},
			exifIFD: []exifTag{{tagDateTimeOriginal, "2020:01:01 00:00:01"}, {tagDateTimeDigitized, "2020:01:01 00:00:02"}},
			want:    local(2020, 1, 1, 0, 0, 1),
			source:  types.ExifSource("DateTimeOriginal"),
		},
		{
			name:    "digitized next",
			ifd0:    []exifTag{{tagDateTime, "2020:01:01 00:00:03"}},
			exifIFD: []exifTag{{tagDateTimeDigitized, "2020:01:01 00:00:02"}},
			want:    local(2020, 1, 1, 0, 0, 2),
			source:  types.ExifSource("DateTimeDigitized"),
		},
		{
			name:   "generic date last",
			ifd0:   []exifTag{{tagDateTime, "2020:01:01 00:00:03"}},
			want:   local(2020, 1, 1, 0, 0, 3),
			source: types.ExifSource("DateTime"),
		},
		{
			name:    "unparseable original is skipped",
			exifIFD: []exifTag{{tagDateTimeOriginal, "garbage"}, {tagDateTimeDigitized, "2020:01:01 00:00:02"}},
			want:    local(2020, 1, 1, 0, 0, 2),
			source:  types.ExifSource("DateTimeDigitized"),
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeJPEG(t, dir, filepath.Base(t.Name())+string(rune('a'+i))+".JPG", tt.ifd0, tt.exifIFD)
			res, err := r.Resolve(ctx, p, types.KindPhoto)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(res.Time), "got %v", res.Time)
			assert.Equal(t, tt.source, res.Source)
		})
	}
}

func TestResolvePhotoFallbackOrder(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(config.Default(), zerolog.Nop())
	ctx := context.Background()
	old := local(2001, 3, 15, 12, 0, 0)

	// No EXIF, archive-style name: the name wins over filesystem times.
	p := touch(t, dir, "IMG_20190704-183000.JPG", old)
	res, err := r.Resolve(ctx, p, types.KindPhoto)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFilename, res.Source)
	assert.True(t, local(2019, 7, 4, 18, 30, 0).Equal(res.Time))

	// Generic phone camera name.
	p = touch(t, dir, "PXL_20210102_030405123.jpg", old)
	res, err = r.Resolve(ctx, p, types.KindPhoto)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFilename, res.Source)
	assert.True(t, local(2021, 1, 2, 3, 4, 5).Equal(res.Time))

	// Nothing in the name: earliest filesystem time.
	p = touch(t, dir, "holiday.JPG", old)
	res, err = r.Resolve(ctx, p, types.KindPhoto)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFilesystem, res.Source)
	assert.True(t, old.Equal(res.Time), "got %v", res.Time)
}

func TestResolvePhotoStatFailure(t *testing.T) {
	r := NewResolver(config.Default(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), filepath.Join(t.TempDir(), "gone.JPG"), types.KindPhoto)
	assert.ErrorIs(t, err, common.ErrTimestampUnresolved)
}

func TestResolveVideo(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(config.Default(), zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name string
		want time.Time
	}{
		{"VID_20190704-183000.MP4", local(2019, 7, 4, 18, 30, 0)},
		{"20190704_183000.MOV", local(2019, 7, 4, 18, 30, 0)},
		{"party 2019-07-04.MTS", local(2019, 7, 4, 0, 0, 0)},
		{"DJI_20250619224111_0001_D.MP4", local(2025, 6, 19, 0, 0, 0)},
		// The first digit run is not a date; a later one is.
		{"12345678_20200101.MOV", local(2020, 1, 1, 0, 0, 0)},
	}
	for _, tt := range tests {
		p := touch(t, dir, tt.name, now)
		res, err := r.Resolve(ctx, p, types.KindVideo)
		require.NoError(t, err, tt.name)
		assert.Equal(t, types.SourceFilename, res.Source)
		assert.True(t, tt.want.Equal(res.Time), "%s: got %v", tt.name, res.Time)
	}

	// No filesystem fallback for video.
	p := touch(t, dir, "clip.MOV", local(2001, 3, 15, 12, 0, 0))
	_, err := r.Resolve(ctx, p, types.KindVideo)
	assert.ErrorIs(t, err, common.ErrTimestampUnresolved)
}

func TestResolveVideoProber(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	p := touch(t, dir, "VID_20190704-183000.MP4", time.Now())

	probed := &fakeProber{t: local(2018, 5, 6, 7, 8, 9)}
	r := newResolver("IMG", probed, zerolog.Nop())
	res, err := r.Resolve(ctx, p, types.KindVideo)
	require.NoError(t, err)
	assert.Equal(t, types.SourceFFprobe, res.Source)
	assert.True(t, local(2018, 5, 6, 7, 8, 9).Equal(res.Time))

	failing := &fakeProber{err: errors.New("no tag")}
	r = newResolver("IMG", failing, zerolog.Nop())
	res, err = r.Resolve(ctx, p, types.KindVideo)
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, types.SourceFilename, res.Source)
}

func TestResolveUnknownKind(t *testing.T) {
	r := NewResolver(config.Default(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), "/x/a.txt", types.KindUnknown)
	assert.ErrorIs(t, err, common.ErrUnsupportedKind)
}

func TestFFprobeCreationTime(t *testing.T) {
	var gotName string
	var gotArgs []string
	p := &FFprobe{binary: "/opt/ffprobe", run: func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("\n2021-03-04T10:11:12.000000Z\n"), nil
	}}

	ts, err := p.CreationTime(context.Background(), "/in/clip.MOV")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffprobe", gotName)
	assert.Equal(t, "/in/clip.MOV", gotArgs[len(gotArgs)-1])
	assert.True(t, time.Date(2021, 3, 4, 10, 11, 12, 0, time.UTC).Equal(ts))

	p.run = func(context.Context, string, ...string) ([]byte, error) { return []byte("2021-03-04 10:11:12\n"), nil }
	_, err = p.CreationTime(context.Background(), "/in/clip.MOV")
	assert.ErrorIs(t, err, common.ErrTimestampParse)

	p.run = func(context.Context, string, ...string) ([]byte, error) { return nil, nil }
	_, err = p.CreationTime(context.Background(), "/in/clip.MOV")
	assert.Error(t, err)
}
