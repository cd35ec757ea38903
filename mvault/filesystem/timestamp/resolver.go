package timestamp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/utils"

	"github.com/rs/zerolog"
)

type strategy func(ctx context.Context, path string) (types.Resolution, error)

// Resolver picks one capture timestamp per file using an ordered fallback
// chain that depends on the media kind.
type Resolver struct {
	captureTimes  func(path string) map[string]string
	statFunc      func(path string) (os.FileInfo, error)
	prober        Prober
	photoPatterns []datePattern
	videoPatterns []datePattern
	strategies    map[types.MediaKind]strategy
	log           zerolog.Logger
}

// NewResolver builds a resolver from cfg. The ffprobe probe is only used when
// video.ffprobePath is set.
func NewResolver(cfg *config.Config, log zerolog.Logger) *Resolver {
	var prober Prober
	if cfg.Video.FFprobePath != "" {
		prober = NewFFprobe(cfg.Video.FFprobePath)
	}
	return newResolver(cfg.Naming.PhotoPrefix, prober, log)
}

func newResolver(photoPrefix string, prober Prober, log zerolog.Logger) *Resolver {
	r := &Resolver{
		captureTimes:  utils.CaptureTimes,
		statFunc:      os.Stat,
		prober:        prober,
		photoPatterns: photoPatterns(photoPrefix),
		videoPatterns: videoPatterns(),
		log:           log.With().Str("component", "timestamp").Logger(),
	}
	r.strategies = map[types.MediaKind]strategy{
		types.KindPhoto: r.resolvePhoto,
		types.KindVideo: r.resolveVideo,
	}
	return r
}

// Resolve returns the capture timestamp of path, or an error wrapping
// ErrTimestampUnresolved.
func (r *Resolver) Resolve(ctx context.Context, path string, kind types.MediaKind) (types.Resolution, error) {
	resolve, ok := r.strategies[kind]
	if !ok {
		return types.Resolution{}, fmt.Errorf("%w: %s", common.ErrUnsupportedKind, kind)
	}
	res, err := resolve(ctx, path)
	if err != nil {
		return types.Resolution{}, err
	}
	r.log.Debug().Str("path", path).Str("source", string(res.Source)).Time("timestamp", res.Time).Msg("Resolved capture time")
	return res, nil
}

// resolvePhoto: EXIF fields, then the file name, then the earliest
// filesystem time.
func (r *Resolver) resolvePhoto(_ context.Context, path string) (types.Resolution, error) {
	if fields := r.captureTimes(path); fields != nil {
		for _, field := range utils.CaptureTimeFields {
			raw, ok := fields[string(field)]
			if !ok {
				continue
			}
			t, err := ParseTimestamp(raw)
			if err != nil {
				r.log.Debug().Err(err).Str("path", path).Str("field", string(field)).Msg("Ignoring unparseable EXIF time")
				continue
			}
			return types.Resolution{Time: t, Source: types.ExifSource(string(field))}, nil
		}
	}

	if t, desc, ok := matchFirst(r.photoPatterns, filepath.Base(path)); ok {
		r.log.Debug().Str("path", path).Str("pattern", desc).Msg("Capture time taken from file name")
		return types.Resolution{Time: t, Source: types.SourceFilename}, nil
	}

	info, err := r.statFunc(path)
	if err != nil {
		return types.Resolution{}, fmt.Errorf("%w: %s: %v", common.ErrTimestampUnresolved, path, err)
	}
	return types.Resolution{Time: earliestFileTime(info), Source: types.SourceFilesystem}, nil
}

// resolveVideo: optional container probe, then the file name. Filesystem
// times are not trusted for video.
func (r *Resolver) resolveVideo(ctx context.Context, path string) (types.Resolution, error) {
	if r.prober != nil {
		t, err := r.prober.CreationTime(ctx, path)
		if err == nil {
			return types.Resolution{Time: t, Source: types.SourceFFprobe}, nil
		}
		r.log.Debug().Err(err).Str("path", path).Msg("Container probe failed, trying file name")
	}

	if t, _, ok := matchFirst(r.videoPatterns, filepath.Base(path)); ok {
		return types.Resolution{Time: t, Source: types.SourceFilename}, nil
	}

	return types.Resolution{}, fmt.Errorf("%w: no date in video file name %q", common.ErrTimestampUnresolved, filepath.Base(path))
}
