package timestamp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Prober reads the creation time embedded in a video container.
type Prober interface {
	CreationTime(ctx context.Context, path string) (time.Time, error)
}

// FFprobe asks an ffprobe binary for the creation_time stream or format tag.
type FFprobe struct {
	binary string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewFFprobe returns a prober running the ffprobe binary at path.
func NewFFprobe(binary string) *FFprobe {
	return &FFprobe{binary: binary, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// CreationTime returns the first creation_time tag ffprobe reports for path.
func (p *FFprobe) CreationTime(ctx context.Context, path string) (time.Time, error) {
	out, err := p.run(ctx, p.binary,
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "stream_tags=creation_time:format_tags=creation_time",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return time.Time{}, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return parseCreationTime(line)
	}
	return time.Time{}, fmt.Errorf("ffprobe reported no creation_time for %s", path)
}

// parseCreationTime accepts RFC 3339 values (converted to local time) and
// falls back to the zone-less layouts on the first 19 characters.
func parseCreationTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Local(), nil
	}
	if len(s) > 19 {
		s = s[:19]
	}
	return ParseTimestamp(s)
}
