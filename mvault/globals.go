package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var (
	// DefaultConfigPath is the default path to the config file
	DefaultAppName    = "mvault"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)

	// Default archive layout, relative to the archive root
	DefaultDropboxDir = "media_dropbox"
	DefaultPhotosDir  = "photos"
	DefaultVideosDir  = "videos"

	// Default index settings
	DefaultIndexFile    = "checksums"
	DefaultBackupSuffix = ".bkp"
	DefaultRefreshFile  = "checksums.refresh"

	// Synology thumbnail folders
	DefaultExcludeMarkers = []string{"@eaDir"}
	DefaultIgnoreFile     = "." + DefaultAppName + "ignore"
)

// Log output formats accepted by NewLogger
const (
	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// NewLogger builds a logger for w at the given level. The "auto" format
// writes human readable output when w is a terminal and JSON otherwise.
func NewLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	switch strings.ToLower(format) {
	case LogFormatConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	case LogFormatJSON:
	case LogFormatAuto, "":
		if isTerminal(w) {
			out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
		}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
