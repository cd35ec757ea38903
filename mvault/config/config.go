package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/mvault/mvault"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/types"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Index    IndexConfig    `mapstructure:"index"`
	Checksum ChecksumConfig `mapstructure:"checksum"`
	Naming   NamingConfig   `mapstructure:"naming"`
	Video    VideoConfig    `mapstructure:"video"`
	Log      LogConfig      `mapstructure:"log"`
}

// ArchiveConfig names the directories under the archive root.
type ArchiveConfig struct {
	DropboxDir     string   `mapstructure:"dropboxDir"`
	PhotosDir      string   `mapstructure:"photosDir"`
	VideosDir      string   `mapstructure:"videosDir"`
	ExcludeMarkers []string `mapstructure:"excludeMarkers"`
	IgnoreFile     string   `mapstructure:"ignoreFile"`
}

// IndexConfig stores the checksum index file names.
type IndexConfig struct {
	File         string `mapstructure:"file"`
	BackupSuffix string `mapstructure:"backupSuffix"`
	RefreshFile  string `mapstructure:"refreshFile"`
}

// ChecksumConfig bounds how much of each file is hashed.
// MaxChunks <= 0 or FullFile hashes the whole file.
type ChecksumConfig struct {
	ChunkSizeMB int  `mapstructure:"chunkSizeMB"`
	MaxChunks   int  `mapstructure:"maxChunks"`
	FullFile    bool `mapstructure:"fullFile"`
}

// NamingConfig stores archive file naming rules.
type NamingConfig struct {
	PhotoPrefix string `mapstructure:"photoPrefix"`
	MaxAttempts int    `mapstructure:"maxAttempts"`
}

// VideoConfig enables the optional ffprobe creation_time probe.
type VideoConfig struct {
	FFprobePath string `mapstructure:"ffprobePath"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
}

// LoadConfig reads configuration from file or environment variables.
// Flags that are present in flags override both.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(internal.DefaultAppName))
	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // naming.photoPrefix becomes MVAULT_NAMING_PHOTOPREFIX

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.dropboxDir", internal.DefaultDropboxDir)
	v.SetDefault("archive.photosDir", internal.DefaultPhotosDir)
	v.SetDefault("archive.videosDir", internal.DefaultVideosDir)
	v.SetDefault("archive.excludeMarkers", internal.DefaultExcludeMarkers)
	v.SetDefault("archive.ignoreFile", internal.DefaultIgnoreFile)

	v.SetDefault("index.file", internal.DefaultIndexFile)
	v.SetDefault("index.backupSuffix", internal.DefaultBackupSuffix)
	v.SetDefault("index.refreshFile", internal.DefaultRefreshFile)

	v.SetDefault("checksum.chunkSizeMB", 20)
	v.SetDefault("checksum.maxChunks", 5)
	v.SetDefault("checksum.fullFile", false)

	v.SetDefault("naming.photoPrefix", "IMG")
	v.SetDefault("naming.maxAttempts", 1000)

	v.SetDefault("video.ffprobePath", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", internal.LogFormatAuto)
}

// Validate checks values that would make a run misbehave.
func (c *Config) Validate() error {
	for key, name := range map[string]string{
		"archive.dropboxDir": c.Archive.DropboxDir,
		"archive.photosDir":  c.Archive.PhotosDir,
		"archive.videosDir":  c.Archive.VideosDir,
		"index.file":         c.Index.File,
		"index.refreshFile":  c.Index.RefreshFile,
		"naming.photoPrefix": c.Naming.PhotoPrefix,
	} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s cannot be empty", key)
		}
		if strings.ContainsRune(name, filepath.Separator) {
			return fmt.Errorf("%s must be a single path element, got %q", key, name)
		}
	}
	if c.Index.RefreshFile == c.Index.File {
		return fmt.Errorf("index.refreshFile must differ from index.file")
	}
	if c.Checksum.ChunkSizeMB <= 0 {
		return fmt.Errorf("checksum.chunkSizeMB must be positive, got %d", c.Checksum.ChunkSizeMB)
	}
	if c.Naming.MaxAttempts < 1 {
		return fmt.Errorf("naming.maxAttempts must be at least 1, got %d", c.Naming.MaxAttempts)
	}
	return nil
}

// Layout resolves the archive directories for root.
func (c *Config) Layout(root string) types.Layout {
	root = filepath.Clean(root)
	return types.Layout{
		Root:    root,
		Dropbox: filepath.Join(root, c.Archive.DropboxDir),
		Photos:  filepath.Join(root, c.Archive.PhotosDir),
		Videos:  filepath.Join(root, c.Archive.VideosDir),
		Index:   filepath.Join(root, c.Index.File),
	}
}
