package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/mvault/mvault"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()

	// Change to temp directory so no stray config.yaml is picked up
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		_ = os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("", nil)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultDropboxDir, cfg.Archive.DropboxDir)
	assert.Equal(suite.T(), internal.DefaultPhotosDir, cfg.Archive.PhotosDir)
	assert.Equal(suite.T(), internal.DefaultVideosDir, cfg.Archive.VideosDir)
	assert.Equal(suite.T(), []string{"@eaDir"}, cfg.Archive.ExcludeMarkers)
	assert.Equal(suite.T(), ".mvaultignore", cfg.Archive.IgnoreFile)
	assert.Equal(suite.T(), "checksums", cfg.Index.File)
	assert.Equal(suite.T(), ".bkp", cfg.Index.BackupSuffix)
	assert.Equal(suite.T(), 20, cfg.Checksum.ChunkSizeMB)
	assert.Equal(suite.T(), 5, cfg.Checksum.MaxChunks)
	assert.False(suite.T(), cfg.Checksum.FullFile)
	assert.Equal(suite.T(), "IMG", cfg.Naming.PhotoPrefix)
	assert.Equal(suite.T(), 1000, cfg.Naming.MaxAttempts)
	assert.Empty(suite.T(), cfg.Video.FFprobePath)
	assert.Equal(suite.T(), "info", cfg.Log.Level)

	assert.Equal(suite.T(), Default(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
archive:
  dropboxDir: incoming
  excludeMarkers: ["@eaDir", ".thumbnails"]
index:
  file: sums.txt
checksum:
  chunkSizeMB: 8
  fullFile: true
naming:
  photoPrefix: PIC
  maxAttempts: 50
video:
  ffprobePath: /usr/bin/ffprobe
log:
  level: debug
  format: json
`
	configFile := filepath.Join(suite.tempDir, "mvault.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configFile, nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "incoming", cfg.Archive.DropboxDir)
	assert.Equal(suite.T(), internal.DefaultPhotosDir, cfg.Archive.PhotosDir, "unset keys keep defaults")
	assert.Equal(suite.T(), []string{"@eaDir", ".thumbnails"}, cfg.Archive.ExcludeMarkers)
	assert.Equal(suite.T(), "sums.txt", cfg.Index.File)
	assert.Equal(suite.T(), 8, cfg.Checksum.ChunkSizeMB)
	assert.True(suite.T(), cfg.Checksum.FullFile)
	assert.Equal(suite.T(), "PIC", cfg.Naming.PhotoPrefix)
	assert.Equal(suite.T(), 50, cfg.Naming.MaxAttempts)
	assert.Equal(suite.T(), "/usr/bin/ffprobe", cfg.Video.FFprobePath)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
	assert.Equal(suite.T(), "json", cfg.Log.Format)
}

func (suite *ConfigTestSuite) TestLoadConfigFromWorkingDirectory() {
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.tempDir, "config.yaml"), []byte("naming:\n  photoPrefix: CWD\n"), 0o644))

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "CWD", cfg.Naming.PhotoPrefix)
}

func (suite *ConfigTestSuite) TestLoadConfigEnvOverride() {
	suite.T().Setenv("MVAULT_NAMING_PHOTOPREFIX", "ENV")
	suite.T().Setenv("MVAULT_NAMING_MAXATTEMPTS", "7")

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "ENV", cfg.Naming.PhotoPrefix)
	assert.Equal(suite.T(), 7, cfg.Naming.MaxAttempts)
}

func (suite *ConfigTestSuite) TestLoadConfigFlagOverride() {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("log-format", "auto", "")
	require.NoError(suite.T(), flags.Parse([]string{"--log-level=error"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "error", cfg.Log.Level)
	assert.Equal(suite.T(), "auto", cfg.Log.Format)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	// An explicit path that does not exist is an error, not a silent default
	cfg, err := LoadConfig("/nonexistent/path/config.yaml", nil)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("archive:\n  dropboxDir: [unclosed\n"), 0o644))

	cfg, err := LoadConfig(configFile, nil)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsInvalidValues() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("naming:\n  maxAttempts: 0\n"), 0o644))

	_, err := LoadConfig(configFile, nil)
	assert.ErrorContains(suite.T(), err, "naming.maxAttempts")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty dropbox", mutate: func(c *Config) { c.Archive.DropboxDir = " " }, wantErr: "archive.dropboxDir"},
		{name: "nested photos dir", mutate: func(c *Config) { c.Archive.PhotosDir = "a/b" }, wantErr: "archive.photosDir"},
		{name: "refresh file equals index", mutate: func(c *Config) { c.Index.RefreshFile = c.Index.File }, wantErr: "index.refreshFile"},
		{name: "zero chunk size", mutate: func(c *Config) { c.Checksum.ChunkSizeMB = 0 }, wantErr: "checksum.chunkSizeMB"},
		{name: "no attempts", mutate: func(c *Config) { c.Naming.MaxAttempts = 0 }, wantErr: "naming.maxAttempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLayout(t *testing.T) {
	cfg := Default()
	layout := cfg.Layout("/srv/backup/")

	assert.Equal(t, "/srv/backup", layout.Root)
	assert.Equal(t, "/srv/backup/media_dropbox", layout.Dropbox)
	assert.Equal(t, "/srv/backup/photos", layout.Photos)
	assert.Equal(t, "/srv/backup/videos", layout.Videos)
	assert.Equal(t, "/srv/backup/checksums", layout.Index)
}
