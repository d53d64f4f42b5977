package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(wd, "data"), cfg.Scan.Root)
	assert.True(t, cfg.Scan.Strict)
	assert.False(t, cfg.Scan.IncludeHidden)
	assert.Empty(t, cfg.Scan.Extensions)
	assert.Equal(t, "File size vs f-number", cfg.Chart.Title)
	assert.Equal(t, "127.0.0.1:0", cfg.Server.Addr())
	assert.True(t, cfg.Server.OpenBrowser)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scan:
  root: /srv/photos
  extensions: [JPG, ".jpeg", jpg]
  strict: false
chart:
  title: Lens study
  output: out.html
server:
  port: 8123
  open_browser: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "/srv/photos", cfg.Scan.Root)
	assert.Equal(t, []string{".jpg", ".jpeg"}, cfg.Scan.Extensions)
	assert.False(t, cfg.Scan.Strict)
	assert.Equal(t, "Lens study", cfg.Chart.Title)
	assert.Equal(t, filepath.Join(wd, "out.html"), cfg.Chart.Output)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.False(t, cfg.Server.OpenBrowser)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("empty root", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		viper.Set("scan.root", "  ")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		viper.Set("server.port", 70000)

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".jpg", ".png", ".tif"}, normalizeExtensions([]string{"jpg, .PNG", "", "tif", ".jpg"}))
	assert.Empty(t, normalizeExtensions(nil))
}
