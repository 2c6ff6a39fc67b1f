package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseFillsUnsetFields(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: ":9090"
  renderTimeout: 5s
render:
  quality: 250
assets:
  root: /srv/posters
log:
  development: true
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RenderTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90, cfg.Render.Quality, "out of range quality falls back")
	assert.Equal(t, "png", cfg.Render.Format)
	assert.Equal(t, "/srv/posters", cfg.Assets.Root)
	assert.Equal(t, 2048, cfg.Assets.MaxDimension)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, "gopostr", cfg.ServiceName)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseKeepsZeroQuality(t *testing.T) {
	cfg, err := Parse([]byte("render:\n  quality: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Render.Quality)

	cfg, err = Parse([]byte("render:\n  format: jpeg\n"))
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Render.Quality)

	cfg, err = Parse([]byte("render:\n  quality: -5\n"))
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Render.Quality)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("server:\n  adress: \":1\"\n"))
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gopostr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  dir: /tmp/out\n"), 0o644))
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}
