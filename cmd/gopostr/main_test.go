package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoPoster/internal/config"
	"github.com/xob0t/GoPoster/pkg/exporter"
)

func TestOutputOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Quality = 70

	opts, err := outputOptions("", "out/poster.JPG", cfg)
	require.NoError(t, err)
	assert.Equal(t, exporter.JPEG, opts.Format)
	require.NotNil(t, opts.Quality)
	assert.Equal(t, 70, *opts.Quality)

	opts, err = outputOptions("tiff", "poster.png", cfg)
	require.NoError(t, err)
	assert.Equal(t, exporter.TIFF, opts.Format)

	opts, err = outputOptions("", "", cfg)
	require.NoError(t, err)
	assert.Equal(t, exporter.PNG, opts.Format)

	_, err = outputOptions("gif", "", cfg)
	assert.ErrorIs(t, err, exporter.ErrExport)
}

func TestLoadDescriptorMergesData(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "event.yaml")
	require.NoError(t, os.WriteFile(base, []byte(
		"event: {name: GopherCon, brandColor: '#00ADD8'}\nuser: {name: Placeholder}\nlayout: classic\n"), 0o644))
	data := filepath.Join(dir, "me.json")
	require.NoError(t, os.WriteFile(data, []byte(
		`{"user": {"name": "Ken", "photoUrl": "ken.png"}}`), 0o644))

	desc, cleanup, err := loadDescriptor(base, data)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "GopherCon", desc.Event.Name)
	assert.Equal(t, "classic", desc.Layout)
	assert.Equal(t, "Ken", desc.User.Name)
	assert.Equal(t, filepath.Join(dir, "ken.png"), desc.User.PhotoURL)
}

func TestLoadDescriptorMissingFile(t *testing.T) {
	_, cleanup, err := loadDescriptor(filepath.Join(t.TempDir(), "nope.json"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load descriptor")
	cleanup()
}
