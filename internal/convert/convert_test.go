package convert

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/manifest"
	"github.com/bekharsky/el-cabanyal-tiles/internal/photo/phototest"
	"github.com/bekharsky/el-cabanyal-tiles/internal/render"
)

func testOptions(root string) Options {
	return Options{
		InputDir:     filepath.Join(root, "tiles"),
		ThumbnailDir: filepath.Join(root, "tiles_small"),
		MarkerDir:    filepath.Join(root, "tiles_markers"),
		Manifest:     filepath.Join(root, "tiles.json"),
		Workers:      2,
		Thumbnail:    render.ThumbnailOptions{Width: 32, Rotate: 90, Quality: 80},
		Marker:       render.MarkerOptions{Width: 20, Height: 32},
	}
}

// geotaggedButBroken has a readable EXIF segment and no image data after it.
func geotaggedButBroken(t *testing.T, path string) {
	t.Helper()
	exifBlock := phototest.EXIF(39.5, -0.3, 1)
	data := phototest.JPEG(16, 16, exifBlock)
	header := 2 + 2 + 2 + 6 + len(exifBlock)
	require.NoError(t, os.WriteFile(path, data[:header+4], 0o644))
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	opts := testOptions(root)
	phototest.WriteGeotagged(t, opts.InputDir, "b.jpg", 39.47, -0.33)
	phototest.WriteGeotagged(t, opts.InputDir, "a.jpg", 39.46, -0.32)
	phototest.WriteUntagged(t, opts.InputDir, "c.jpg")
	geotaggedButBroken(t, filepath.Join(opts.InputDir, "d.jpg"))

	var progressOut bytes.Buffer
	opts.Progress = &progressOut

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, progressOut.String(), "Converting")

	require.Len(t, res.Entries, 2)
	assert.Equal(t, manifest.Entry{
		Name:      "a.jpg",
		Thumbnail: "tiles_small/a.jpg",
		Marker:    "tiles_markers/a.jpg.png",
		Lat:       res.Entries[0].Lat,
		Lng:       res.Entries[0].Lng,
	}, res.Entries[0])
	assert.InDelta(t, 39.46, res.Entries[0].Lat, 1e-6)
	assert.Equal(t, "b.jpg", res.Entries[1].Name)

	written, err := manifest.Read(opts.Manifest)
	require.NoError(t, err)
	assert.Equal(t, res.Entries, written)

	// 64x48 source -> 32x24 -> rotated to 24x32
	thumb, err := imaging.Open(manifest.Resolve(opts.Manifest, written[0].Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 24, 32), thumb.Bounds())

	marker, err := imaging.Open(manifest.Resolve(opts.Manifest, written[0].Marker))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 32), marker.Bounds())
}

func TestRun_RecursiveKeepsSubdirectories(t *testing.T) {
	root := t.TempDir()
	opts := testOptions(root)
	opts.Recursive = true
	phototest.WriteGeotagged(t, opts.InputDir, "2024/x.jpeg", 1, 2)

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "2024/x.jpeg", res.Entries[0].Name)
	assert.Equal(t, "tiles_small/2024/x.jpeg", res.Entries[0].Thumbnail)
	assert.Equal(t, "tiles_markers/2024/x.jpeg.png", res.Entries[0].Marker)
	assert.FileExists(t, filepath.Join(opts.MarkerDir, "2024", "x.jpeg.png"))
}

func TestRun_SameStemDifferentExtension(t *testing.T) {
	root := t.TempDir()
	opts := testOptions(root)
	phototest.WriteGeotagged(t, opts.InputDir, "street.jpg", 39.46, -0.32)
	phototest.WriteGeotagged(t, opts.InputDir, "street.jpeg", 39.47, -0.33)

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "street.jpeg", res.Entries[0].Name)
	assert.Equal(t, "street.jpg", res.Entries[1].Name)
	assert.NotEqual(t, res.Entries[0].Marker, res.Entries[1].Marker)
	assert.NotEqual(t, res.Entries[0].Thumbnail, res.Entries[1].Thumbnail)
	for _, e := range res.Entries {
		assert.FileExists(t, manifest.Resolve(opts.Manifest, e.Marker))
	}
}

func TestRun_EmptyInputWritesEmptyManifest(t *testing.T) {
	root := t.TempDir()
	opts := testOptions(root)
	require.NoError(t, os.MkdirAll(opts.InputDir, 0o755))

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)

	data, err := os.ReadFile(opts.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.DirExists(t, opts.ThumbnailDir)
	assert.DirExists(t, opts.MarkerDir)
}

func TestRun_MissingInput(t *testing.T) {
	opts := testOptions(t.TempDir())
	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.NoFileExists(t, opts.Manifest)
}

func TestRun_Cancelled(t *testing.T) {
	root := t.TempDir()
	opts := testOptions(root)
	phototest.WriteGeotagged(t, opts.InputDir, "a.jpg", 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, opts.Manifest)
}

func TestOptionsFromConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "tiles", opts.InputDir)
	assert.Equal(t, "tiles_small", opts.ThumbnailDir)
	assert.Equal(t, "tiles_markers", opts.MarkerDir)
	assert.Equal(t, "tiles.json", opts.Manifest)
	assert.Equal(t, render.ThumbnailOptions{Width: 800, Rotate: 90, Quality: 85}, opts.Thumbnail)
	assert.Equal(t, render.MarkerOptions{Width: 80, Height: 128}, opts.Marker)
}

func TestManifestPath(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "small/a.jpg", manifestPath(filepath.Join(root, "tiles.json"), filepath.Join(root, "small", "a.jpg")))
	assert.Equal(t, "../small/a.jpg", manifestPath(filepath.Join(root, "out", "tiles.json"), filepath.Join(root, "small", "a.jpg")))
}
