package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekharsky/el-cabanyal-tiles/internal/cec"
	"github.com/bekharsky/el-cabanyal-tiles/internal/config"
	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/manifest"
	"github.com/bekharsky/el-cabanyal-tiles/internal/photo/phototest"
)

type workspace struct {
	dir      string
	config   string
	manifest string
}

// newWorkspace writes a config pointing every path into a temp dir and a
// manifest holding entries.
func newWorkspace(t *testing.T, entries []manifest.Entry) workspace {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	ws := workspace{
		dir:      dir,
		config:   filepath.Join(dir, "config.json"),
		manifest: filepath.Join(dir, "out", "tiles.json"),
	}
	cfg := map[string]any{
		"inputDir":     filepath.Join(dir, "photos"),
		"thumbnailDir": filepath.Join(dir, "out", "small"),
		"markerDir":    filepath.Join(dir, "out", "markers"),
		"manifest":     ws.manifest,
		"workers":      2,
		"tiles": map[string]any{
			"cache":   filepath.Join(dir, "cache", "tiles.mbtiles"),
			"offline": true,
		},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ws.config, data, 0o644))

	if entries != nil {
		require.NoError(t, manifest.Write(ws.manifest, entries))
	}
	return ws
}

func execute(t *testing.T, view ViewFunc, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd(view)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// lineEntries puts n photos on a diagonal, i degrees north and east of the
// origin.
func lineEntries(n int) []manifest.Entry {
	entries := make([]manifest.Entry, n)
	for i := range entries {
		name := fmt.Sprintf("p%d.jpg", i)
		entries[i] = manifest.Entry{
			Name:      name,
			Thumbnail: "small/" + name,
			Marker:    fmt.Sprintf("markers/p%d.png", i),
			Lat:       float64(i),
			Lng:       float64(i),
		}
	}
	return entries
}

func TestBoundsCommand(t *testing.T) {
	ws := newWorkspace(t, lineEntries(10))

	out, err := execute(t, nil, "--config", ws.config, "bounds")
	require.NoError(t, err)
	var got boundsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 10, got.Points)
	assert.Equal(t, geo.TrimMajority, got.Trim)
	assert.Equal(t, geo.BoundingBox{MinLat: 1, MaxLat: 8, MinLng: 1, MaxLng: 8}, got.Bounds)

	out, err = execute(t, nil, "--config", ws.config, "bounds", "--preset", "all")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, geo.BoundingBox{MinLat: 0, MaxLat: 9, MinLng: 0, MaxLng: 9}, got.Bounds)

	out, err = execute(t, nil, "--config", ws.config, "bounds", "--preset", "all", "--upper", "0.6")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, geo.Trim{Lower: 0, Upper: 0.6}, got.Trim)
	assert.Equal(t, 5.0, got.Bounds.MaxLat)

	_, err = execute(t, nil, "--config", ws.config, "bounds", "--lower", "0.7")
	assert.ErrorIs(t, err, geo.ErrInvalidTrim)
}

func TestBoundsCommand_EmptyManifest(t *testing.T) {
	ws := newWorkspace(t, []manifest.Entry{})

	_, err := execute(t, nil, "--config", ws.config, "bounds")
	assert.ErrorIs(t, err, errNoPoints)
}

func TestNearestCommand(t *testing.T) {
	ws := newWorkspace(t, []manifest.Entry{
		{Name: "centre.jpg", Thumbnail: "small/centre.jpg", Marker: "markers/centre.png", Lat: 39.47, Lng: -0.33},
		{Name: "beach.jpg", Thumbnail: "small/beach.jpg", Marker: "markers/beach.png", Lat: 39.471, Lng: -0.32},
		{Name: "market.jpg", Thumbnail: "small/market.jpg", Marker: "markers/market.png", Lat: 39.475, Lng: -0.331},
	})

	out, err := execute(t, nil, "--config", ws.config, "nearest", "centre.jpg", "right")
	require.NoError(t, err)
	var got nearestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Moved)
	assert.Equal(t, "right", got.Direction)
	assert.Equal(t, "beach.jpg", got.To.Name)

	out, err = execute(t, nil, "--config", ws.config, "nearest", "centre.jpg", "ArrowUp")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "market.jpg", got.To.Name)

	// nothing further south: the selection stays put
	out, err = execute(t, nil, "--config", ws.config, "nearest", "centre.jpg", "down")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Moved)
	assert.Equal(t, "centre.jpg", got.To.Name)

	_, err = execute(t, nil, "--config", ws.config, "nearest", "missing.jpg", "up")
	assert.ErrorContains(t, err, "missing.jpg")

	_, err = execute(t, nil, "--config", ws.config, "nearest", "centre.jpg", "sideways")
	assert.ErrorContains(t, err, "unknown direction")

	_, err = execute(t, nil, "--config", ws.config, "nearest", "centre.jpg")
	assert.Error(t, err)
}

func TestViewCommand(t *testing.T) {
	ws := newWorkspace(t, lineEntries(2))

	_, err := execute(t, nil, "--config", ws.config, "view")
	assert.ErrorIs(t, err, errNoDisplay)

	var (
		gotCfg    config.Config
		gotPoints []geo.Point
	)
	view := func(ctx context.Context, cfg config.Config, points []geo.Point) error {
		gotCfg, gotPoints = cfg, points
		return nil
	}
	_, err = execute(t, view, "--config", ws.config, "--log-level", "debug", "view", "--fullscreen")
	require.NoError(t, err)

	assert.True(t, gotCfg.View.Fullscreen)
	assert.Equal(t, "debug", gotCfg.LogLevel)
	require.Len(t, gotPoints, 2)
	outDir := filepath.Dir(ws.manifest)
	assert.Equal(t, geo.Point{
		ID:        "p1.jpg",
		Lat:       1,
		Lng:       1,
		Thumbnail: filepath.Join(outDir, "small", "p1.jpg"),
		Marker:    filepath.Join(outDir, "markers", "p1.png"),
	}, gotPoints[1])
}

func TestViewCommand_MissingManifest(t *testing.T) {
	ws := newWorkspace(t, nil)
	called := false
	view := func(context.Context, config.Config, []geo.Point) error {
		called = true
		return nil
	}

	_, err := execute(t, view, "--config", ws.config, "view")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, called)
}

func TestConvertCommand(t *testing.T) {
	ws := newWorkspace(t, nil)
	input := filepath.Join(ws.dir, "photos")
	require.NoError(t, os.MkdirAll(input, 0o755))
	phototest.WriteGeotagged(t, input, "a.jpg", 39.47, -0.33)
	phototest.WriteGeotagged(t, input, "b.jpg", 39.48, -0.32)
	phototest.WriteUntagged(t, input, "c.jpg")

	other := filepath.Join(ws.dir, "elsewhere.json")
	out, err := execute(t, nil, "--config", ws.config, "convert", "--quiet", "--manifest", other)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 entries")
	assert.Contains(t, out, "1 skipped")

	entries, err := manifest.Read(other)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.jpg", entries[0].Name)
	assert.FileExists(t, manifest.Resolve(other, entries[0].Thumbnail))
	assert.FileExists(t, manifest.Resolve(other, entries[0].Marker))

	assert.NoFileExists(t, ws.manifest)
	// HOME is the workspace, so the metadata cache lands there
	assert.FileExists(t, filepath.Join(ws.dir, config.DefaultConfigDir, "photo_metadata_cache.json"))

	_, err = execute(t, nil, "--config", ws.config, "convert", "--workers", "0")
	assert.ErrorContains(t, err, "--workers")
}

func TestTilesCommands(t *testing.T) {
	ws := newWorkspace(t, lineEntries(3))

	out, err := execute(t, nil, "--config", ws.config, "tiles", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "tiles:  0")

	// the workspace config is offline
	_, err = execute(t, nil, "--config", ws.config, "tiles", "prefetch")
	assert.ErrorContains(t, err, "offline")
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	_, err := execute(t, nil, "--config", filepath.Join(dir, "absent.json"), "bounds")
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"workers": 0}`), 0o644))
	_, err = execute(t, nil, "--config", bad, "bounds")
	assert.ErrorContains(t, err, "workers")
}

func TestRemoteCommand(t *testing.T) {
	listen := func(ctx context.Context, events chan<- cec.RemoteCommand) error {
		for _, c := range []cec.RemoteCommand{cec.RemoteUp, cec.RemoteSelect, cec.RemoteBack} {
			select {
			case events <- c:
			case <-ctx.Done():
				return nil
			}
		}
		<-ctx.Done()
		return nil
	}

	var out bytes.Buffer
	cmd := newRemoteCmd(&app{}, listen)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--count", "2"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "Listening for remote presses; Ctrl-C to stop.\npressed: up\npressed: select\n", out.String())
}

func TestRemoteCommand_ListenerFails(t *testing.T) {
	listen := func(context.Context, chan<- cec.RemoteCommand) error {
		return errors.New("start cec-client: not found")
	}

	cmd := newRemoteCmd(&app{}, listen)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "cec-client")
}

func TestBoundsCommand_FlagHelpMatchesTrimRanges(t *testing.T) {
	cmd := newBoundsCmd(&app{})
	assert.Contains(t, cmd.Flags().Lookup("lower").Usage, "[0, 0.5)")
	assert.Contains(t, cmd.Flags().Lookup("upper").Usage, "(0.5, 1]")

	// the advertised edges are exactly where validation switches
	lower, upper := 0.49, 0.51
	_, err := config.BoundsConfig{Preset: "all", Lower: &lower, Upper: &upper}.Trim()
	assert.NoError(t, err)
	lower = 0.5
	_, err = config.BoundsConfig{Preset: "all", Lower: &lower}.Trim()
	assert.ErrorIs(t, err, geo.ErrInvalidTrim)
}
