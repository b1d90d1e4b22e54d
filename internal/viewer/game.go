// Package viewer is the interactive map window: basemap tiles, photo pins,
// keyboard and remote navigation between them and a thumbnail panel for
// the selected photo.
package viewer

import (
	"context"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog/log"

	"github.com/bekharsky/el-cabanyal-tiles/internal/cec"
	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/mapview"
	"github.com/bekharsky/el-cabanyal-tiles/internal/tiles"
)

// DefaultCenter is El Cabanyal, Valencia. The camera starts here when there
// is nothing to fit.
var DefaultCenter = [2]float64{39.4699, -0.3263}

// dragThreshold separates a click from the start of a drag, in pixels.
const dragThreshold = 4

// Options configures the viewer.
type Options struct {
	Width, Height int
	Fullscreen    bool
	Title         string

	Padding     int
	Zoom        int
	MinZoom     int
	MaxZoom     int
	FlyDuration time.Duration
	Icon        mapview.Icon
	Trim        geo.Trim

	// Tiles is the basemap source; nil draws a plain background.
	Tiles tiles.Source
	// Remote delivers HDMI-CEC button presses; nil disables it.
	Remote <-chan cec.RemoteCommand
}

type dragState struct {
	active bool
	moved  bool
	startX int
	startY int
	lastX  int
	lastY  int
}

// MapGame holds the viewer state. Points carry filesystem paths to their
// marker and thumbnail images.
type MapGame struct {
	ctx  context.Context
	opts Options

	nav    *mapview.Navigator
	cam    mapview.Camera
	fitted bool
	flight *mapview.Flight

	markers    []*ebiten.Image
	thumb      *TiledImage
	thumbOwner int
	thumbErr   error

	tiles *tileLayer
	drag  dragState
	now   func() time.Time
}

// NewMapGame creates the game. Marker images are loaded up front; a marker
// that fails to load is drawn as a dot.
func NewMapGame(ctx context.Context, points []geo.Point, opts Options) *MapGame {
	g := &MapGame{
		ctx:        ctx,
		opts:       opts,
		nav:        mapview.NewNavigator(points),
		cam:        mapview.Camera{Lat: DefaultCenter[0], Lng: DefaultCenter[1], Zoom: opts.Zoom, Width: opts.Width, Height: opts.Height},
		thumbOwner: geo.NoSelection,
		tiles:      newTileLayer(ctx, opts.Tiles),
		now:        time.Now,
	}
	g.markers = make([]*ebiten.Image, len(points))
	for i, p := range points {
		img, err := loadImage(p.Marker)
		if err != nil {
			log.Warn().Err(err).Str("file", p.ID).Msg("Could not load marker")
			continue
		}
		g.markers[i] = img
	}
	return g
}

// fit frames the trimmed bounds of the points. With no points the camera
// stays at its default centre and zoom.
func (g *MapGame) fit() {
	g.fitted = true
	box, ok := geo.EstimateBounds(g.nav.Points(), g.opts.Trim)
	if !ok {
		return
	}
	g.cam.Fit(box, g.opts.Padding, g.opts.MinZoom, g.opts.MaxZoom)
	log.Debug().
		Float64("lat", g.cam.Lat).
		Float64("lng", g.cam.Lng).
		Int("zoom", g.cam.Zoom).
		Msg("Fitted map to photos")
}

// Update is called by Ebiten ~60 times/sec.
func (g *MapGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if !g.fitted {
		g.fit()
	}

	// Non-blocking read of remote commands
readLoop:
	for {
		select {
		case cmd := <-g.opts.Remote:
			if cmd == cec.RemoteBack {
				return ebiten.Termination
			}
			g.handleRemoteCommand(cmd)
		default:
			break readLoop
		}
	}

	g.handleKeys()
	g.handleMouse()

	if g.flight != nil {
		lat, lng, done := g.flight.At(g.now())
		g.cam.Lat, g.cam.Lng = lat, lng
		if done {
			g.flight = nil
		}
	}

	g.tiles.update(g.cam)
	g.syncThumbnail()
	return nil
}

func (g *MapGame) handleRemoteCommand(cmd cec.RemoteCommand) {
	switch cmd {
	case cec.RemoteUp:
		g.move(geo.Up)
	case cec.RemoteDown:
		g.move(geo.Down)
	case cec.RemoteLeft:
		g.move(geo.Left)
	case cec.RemoteRight:
		g.move(geo.Right)
	case cec.RemoteSelect:
		g.selectCentre()
	}
}

func (g *MapGame) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		g.move(geo.Up)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		g.move(geo.Down)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.move(geo.Left)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.move(geo.Right)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
		g.selectCentre()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		g.zoom(1, float64(g.cam.Width)/2, float64(g.cam.Height)/2)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		g.zoom(-1, float64(g.cam.Width)/2, float64(g.cam.Height)/2)
	}
}

func (g *MapGame) handleMouse() {
	x, y := ebiten.CursorPosition()

	if _, dy := ebiten.Wheel(); dy != 0 {
		delta := 1
		if dy < 0 {
			delta = -1
		}
		g.zoom(delta, float64(x), float64(y))
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.drag = dragState{active: true, startX: x, startY: y, lastX: x, lastY: y}
	case g.drag.active && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if !g.drag.moved && abs(x-g.drag.startX)+abs(y-g.drag.startY) >= dragThreshold {
			g.drag.moved = true
		}
		if g.drag.moved && (x != g.drag.lastX || y != g.drag.lastY) {
			g.flight = nil
			g.cam.Pan(float64(x-g.drag.lastX), float64(y-g.drag.lastY))
		}
		g.drag.lastX, g.drag.lastY = x, y
	case g.drag.active:
		if !g.drag.moved {
			g.click(x, y)
		}
		g.drag = dragState{}
	}
}

// move steps the selection and flies to the new point, keeping the zoom.
func (g *MapGame) move(dir geo.Direction) {
	if !g.nav.Move(dir) {
		return
	}
	g.flyToSelection()
}

// selectCentre picks the pin nearest the middle of the view.
func (g *MapGame) selectCentre() {
	if !g.nav.SelectNearest(g.cam.Lat, g.cam.Lng) {
		return
	}
	g.flyToSelection()
}

// click selects the pin under the cursor without moving the map.
func (g *MapGame) click(x, y int) {
	i, ok := mapview.MarkerAt(g.cam, g.nav.Points(), g.nav.Index(), g.opts.Icon, x, y)
	if ok {
		g.nav.Select(i)
	}
}

func (g *MapGame) flyToSelection() {
	p, ok := g.nav.Current()
	if !ok {
		return
	}
	g.flight = mapview.NewFlight(g.cam, p.Lat, p.Lng, g.now(), g.opts.FlyDuration)
}

func (g *MapGame) zoom(delta int, x, y float64) {
	g.flight = nil
	g.cam.ZoomAt(delta, x, y, g.opts.MinZoom, g.opts.MaxZoom)
}

// syncThumbnail loads the panel image when the selection changes.
func (g *MapGame) syncThumbnail() {
	sel := g.nav.Selected()
	if sel == g.thumbOwner {
		return
	}
	if g.thumb != nil {
		g.thumb.Deallocate()
		g.thumb = nil
	}
	g.thumbOwner, g.thumbErr = sel, nil
	p, ok := g.nav.Current()
	if !ok {
		return
	}
	g.thumb, g.thumbErr = loadTiledImage(p.Thumbnail)
	if g.thumbErr != nil {
		log.Warn().Err(g.thumbErr).Str("file", p.ID).Msg("Could not load thumbnail")
	}
}

// Draw renders the basemap, the pins and the selection panel.
func (g *MapGame) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	g.tiles.draw(screen, g.cam)

	if len(g.nav.Points()) == 0 {
		drawDebugString(screen, "No photos in manifest.")
		return
	}
	drawMarkers(screen, g.cam, g.nav, g.opts.Icon, g.markers)

	if p, ok := g.nav.Current(); ok {
		drawPanel(screen, p.ID, g.thumb, g.thumbErr)
	}
}

// Layout follows the window size so the map fills it at native resolution.
func (g *MapGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.cam.Width, g.cam.Height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed.
func Run(g *MapGame) error {
	ebiten.SetWindowSize(g.opts.Width, g.opts.Height)
	ebiten.SetWindowTitle(g.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(g.opts.Fullscreen)
	if g.opts.Fullscreen {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
	}
	return ebiten.RunGame(g)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
