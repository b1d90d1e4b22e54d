package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/bekharsky/el-cabanyal-tiles/internal/geo"
	"github.com/bekharsky/el-cabanyal-tiles/internal/mapview"
)

const (
	panelMargin     = 10
	panelPadding    = 10
	panelRadius     = 8
	panelThumbWidth = 150
	panelLineGap    = 6
)

var (
	backgroundColor = color.RGBA{0xe8, 0xe4, 0xdc, 0xff}
	panelColor      = color.RGBA{0xcc, 0xcc, 0xcc, 0xcc} // white at 80%, premultiplied
	selectionColor  = color.RGBA{0x1e, 0x88, 0xe5, 0xff}
	fallbackColor   = color.RGBA{0xd3, 0x2f, 0x2f, 0xff}

	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// drawDebugString prints text in the top-left corner of the screen.
// Used for errors and empty states.
func drawDebugString(screen *ebiten.Image, msg string) {
	ebitenutil.DebugPrint(screen, msg)
}

// drawMarkers draws the visible pins, with the selected one last.
func drawMarkers(screen *ebiten.Image, cam mapview.Camera, nav *mapview.Navigator, icon mapview.Icon, markers []*ebiten.Image) {
	points := nav.Points()
	selected := nav.Selected()
	for _, i := range mapview.VisibleMarkers(cam, points, nav.Index(), icon) {
		if i == selected {
			continue
		}
		drawMarker(screen, cam, points[i], icon, markers[i])
	}
	if selected != geo.NoSelection {
		p := points[selected]
		r := icon.Rect(cam, p.Lat, p.Lng)
		// ring around the pin head
		cx := float32(r.Min.X) + float32(icon.Width)/2
		cy := float32(r.Min.Y) + float32(icon.Width)/2
		vector.StrokeCircle(screen, cx, cy, float32(icon.Width)/2+2, 3, selectionColor, true)
		drawMarker(screen, cam, p, icon, markers[selected])
	}
}

func drawMarker(screen *ebiten.Image, cam mapview.Camera, p geo.Point, icon mapview.Icon, img *ebiten.Image) {
	r := icon.Rect(cam, p.Lat, p.Lng)
	if img == nil {
		// marker image missing: a plain dot at the anchor
		vector.DrawFilledCircle(screen, float32(r.Min.X)+float32(icon.Width)/2, float32(r.Max.Y)-6, 6, fallbackColor, true)
		return
	}
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(icon.Width)/float64(b.Dx()), float64(icon.Height)/float64(b.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}

// drawPanel shows the selected photo in the top-right corner: the thumbnail
// 150px wide and the file name under it.
func drawPanel(screen *ebiten.Image, name string, thumb *TiledImage, loadErr error) {
	face := basicfont.Face7x13
	sw := screen.Bounds().Dx()

	thumbH := 0.0
	scale := 1.0
	if thumb != nil {
		scale = computeScale(thumb.totalWidth, thumb.totalHeight, panelThumbWidth, math.MaxInt32)
		thumbH = float64(thumb.totalHeight) * scale
	}

	label := fitText(name, panelThumbWidth, face.Advance)
	lineH := face.Metrics().Height.Ceil()
	w := float64(panelThumbWidth + 2*panelPadding)
	h := float64(panelPadding) + thumbH + panelLineGap + float64(lineH) + panelPadding
	if loadErr != nil {
		h += float64(lineH)
	}
	x := float64(sw) - panelMargin - w
	y := float64(panelMargin)

	drawRoundedRect(screen, float32(x), float32(y), float32(w), float32(h), panelRadius, panelColor)

	if thumb != nil {
		drawTiledImage(screen, thumb, scale, x+panelPadding, y+panelPadding)
	}
	baseline := int(y+panelPadding+thumbH+panelLineGap) + face.Metrics().Ascent.Ceil()
	text.Draw(screen, label, face, int(x)+panelPadding, baseline, color.Black)
	if loadErr != nil {
		text.Draw(screen, "thumbnail unavailable", face, int(x)+panelPadding, baseline+lineH, fallbackColor)
	}
}

// fitText shortens s with "..." so that it fits width pixels of a
// fixed-advance font.
func fitText(s string, width, advance int) string {
	if advance <= 0 {
		return s
	}
	maxRunes := width / advance
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(r[:maxRunes])
	}
	return string(r[:maxRunes-3]) + "..."
}

// drawRoundedRect fills a rectangle with rounded corners. clr is
// premultiplied.
func drawRoundedRect(dst *ebiten.Image, x, y, w, h, radius float32, clr color.RGBA) {
	var path vector.Path
	path.MoveTo(x+radius, y)
	path.LineTo(x+w-radius, y)
	path.Arc(x+w-radius, y+radius, radius, -math.Pi/2, 0, vector.Clockwise)
	path.LineTo(x+w, y+h-radius)
	path.Arc(x+w-radius, y+h-radius, radius, 0, math.Pi/2, vector.Clockwise)
	path.LineTo(x+radius, y+h)
	path.Arc(x+radius, y+h-radius, radius, math.Pi/2, math.Pi, vector.Clockwise)
	path.LineTo(x, y+radius)
	path.Arc(x+radius, y+radius, radius, math.Pi, 3*math.Pi/2, vector.Clockwise)
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(clr.R) / 0xff
		vs[i].ColorG = float32(clr.G) / 0xff
		vs[i].ColorB = float32(clr.B) / 0xff
		vs[i].ColorA = float32(clr.A) / 0xff
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	dst.DrawTriangles(vs, is, whiteSubImage, op)
}
