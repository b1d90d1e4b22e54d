package render

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// MarkerOptions is the pixel size of the pin icon.
type MarkerOptions struct {
	Width  int
	Height int
}

// Marker crops thumb to fill the marker size and cuts it to a map-pin
// silhouette: a round head as wide as the icon, tapering to a tip at the
// bottom centre. Pixels outside the pin are fully transparent.
func Marker(thumb image.Image, opts MarkerOptions) (image.Image, error) {
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid marker size %dx%d", w, h)
	}

	filled := imaging.Fill(thumb, w, h, imaging.Center, imaging.Lanczos)

	dc := gg.NewContext(w, h)
	if err := dc.SetMask(PinMask(w, h)); err != nil {
		return nil, fmt.Errorf("apply pin mask: %w", err)
	}
	dc.DrawImage(filled, 0, 0)
	return dc.Image(), nil
}

// SaveMarker writes a marker as PNG so the transparent corners survive.
func SaveMarker(img image.Image, dst string) error {
	if err := gg.SavePNG(dst, img); err != nil {
		return fmt.Errorf("save marker %s: %w", dst, err)
	}
	return nil
}

// PinMask returns the alpha mask of the pin silhouette for a w×h icon.
func PinMask(w, h int) *image.Alpha {
	dc := gg.NewContext(w, h)
	dc.SetRGBA(0, 0, 0, 1)

	r := float64(w) / 2
	cx, cy := r, r
	tip := float64(h)

	// The sides run from the tip to the points where they touch the head.
	if d := tip - cy; d > r {
		beta := math.Acos(r / d)
		sx := r * math.Sin(beta)
		sy := cy + r*math.Cos(beta)
		dc.MoveTo(cx-sx, sy)
		dc.LineTo(cx, tip)
		dc.LineTo(cx+sx, sy)
		dc.ClosePath()
		dc.Fill()
	}

	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	return dc.AsMask()
}
