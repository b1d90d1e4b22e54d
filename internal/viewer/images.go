package viewer

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	_ "image/jpeg"
	_ "image/png"
)

const maxTileSize = 2048

// TiledImage holds one image split into sub-images no larger than the
// texture limit. Thumbnails are normally small enough for a single tile but
// thumbnail.width is configurable.
type TiledImage struct {
	tiles       []*ebiten.Image
	totalWidth  int
	totalHeight int
}

func decodeFile(filePath string) (image.Image, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filePath, err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image %s: %w", filePath, err)
	}
	return src, nil
}

// loadImage decodes a small image, such as a marker, into one texture.
func loadImage(filePath string) (*ebiten.Image, error) {
	src, err := decodeFile(filePath)
	if err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(src), nil
}

// loadTiledImage decodes an image from disk and splits it into tiles if it
// is larger than maxTileSize.
func loadTiledImage(filePath string) (*TiledImage, error) {
	src, err := decodeFile(filePath)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	sub, canSub := src.(interface {
		SubImage(r image.Rectangle) image.Image
	})

	var tiles []*ebiten.Image
	if !canSub || (w <= maxTileSize && h <= maxTileSize) {
		tiles = append(tiles, ebiten.NewImageFromImage(src))
	} else {
		for y := 0; y < h; y += maxTileSize {
			for x := 0; x < w; x += maxTileSize {
				r := image.Rect(x, y, min(x+maxTileSize, w), min(y+maxTileSize, h)).Add(b.Min)
				tiles = append(tiles, ebiten.NewImageFromImage(sub.SubImage(r)))
			}
		}
	}

	return &TiledImage{
		tiles:       tiles,
		totalWidth:  w,
		totalHeight: h,
	}, nil
}

// Deallocate releases the textures.
func (t *TiledImage) Deallocate() {
	for _, tile := range t.tiles {
		tile.Deallocate()
	}
	t.tiles = nil
}

// drawTiledImage draws t with its top-left corner at (offsetX, offsetY).
func drawTiledImage(screen *ebiten.Image, t *TiledImage, scale, offsetX, offsetY float64) {
	tileIndex := 0
	for tileY := 0; tileY*maxTileSize < t.totalHeight; tileY++ {
		for tileX := 0; tileX*maxTileSize < t.totalWidth; tileX++ {
			if tileIndex >= len(t.tiles) {
				return
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(scale, scale)
			op.GeoM.Translate(
				offsetX+float64(tileX*maxTileSize)*scale,
				offsetY+float64(tileY*maxTileSize)*scale,
			)
			op.Filter = ebiten.FilterLinear
			screen.DrawImage(t.tiles[tileIndex], op)
			tileIndex++
		}
	}
}

// computeScale fits an imgW×imgH image into a boxW×boxH box.
func computeScale(imgW, imgH, boxW, boxH int) float64 {
	if imgW == 0 || imgH == 0 {
		return 1.0
	}
	scaleW := float64(boxW) / float64(imgW)
	scaleH := float64(boxH) / float64(imgH)
	return math.Min(scaleW, scaleH)
}
