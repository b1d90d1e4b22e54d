// Package render produces the two derived images for every photo: a
// downscaled thumbnail and a pin-shaped map marker cut from it.
package render

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ThumbnailOptions controls thumbnail generation.
type ThumbnailOptions struct {
	Width int
	// Rotate is applied after resizing, in clockwise degrees.
	Rotate int
	// AutoOrient applies the EXIF orientation before resizing.
	AutoOrient bool
	Quality    int
}

// Thumbnail loads src and returns it resized to opts.Width (aspect kept)
// and rotated.
func Thumbnail(src string, orientation int, opts ThumbnailOptions) (image.Image, error) {
	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image %s: %w", src, err)
	}
	if opts.AutoOrient {
		img = adjustOrientation(img, orientation)
	}
	if opts.Width > 0 {
		img = imaging.Resize(img, opts.Width, 0, imaging.Lanczos)
	}
	return rotateClockwise(img, opts.Rotate), nil
}

// SaveThumbnail writes img as a JPEG (or whatever dst's extension names).
func SaveThumbnail(img image.Image, dst string, quality int) error {
	if quality <= 0 {
		quality = 85
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save thumbnail %s: %w", dst, err)
	}
	return nil
}

// rotateClockwise rotates by a multiple of 90 degrees. imaging rotates
// counter-clockwise, hence the swapped helpers.
func rotateClockwise(img image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// adjustOrientation undoes the camera rotation recorded in the EXIF
// orientation tag.
func adjustOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
