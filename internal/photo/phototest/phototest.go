// Package phototest builds small JPEG fixtures with hand-written EXIF GPS
// blocks for tests in packages that read photos.
package phototest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const (
	tagOrientation = 0x0112
	tagGPSPointer  = 0x8825
	tagGPSLatRef   = 0x0001
	tagGPSLat      = 0x0002
	tagGPSLngRef   = 0x0003
	tagGPSLng      = 0x0004

	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    [4]byte
}

func inline(b ...byte) (v [4]byte) {
	copy(v[:], b)
	return v
}

func u32(n uint32) (v [4]byte) {
	binary.LittleEndian.PutUint32(v[:], n)
	return v
}

func writeIFD(buf *bytes.Buffer, entries []ifdEntry) {
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, binary.LittleEndian, e.tag)
		_ = binary.Write(buf, binary.LittleEndian, e.typ)
		_ = binary.Write(buf, binary.LittleEndian, e.count)
		buf.Write(e.value[:])
	}
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
}

func ifdSize(n int) int {
	return 2 + 12*n + 4
}

// dms splits an absolute decimal degree value into degree, minute and
// second rationals.
func dms(v float64) [6]uint32 {
	v = math.Abs(v)
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	seconds := ((v-deg)*60 - minutes) * 60
	return [6]uint32{uint32(deg), 1, uint32(minutes), 1, uint32(math.Round(seconds * 10000)), 10000}
}

// EXIF returns a little-endian TIFF block with a GPS IFD for (lat, lng) and,
// when orientation > 0, an Orientation tag in IFD0.
func EXIF(lat, lng float64, orientation int) []byte {
	var ifd0 []ifdEntry
	if orientation > 0 {
		var v [4]byte
		binary.LittleEndian.PutUint16(v[:], uint16(orientation))
		ifd0 = append(ifd0, ifdEntry{tag: tagOrientation, typ: typeShort, count: 1, value: v})
	}
	n0 := len(ifd0) + 1
	gpsOffset := 8 + ifdSize(n0)
	dataOffset := gpsOffset + ifdSize(4)
	ifd0 = append(ifd0, ifdEntry{tag: tagGPSPointer, typ: typeLong, count: 1, value: u32(uint32(gpsOffset))})

	latRef, lngRef := byte('N'), byte('E')
	if lat < 0 {
		latRef = 'S'
	}
	if lng < 0 {
		lngRef = 'W'
	}
	gps := []ifdEntry{
		{tag: tagGPSLatRef, typ: typeASCII, count: 2, value: inline(latRef, 0)},
		{tag: tagGPSLat, typ: typeRational, count: 3, value: u32(uint32(dataOffset))},
		{tag: tagGPSLngRef, typ: typeASCII, count: 2, value: inline(lngRef, 0)},
		{tag: tagGPSLng, typ: typeRational, count: 3, value: u32(uint32(dataOffset + 24))},
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(8))
	writeIFD(&buf, ifd0)
	writeIFD(&buf, gps)
	for _, v := range dms(lat) {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	for _, v := range dms(lng) {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

// JPEG encodes a w×h gradient. A non-nil exifBlock is embedded as an APP1
// segment right after SOI.
func JPEG(w, h int, exifBlock []byte) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	raw := enc.Bytes()
	if exifBlock == nil {
		return raw
	}

	payload := append([]byte("Exif\x00\x00"), exifBlock...)
	var out bytes.Buffer
	out.Write(raw[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(raw[2:])
	return out.Bytes()
}

// WriteGeotagged writes a 64×48 geotagged JPEG to dir/name and returns its path.
func WriteGeotagged(t testing.TB, dir, name string, lat, lng float64) string {
	t.Helper()
	return write(t, dir, name, JPEG(64, 48, EXIF(lat, lng, 1)))
}

// WriteUntagged writes a 64×48 JPEG without EXIF to dir/name.
func WriteUntagged(t testing.TB, dir, name string) string {
	t.Helper()
	return write(t, dir, name, JPEG(64, 48, nil))
}

func write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
