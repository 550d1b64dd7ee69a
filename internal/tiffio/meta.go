// Package tiffio reads and writes strip-based, single-image TIFF files one
// scanline at a time.
//
// Only the first IFD is used. Tiled images and BigTIFF are rejected. Strips
// compressed with PackBits, LZW, Deflate or CCITT Group 3/4 are decoded;
// the writer emits uncompressed, PackBits, LZW or Deflate strips.
package tiffio

import (
	"errors"
	"math"
)

var (
	ErrNotTIFF                = errors.New("not a TIFF file")
	ErrBigTIFF                = errors.New("BigTIFF is not supported")
	ErrTiled                  = errors.New("tiled TIFF is not supported")
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrUnsupportedPredictor   = errors.New("unsupported predictor")
	ErrRowOrder               = errors.New("scanlines must be written in order")
	ErrIncomplete             = errors.New("image closed before all scanlines were written")
	ErrCorrupt                = errors.New("corrupt TIFF data")
)

// Resolution is a horizontal/vertical resolution pair in ResolutionUnit
// units. A zero component means unset.
type Resolution struct {
	X float64
	Y float64
}

// Metadata is the subset of IFD fields carried between source and output.
type Metadata struct {
	Width           int
	Height          int
	BitsPerSample   uint16
	SamplesPerPixel uint16
	PlanarConfig    uint16
	Photometric     uint16
	Compression     uint16
	RowsPerStrip    int
	Resolution      Resolution
	ResolutionUnit  uint16
	Predictor       uint16
	FillOrder       uint16
}

// RowBytes returns the packed length of one scanline.
func (m Metadata) RowBytes() int {
	spp := int(m.SamplesPerPixel)
	if spp == 0 || m.PlanarConfig == 2 {
		spp = 1
	}
	return (m.Width*int(m.BitsPerSample)*spp + 7) / 8
}

// stripRows returns RowsPerStrip clamped to [1, Height].
func (m Metadata) stripRows() int {
	if m.RowsPerStrip <= 0 || m.RowsPerStrip > m.Height {
		return m.Height
	}
	return m.RowsPerStrip
}

// WritableCompression reports whether the writer can encode c. The CCITT
// and JPEG schemes are not defined for 2-bit samples.
func WritableCompression(c uint16) bool {
	switch c {
	case CompressionNone, CompressionPackBits, CompressionLZW, CompressionDeflate, CompressionDeflateOld:
		return true
	}
	return false
}

// toRational approximates v as a TIFF RATIONAL.
func toRational(v float64) (uint32, uint32) {
	if v <= 0 || math.IsNaN(v) {
		return 0, 1
	}
	if v == math.Trunc(v) && v <= math.MaxUint32 {
		return uint32(v), 1
	}
	den := uint32(10000)
	for v*float64(den) > math.MaxUint32 && den > 1 {
		den /= 10
	}
	return uint32(math.Round(v * float64(den))), den
}
