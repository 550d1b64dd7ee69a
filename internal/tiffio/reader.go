package tiffio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"tiff2bit/pkg/imgutil"
)

// maxFieldBytes bounds the size of a single out-of-line IFD value.
const maxFieldBytes = 64 << 20

type entry struct {
	typ   uint16
	count uint32
	raw   [4]byte
}

// Reader decodes the first image of a TIFF file scanline by scanline.
// A Reader is not safe for concurrent use.
type Reader struct {
	ra     io.ReaderAt
	closer io.Closer
	order  binary.ByteOrder
	meta   Metadata
	t4     uint32

	offsets []uint32
	counts  []uint32

	rowBytes  int
	strip     int
	stripData []byte
}

// Open opens path and parses its first IFD.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader parses the first IFD from ra.
func NewReader(ra io.ReaderAt) (*Reader, error) {
	header := make([]byte, imgutil.HeaderSize)
	if _, err := ra.ReadAt(header, 0); err != nil {
		if err == io.EOF {
			return nil, ErrNotTIFF
		}
		return nil, err
	}
	kind, order, err := imgutil.DetectHeader(header)
	if err != nil {
		return nil, err
	}
	switch kind {
	case imgutil.KindBigTIFF:
		return nil, ErrBigTIFF
	case imgutil.KindUnknown:
		return nil, ErrNotTIFF
	}

	r := &Reader{ra: ra, order: order, strip: -1}
	entries, err := r.readIFD(int64(order.Uint32(header[4:])))
	if err != nil {
		return nil, err
	}
	if err := r.parse(entries); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) readIFD(off int64) (map[uint16]entry, error) {
	if off < imgutil.HeaderSize {
		return nil, fmt.Errorf("%w: IFD offset %d", ErrCorrupt, off)
	}
	var n [2]byte
	if _, err := r.ra.ReadAt(n[:], off); err != nil {
		return nil, fmt.Errorf("%w: reading IFD: %v", ErrCorrupt, err)
	}
	count := int(r.order.Uint16(n[:]))
	buf := make([]byte, count*12)
	if _, err := r.ra.ReadAt(buf, off+2); err != nil {
		return nil, fmt.Errorf("%w: reading IFD entries: %v", ErrCorrupt, err)
	}

	entries := make(map[uint16]entry, count)
	for i := 0; i < count; i++ {
		b := buf[i*12:]
		var e entry
		e.typ = r.order.Uint16(b[2:])
		e.count = r.order.Uint32(b[4:])
		copy(e.raw[:], b[8:12])
		entries[r.order.Uint16(b)] = e
	}
	return entries, nil
}

// bytesOf returns the packed value bytes of e, reading out-of-line data when
// it does not fit in the entry.
func (r *Reader) bytesOf(e entry) ([]byte, error) {
	size, ok := typeSize[e.typ]
	if !ok {
		return nil, fmt.Errorf("%w: field type %d", ErrCorrupt, e.typ)
	}
	total := uint64(size) * uint64(e.count)
	if total <= 4 {
		return e.raw[:total], nil
	}
	if total > maxFieldBytes {
		return nil, fmt.Errorf("%w: field of %d bytes", ErrCorrupt, total)
	}
	buf := make([]byte, total)
	if _, err := r.ra.ReadAt(buf, int64(r.order.Uint32(e.raw[:]))); err != nil {
		return nil, fmt.Errorf("%w: reading field: %v", ErrCorrupt, err)
	}
	return buf, nil
}

// ints decodes an integer-typed field.
func (r *Reader) ints(e entry) ([]uint32, error) {
	b, err := r.bytesOf(e)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, e.count)
	for i := range out {
		switch e.typ {
		case typeByte, typeUndefined:
			out[i] = uint32(b[i])
		case typeShort:
			out[i] = uint32(r.order.Uint16(b[i*2:]))
		case typeLong:
			out[i] = r.order.Uint32(b[i*4:])
		default:
			return nil, fmt.Errorf("%w: expected integer field, got type %d", ErrCorrupt, e.typ)
		}
	}
	return out, nil
}

func (r *Reader) rational(e entry) (float64, error) {
	if e.typ != typeRational || e.count < 1 {
		vals, err := r.ints(e)
		if err != nil || len(vals) == 0 {
			return 0, err
		}
		return float64(vals[0]), nil
	}
	b, err := r.bytesOf(e)
	if err != nil {
		return 0, err
	}
	num, den := r.order.Uint32(b), r.order.Uint32(b[4:])
	if den == 0 {
		return 0, nil
	}
	return float64(num) / float64(den), nil
}

func (r *Reader) parse(entries map[uint16]entry) error {
	if _, ok := entries[tagTileOffsets]; ok {
		return ErrTiled
	}
	if _, ok := entries[tagTileWidth]; ok {
		return ErrTiled
	}

	first := func(tag uint16, def uint32) (uint32, error) {
		e, ok := entries[tag]
		if !ok || e.count == 0 {
			return def, nil
		}
		vals, err := r.ints(e)
		if err != nil {
			return 0, fmt.Errorf("tag %d: %w", tag, err)
		}
		return vals[0], nil
	}

	width, err := first(tagImageWidth, 0)
	if err != nil {
		return err
	}
	height, err := first(tagImageLength, 0)
	if err != nil {
		return err
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: image is %dx%d", ErrCorrupt, width, height)
	}

	m := Metadata{Width: int(width), Height: int(height)}
	shorts := []struct {
		tag uint16
		def uint32
		dst *uint16
	}{
		{tagBitsPerSample, 1, &m.BitsPerSample},
		{tagSamplesPerPixel, 1, &m.SamplesPerPixel},
		{tagPlanarConfig, uint32(PlanarChunky), &m.PlanarConfig},
		{tagPhotometric, uint32(PhotometricWhiteIsZero), &m.Photometric},
		{tagCompression, uint32(CompressionNone), &m.Compression},
		{tagResolutionUnit, uint32(ResolutionUnitInch), &m.ResolutionUnit},
		{tagPredictor, uint32(PredictorNone), &m.Predictor},
		{tagFillOrder, uint32(FillOrderMSB), &m.FillOrder},
	}
	for _, s := range shorts {
		v, err := first(s.tag, s.def)
		if err != nil {
			return err
		}
		*s.dst = uint16(v)
	}
	rps, err := first(tagRowsPerStrip, height)
	if err != nil {
		return err
	}
	m.RowsPerStrip = int(min(rps, height))
	if r.t4, err = first(tagT4Options, 0); err != nil {
		return err
	}
	if e, ok := entries[tagXResolution]; ok {
		if m.Resolution.X, err = r.rational(e); err != nil {
			return err
		}
	}
	if e, ok := entries[tagYResolution]; ok {
		if m.Resolution.Y, err = r.rational(e); err != nil {
			return err
		}
	}
	r.meta = m
	r.rowBytes = m.RowBytes()

	offs, ok := entries[tagStripOffsets]
	if !ok {
		return fmt.Errorf("%w: missing StripOffsets", ErrCorrupt)
	}
	if r.offsets, err = r.ints(offs); err != nil {
		return err
	}
	strips := (m.Height + m.stripRows() - 1) / m.stripRows()
	if len(r.offsets) < strips {
		return fmt.Errorf("%w: %d strips, want %d", ErrCorrupt, len(r.offsets), strips)
	}
	if e, ok := entries[tagStripByteCounts]; ok {
		if r.counts, err = r.ints(e); err != nil {
			return err
		}
	} else if m.Compression == CompressionNone {
		// Uncompressed strips may omit their byte counts.
		r.counts = make([]uint32, len(r.offsets))
		for i := range r.counts {
			r.counts[i] = uint32(m.stripRows() * r.rowBytes)
		}
	}
	if len(r.counts) < strips {
		return fmt.Errorf("%w: missing StripByteCounts", ErrCorrupt)
	}
	return nil
}

// Meta returns the parsed metadata of the first image.
func (r *Reader) Meta() Metadata { return r.meta }

// RowBytes returns the packed length of one scanline.
func (r *Reader) RowBytes() int { return r.rowBytes }

// ReadScanline decodes row into buf, which must hold at least RowBytes bytes.
func (r *Reader) ReadScanline(buf []byte, row int) error {
	if row < 0 || row >= r.meta.Height {
		return fmt.Errorf("row %d out of range [0,%d)", row, r.meta.Height)
	}
	if len(buf) < r.rowBytes {
		return fmt.Errorf("scanline buffer is %d bytes, need %d", len(buf), r.rowBytes)
	}
	rps := r.meta.stripRows()
	strip := row / rps
	if strip != r.strip {
		if err := r.loadStrip(strip); err != nil {
			return fmt.Errorf("strip %d: %w", strip, err)
		}
	}
	off := (row - strip*rps) * r.rowBytes
	copy(buf, r.stripData[off:off+r.rowBytes])
	return nil
}

func (r *Reader) loadStrip(strip int) error {
	rps := r.meta.stripRows()
	rows := min(rps, r.meta.Height-strip*rps)
	want := rows * r.rowBytes

	n := r.counts[strip]
	if n > maxFieldBytes*4 {
		return fmt.Errorf("%w: strip of %d bytes", ErrCorrupt, n)
	}
	raw := make([]byte, n)
	if _, err := r.ra.ReadAt(raw, int64(r.offsets[strip])); err != nil && err != io.EOF {
		return err
	}

	data, err := r.decode(raw, rows, want)
	if err != nil {
		return err
	}
	r.strip = strip
	r.stripData = data
	return nil
}

// Close releases the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
