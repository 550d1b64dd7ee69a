package tiffio

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"

	"github.com/hhrutter/lzw"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/image/ccitt"
	xlzw "golang.org/x/image/tiff/lzw"
)

// decode expands one compressed strip of rows scanlines to want bytes and
// undoes FillOrder and predictor transforms.
func (r *Reader) decode(raw []byte, rows, want int) ([]byte, error) {
	m := r.meta
	var (
		out []byte
		err error
	)
	ccittCoded := false

	switch m.Compression {
	case CompressionNone:
		if len(raw) < want {
			return nil, fmt.Errorf("%w: strip has %d bytes, want %d", ErrCorrupt, len(raw), want)
		}
		out = raw[:want]
	case CompressionPackBits:
		out, err = unpackBits(raw, want)
	case CompressionLZW:
		rc := xlzw.NewReader(bytes.NewReader(raw), xlzw.MSB, 8)
		out, err = readExactly(rc, want)
		rc.Close()
	case CompressionDeflate, CompressionDeflateOld:
		var zr io.ReadCloser
		if zr, err = zlib.NewReader(bytes.NewReader(raw)); err == nil {
			out, err = readExactly(zr, want)
			zr.Close()
		}
	case CompressionG3, CompressionG4:
		if m.BitsPerSample != 1 {
			return nil, fmt.Errorf("%w: CCITT with %d bits per sample", ErrUnsupportedCompression, m.BitsPerSample)
		}
		if m.Compression == CompressionG3 && r.t4&1 != 0 {
			return nil, fmt.Errorf("%w: two-dimensional Group 3", ErrUnsupportedCompression)
		}
		ccittCoded = true
		out, err = r.decodeCCITT(raw, rows, want)
	default:
		return nil, fmt.Errorf("%w: %s (%d)", ErrUnsupportedCompression, CompressionName(m.Compression), m.Compression)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CompressionName(m.Compression), err)
	}

	// The CCITT decoder consumes FillOrder itself.
	if m.FillOrder == FillOrderLSB && !ccittCoded {
		reverseBits(out)
	}

	if m.Predictor == PredictorHorizontal {
		if m.BitsPerSample != 8 {
			return nil, fmt.Errorf("%w: horizontal predictor with %d bits per sample", ErrUnsupportedPredictor, m.BitsPerSample)
		}
		undoHorizontal(out, r.rowBytes, int(max(m.SamplesPerPixel, 1)))
	} else if m.Predictor != PredictorNone && m.Predictor != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPredictor, m.Predictor)
	}
	return out, nil
}

func (r *Reader) decodeCCITT(raw []byte, rows, want int) ([]byte, error) {
	order := ccitt.MSB
	if r.meta.FillOrder == FillOrderLSB {
		order = ccitt.LSB
	}
	sf := ccitt.Group3
	if r.meta.Compression == CompressionG4 {
		sf = ccitt.Group4
	}
	cr := ccitt.NewReader(bytes.NewReader(raw), order, sf, r.meta.Width, rows, &ccitt.Options{
		Invert: r.meta.Photometric == PhotometricWhiteIsZero,
	})
	return readExactly(cr, want)
}

func readExactly(rd io.Reader, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(rd, out); err != nil {
		return nil, err
	}
	return out, nil
}

func reverseBits(b []byte) {
	for i, v := range b {
		b[i] = bits.Reverse8(v)
	}
}

// undoHorizontal reverses TIFF horizontal differencing on 8-bit samples.
func undoHorizontal(b []byte, rowBytes, spp int) {
	for off := 0; off+rowBytes <= len(b); off += rowBytes {
		row := b[off : off+rowBytes]
		for x := spp; x < len(row); x++ {
			row[x] += row[x-spp]
		}
	}
}

// encoder compresses whole strips for the writer.
type encoder struct {
	compression uint16
	buf         bytes.Buffer
	scratch     []byte
	zw          *zlib.Writer
}

func newEncoder(compression uint16) (*encoder, error) {
	e := &encoder{compression: compression}
	switch compression {
	case CompressionNone, CompressionPackBits, CompressionLZW:
	case CompressionDeflate, CompressionDeflateOld:
		zw, err := zlib.NewWriterLevel(&e.buf, zlib.DefaultCompression)
		if err != nil {
			return nil, err
		}
		e.zw = zw
	default:
		return nil, fmt.Errorf("%w: cannot write %s (%d)", ErrUnsupportedCompression, CompressionName(compression), compression)
	}
	return e, nil
}

// encode returns the compressed form of strip. The result is only valid
// until the next call.
func (e *encoder) encode(strip []byte) ([]byte, error) {
	switch e.compression {
	case CompressionNone:
		return strip, nil
	case CompressionPackBits:
		e.scratch = packBits(e.scratch[:0], strip)
		return e.scratch, nil
	case CompressionLZW:
		// TIFF LZW widens codes one entry early.
		e.buf.Reset()
		lw := lzw.NewWriter(&e.buf, true)
		if _, err := lw.Write(strip); err != nil {
			return nil, err
		}
		if err := lw.Close(); err != nil {
			return nil, err
		}
		return e.buf.Bytes(), nil
	}
	e.buf.Reset()
	e.zw.Reset(&e.buf)
	if _, err := e.zw.Write(strip); err != nil {
		return nil, err
	}
	if err := e.zw.Close(); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}
