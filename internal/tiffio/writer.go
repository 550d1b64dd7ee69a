package tiffio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
)

// stripTarget is the approximate uncompressed size of a written strip.
const stripTarget = 8192

// Writer emits a single-image little-endian TIFF one scanline at a time.
// Rows must be written in order starting at 0.
type Writer struct {
	f    *os.File
	bw   *bufio.Writer
	meta Metadata
	enc  *encoder

	rowBytes int
	rps      int
	next     int
	off      uint32
	strip    []byte
	offsets  []uint32
	counts   []uint32
	closed   bool
}

// Create truncates or creates path and prepares it for meta.
// Only Width, Height, BitsPerSample, SamplesPerPixel, Photometric,
// Compression, Resolution and ResolutionUnit are honoured; FillOrder and
// Predictor are never written.
func Create(path string, meta Metadata) (*Writer, error) {
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", meta.Width, meta.Height)
	}
	if meta.BitsPerSample == 0 {
		return nil, errors.New("bits per sample must be set")
	}
	if meta.SamplesPerPixel == 0 {
		meta.SamplesPerPixel = 1
	}
	meta.PlanarConfig = PlanarChunky
	enc, err := newEncoder(meta.Compression)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		f:        f,
		bw:       bufio.NewWriter(f),
		meta:     meta,
		enc:      enc,
		rowBytes: meta.RowBytes(),
	}
	w.rps = max(1, min(stripTarget/max(w.rowBytes, 1), meta.Height))
	if meta.RowsPerStrip > 0 {
		w.rps = min(meta.RowsPerStrip, meta.Height)
	}
	w.meta.RowsPerStrip = w.rps
	w.strip = make([]byte, 0, w.rps*w.rowBytes)

	// The IFD offset is patched in Close.
	header := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	if _, err := w.bw.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.off = uint32(len(header))
	return w, nil
}

// RowBytes returns the packed length of one scanline.
func (w *Writer) RowBytes() int { return w.rowBytes }

// WriteScanline appends row. Bits past the image width in the final byte
// are cleared.
func (w *Writer) WriteScanline(buf []byte, row int) error {
	if w.closed {
		return os.ErrClosed
	}
	if row != w.next {
		return fmt.Errorf("%w: got row %d, want %d", ErrRowOrder, row, w.next)
	}
	if len(buf) < w.rowBytes {
		return fmt.Errorf("scanline buffer is %d bytes, need %d", len(buf), w.rowBytes)
	}
	start := len(w.strip)
	w.strip = append(w.strip, buf[:w.rowBytes]...)
	if used := (w.meta.Width * int(w.meta.BitsPerSample) * int(w.meta.SamplesPerPixel)) % 8; used != 0 {
		w.strip[start+w.rowBytes-1] &= byte(0xFF << (8 - used))
	}
	w.next++

	if len(w.strip) == w.rps*w.rowBytes || w.next == w.meta.Height {
		return w.flushStrip()
	}
	return nil
}

func (w *Writer) flushStrip() error {
	data, err := w.enc.encode(w.strip)
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(data); err != nil {
		return err
	}
	w.offsets = append(w.offsets, w.off)
	w.counts = append(w.counts, uint32(len(data)))
	w.off += uint32(len(data))
	w.strip = w.strip[:0]
	return nil
}

// Close writes the IFD and closes the file. Closing before every row has
// been written returns ErrIncomplete and leaves a truncated file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.next != w.meta.Height {
		w.bw.Flush()
		w.f.Close()
		return fmt.Errorf("%w: wrote %d of %d rows", ErrIncomplete, w.next, w.meta.Height)
	}
	if err := w.writeIFD(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

type field struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func (w *Writer) fields() []field {
	le := binary.LittleEndian
	short := func(tag, v uint16) field {
		return field{tag, typeShort, 1, le.AppendUint16(nil, v)}
	}
	long := func(tag uint16, vs ...uint32) field {
		var b []byte
		for _, v := range vs {
			b = le.AppendUint32(b, v)
		}
		return field{tag, typeLong, uint32(len(vs)), b}
	}
	rational := func(tag uint16, v float64) field {
		num, den := toRational(v)
		return field{tag, typeRational, 1, le.AppendUint32(le.AppendUint32(nil, num), den)}
	}

	m := w.meta
	fs := []field{
		long(tagImageWidth, uint32(m.Width)),
		long(tagImageLength, uint32(m.Height)),
		short(tagBitsPerSample, m.BitsPerSample),
		short(tagCompression, m.Compression),
		short(tagPhotometric, m.Photometric),
		long(tagStripOffsets, w.offsets...),
		short(tagSamplesPerPixel, m.SamplesPerPixel),
		long(tagRowsPerStrip, uint32(w.rps)),
		long(tagStripByteCounts, w.counts...),
		short(tagPlanarConfig, m.PlanarConfig),
	}
	if m.Resolution.X > 0 {
		fs = append(fs, rational(tagXResolution, m.Resolution.X))
	}
	if m.Resolution.Y > 0 {
		fs = append(fs, rational(tagYResolution, m.Resolution.Y))
	}
	if m.Resolution.X > 0 || m.Resolution.Y > 0 {
		unit := m.ResolutionUnit
		if unit == 0 {
			unit = ResolutionUnitInch
		}
		fs = append(fs, short(tagResolutionUnit, unit))
	}
	sort.Slice(fs, func(i, j int) bool { return fs[i].tag < fs[j].tag })
	return fs
}

func (w *Writer) writeIFD() error {
	le := binary.LittleEndian
	if w.off%2 == 1 {
		if err := w.bw.WriteByte(0); err != nil {
			return err
		}
		w.off++
	}
	ifdOff := w.off
	fs := w.fields()

	extraOff := ifdOff + 2 + uint32(len(fs))*12 + 4
	ifd := le.AppendUint16(make([]byte, 0, extraOff-ifdOff), uint16(len(fs)))
	var extra []byte
	for _, f := range fs {
		ifd = le.AppendUint16(ifd, f.tag)
		ifd = le.AppendUint16(ifd, f.typ)
		ifd = le.AppendUint32(ifd, f.count)
		if len(f.data) <= 4 {
			var v [4]byte
			copy(v[:], f.data)
			ifd = append(ifd, v[:]...)
			continue
		}
		ifd = le.AppendUint32(ifd, extraOff+uint32(len(extra)))
		extra = append(extra, f.data...)
		if len(extra)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	ifd = le.AppendUint32(ifd, 0)

	if _, err := w.bw.Write(ifd); err != nil {
		return err
	}
	if _, err := w.bw.Write(extra); err != nil {
		return err
	}
	if err := w.bw.Flush(); err != nil {
		return err
	}
	_, err := w.f.WriteAt(le.AppendUint32(nil, ifdOff), 4)
	return err
}
