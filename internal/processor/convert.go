package processor

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/tiffio"
)

func (d *Dispatcher) convert(job Job) Result {
	res := Result{Job: job}
	start := time.Now()
	err := d.convertFile(job, &res)
	res.Duration = time.Since(start)
	res.Err = err

	switch {
	case err == nil:
		res.Status = StatusConverted
	case errors.Is(err, codec.ErrUnsupportedDepth):
		res.Status = StatusUnsupported
	default:
		res.Status = StatusFailed
	}
	return res
}

func (d *Dispatcher) convertFile(job Job, res *Result) error {
	if err := checkDistinct(job.Source, job.Destination); err != nil {
		return err
	}

	src, err := tiffio.Open(job.Source)
	if err != nil {
		return fmt.Errorf("open %s: %w", job.Source, err)
	}
	defer src.Close()

	meta := src.Meta()
	res.SourceBits = meta.BitsPerSample
	res.Width, res.Height = meta.Width, meta.Height
	res.Compression = meta.Compression

	depth, err := codec.ParseDepth(meta.BitsPerSample)
	if err != nil {
		return &DepthError{Path: job.Source, Bits: meta.BitsPerSample}
	}
	if meta.SamplesPerPixel != 1 {
		return fmt.Errorf("%w: %d in file %s", ErrSamplesPerPixel, meta.SamplesPerPixel, job.Source)
	}

	out, copts, fellBack := deriveOutput(meta, d.opts)
	if fellBack {
		d.log.Debug("%s: %s is not valid at 2 bits per sample, using deflate", job.Source, tiffio.CompressionName(meta.Compression))
	}

	if err := os.MkdirAll(job.Folder, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", job.Folder, err)
	}

	target := job.Destination
	if d.opts.Atomic {
		tmp, err := os.CreateTemp(job.Folder, ".tiff2bit-*.tmp")
		if err != nil {
			return fmt.Errorf("create temp file in %s: %w", job.Folder, err)
		}
		target = tmp.Name()
		_ = tmp.Close()
		defer os.Remove(target)
	} else if err := os.Remove(job.Destination); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing %s: %w", job.Destination, err)
	}

	dst, err := tiffio.Create(target, out)
	if err != nil {
		return fmt.Errorf("create %s: %w", job.Destination, err)
	}

	in := make([]byte, codec.InputSize(depth, meta.Width))
	line := make([]byte, codec.OutputSize(meta.Width))
	for row := 0; row < meta.Height; row++ {
		if err := src.ReadScanline(in, row); err != nil {
			_ = dst.Close()
			return fmt.Errorf("read %s row %d: %w", job.Source, row, err)
		}
		if err := d.codec.Transform(line, in, depth, copts); err != nil {
			_ = dst.Close()
			return fmt.Errorf("convert %s row %d: %w", job.Source, row, err)
		}
		if err := dst.WriteScanline(line, row); err != nil {
			_ = dst.Close()
			return fmt.Errorf("write %s row %d: %w", job.Destination, row, err)
		}
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("write %s: %w", job.Destination, err)
	}

	if d.opts.Atomic {
		if err := replaceFile(target, job.Destination); err != nil {
			return fmt.Errorf("rename into %s: %w", job.Destination, err)
		}
	}
	return nil
}

// deriveOutput computes the output metadata and codec options for a source.
// fellBack reports that the source compression could not be reproduced.
func deriveOutput(meta tiffio.Metadata, opts Options) (out tiffio.Metadata, copts codec.Options, fellBack bool) {
	out = tiffio.Metadata{
		Width:           meta.Width,
		Height:          meta.Height,
		BitsPerSample:   2,
		SamplesPerPixel: 1,
		Photometric:     meta.Photometric,
		Compression:     meta.Compression,
		RowsPerStrip:    meta.RowsPerStrip,
		Resolution:      meta.Resolution,
		ResolutionUnit:  meta.ResolutionUnit,
	}
	copts = codec.Options{Pattern: opts.Pattern, Invert: opts.Invert}

	// BlackIsZero sources are re-labelled WhiteIsZero and their codes
	// complemented, so the rendered image keeps its tones.
	if meta.Photometric == tiffio.PhotometricBlackIsZero {
		copts.Invert = !copts.Invert
		out.Photometric = tiffio.PhotometricWhiteIsZero
	}

	switch {
	case meta.Compression == tiffio.CompressionNone:
		out.Compression = tiffio.CompressionDeflateOld
	case !tiffio.WritableCompression(meta.Compression):
		out.Compression = tiffio.CompressionDeflateOld
		fellBack = true
	}

	if r := opts.Resolution; r != nil {
		if r.X > 0 {
			out.Resolution.X = r.X
		}
		if r.Y > 0 {
			out.Resolution.Y = r.Y
		}
	}
	return out, copts, fellBack
}
