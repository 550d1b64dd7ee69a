// Package codec re-packs single-channel scanlines of 1, 2 or 8 bits per
// sample into 2 bits per sample.
//
// Kernels operate on whole lanes (see [Lane]); callers size buffers with
// [InputSize] and [OutputSize] so that a scanline whose width is not a
// multiple of [LanePixels] is padded up to the next lane. Padding bytes are
// converted like any other data and are dropped by the container when the
// true width is written.
package codec

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrBufferSize is returned when dst cannot hold the lanes present in src.
var ErrBufferSize = errors.New("scanline buffer too small")

// Options controls one conversion. It is read-only for the duration of a
// batch.
type Options struct {
	Pattern Pattern
	Invert  bool
}

// minParallelLanes is the scanline size below which fan-out costs more than
// it saves.
const minParallelLanes = 4096

// Codec runs the kernels, splitting long scanlines across Workers
// goroutines. The zero value runs serially.
type Codec struct {
	Workers int
}

// New returns a Codec using every available CPU for long scanlines.
func New() *Codec {
	return &Codec{Workers: runtime.NumCPU()}
}

// Transform converts one scanline with a serial Codec.
func Transform(dst, src []byte, depth PixelDepth, opts Options) error {
	return (&Codec{}).Transform(dst, src, depth, opts)
}

// Transform converts src, a padded scanline at depth, into dst at 2 bits per
// sample. For a 2-bit source without inversion dst may alias src, in which
// case nothing is copied.
func (c *Codec) Transform(dst, src []byte, depth PixelDepth, opts Options) error {
	if depth < DepthOne || depth > DepthEight {
		return fmt.Errorf("%w: %d", ErrUnsupportedDepth, depth.Bits())
	}
	per := inLaneBytes(depth)
	if len(src)%per != 0 {
		return fmt.Errorf("%w: source of %d bytes is not a multiple of %d (see InputSize)", ErrBufferSize, len(src), per)
	}
	lanes := len(src) / per
	if len(dst) < lanes*LaneBytes {
		return fmt.Errorf("%w: %d bytes for %d lanes", ErrBufferSize, len(dst), lanes)
	}

	var kernel func(lo, hi int)
	switch depth {
	case DepthOne:
		kernel = func(lo, hi int) { convert1(dst, src, lo, hi, opts) }
	case DepthTwo:
		if !opts.Invert {
			if lanes > 0 && &dst[0] != &src[0] {
				copy(dst, src[:lanes*LaneBytes])
			}
			return nil
		}
		kernel = func(lo, hi int) { convert2(dst, src, lo, hi) }
	case DepthEight:
		kernel = func(lo, hi int) { convert8(dst, src, lo, hi, opts.Invert) }
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedDepth, depth.Bits())
	}

	c.run(lanes, kernel)
	return nil
}

// Convert1Bit spreads a 1-bit scanline into 2-bit codes.
func Convert1Bit(dst, src []byte, opts Options) error {
	return Transform(dst, src, DepthOne, opts)
}

// Convert2Bit copies a 2-bit scanline, complementing it when inverting.
func Convert2Bit(dst, src []byte, invert bool) error {
	return Transform(dst, src, DepthTwo, Options{Invert: invert})
}

// Convert8Bit quantizes an 8-bit scanline to its two most significant bits.
func Convert8Bit(dst, src []byte, invert bool) error {
	return Transform(dst, src, DepthEight, Options{Invert: invert})
}

func (c *Codec) run(lanes int, kernel func(lo, hi int)) {
	workers := c.Workers
	if workers <= 1 || lanes < minParallelLanes {
		kernel(0, lanes)
		return
	}
	if limit := lanes / (minParallelLanes / 4); workers > limit {
		workers = limit
	}

	chunk := (lanes + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < lanes; lo += chunk {
		hi := lo + chunk
		if hi > lanes {
			hi = lanes
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			kernel(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// convert1 handles lanes [lo, hi) of a 1-bit source: 4 source bytes per lane.
func convert1(dst, src []byte, lo, hi int, opts Options) {
	for i := lo; i < hi; i++ {
		in := src[i*4:]
		word := uint32(in[0]) | uint32(in[1])<<8 | uint32(in[2])<<16 | uint32(in[3])<<24
		spread := deposit(word)

		high, low := spread, spread
		if opts.Pattern == LowBit {
			high = 0
		}
		if opts.Pattern == HighBit {
			low = 0
		}

		// The spread puts the low nibble of each source byte in the first
		// output byte of its pair, so the pair is swapped back into
		// scanline order.
		out := (high<<1 | low).swapBytePairs()
		if opts.Invert {
			out ^= allOnes
		}
		out.store(dst[i*LaneBytes:])
	}
}

func convert2(dst, src []byte, lo, hi int) {
	for i := lo; i < hi; i++ {
		(loadLane(src[i*LaneBytes:]) ^ allOnes).store(dst[i*LaneBytes:])
	}
}

// convert8 handles lanes [lo, hi) of an 8-bit source: 32 source bytes per
// lane. Pass j gathers the j-th sample of every 4-sample group, shifts its top
// two bits into slot j and masks the slot.
func convert8(dst, src []byte, lo, hi int, invert bool) {
	for i := lo; i < hi; i++ {
		block := src[i*LanePixels:]
		var out Lane
		for j := 0; j < groupSize; j++ {
			shift := uint(2 * j)
			out |= (gather(block, j) >> shift) & (topTwo >> shift)
		}
		if invert {
			out ^= allOnes
		}
		out.store(dst[i*LaneBytes:])
	}
}
