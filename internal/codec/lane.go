package codec

import "encoding/binary"

// Lane is eight packed output bytes loaded little-endian. Every kernel
// produces exactly one Lane (32 output pixels at 2 bits) per iteration, so a
// lane always covers 32 pixels regardless of the source depth.
type Lane uint64

const (
	// LaneBytes is the size of one output lane.
	LaneBytes = 8
	// LanePixels is the number of pixels covered by one lane.
	LanePixels = 32
)

const (
	evenBits Lane = 0x5555555555555555
	allOnes  Lane = 0xFFFFFFFFFFFFFFFF
	topTwo   Lane = 0xC0C0C0C0C0C0C0C0
	spread16 Lane = 0x0000FFFF0000FFFF
	spread8  Lane = 0x00FF00FF00FF00FF
	spread4  Lane = 0x0F0F0F0F0F0F0F0F
	spread2  Lane = 0x3333333333333333
)

// groupSize is the number of 8-bit samples folded into one output byte.
const groupSize = 4

func loadLane(b []byte) Lane {
	return Lane(binary.LittleEndian.Uint64(b))
}

func (l Lane) store(b []byte) {
	binary.LittleEndian.PutUint64(b, uint64(l))
}

// deposit places bit k of v at bit 2k of the result and leaves every odd bit
// position zero.
func deposit(v uint32) Lane {
	x := Lane(v)
	x = (x | x<<16) & spread16
	x = (x | x<<8) & spread8
	x = (x | x<<4) & spread4
	x = (x | x<<2) & spread2
	x = (x | x<<1) & evenBits
	return x
}

// swapBytePairs exchanges bytes 0<->1, 2<->3, 4<->5 and 6<->7.
func (l Lane) swapBytePairs() Lane {
	return (l&spread8)<<8 | (l>>8)&spread8
}

// gather collects byte j of every 4-byte group in b (32 bytes) into one lane.
func gather(b []byte, j int) Lane {
	var l Lane
	for k := 0; k < LaneBytes; k++ {
		l |= Lane(b[k*groupSize+j]) << (8 * k)
	}
	return l
}

// inLaneBytes returns the number of source bytes consumed per output lane.
func inLaneBytes(d PixelDepth) int {
	return LanePixels * d.Bits() / 8
}

// Lanes returns the number of lanes needed to cover width pixels.
func Lanes(width int) int {
	return (width + LanePixels - 1) / LanePixels
}

// InputSize returns the padded source buffer size for a scanline.
func InputSize(d PixelDepth, width int) int {
	return Lanes(width) * inLaneBytes(d)
}

// OutputSize returns the padded 2-bit output buffer size for a scanline.
func OutputSize(width int) int {
	return Lanes(width) * LaneBytes
}
