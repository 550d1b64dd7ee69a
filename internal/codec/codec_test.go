package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

// pixel returns the value of pixel x in an MSB-first packed scanline.
func pixel(row []byte, bits, x int) byte {
	bit := x * bits
	shift := 8 - bits - bit%8
	return (row[bit/8] >> uint(shift)) & byte(1<<uint(bits)-1)
}

// reference converts one pixel the slow way.
func reference(src []byte, depth PixelDepth, x int, opts Options) byte {
	v := pixel(src, depth.Bits(), x)
	var code byte
	switch depth {
	case DepthOne:
		if v != 0 {
			code = opts.Pattern.Code()
		}
	case DepthTwo:
		code = v
	case DepthEight:
		code = v >> 6
	}
	if opts.Invert {
		code ^= 0b11
	}
	return code
}

func randomScanline(rng *rand.Rand, depth PixelDepth, width int, pad byte) []byte {
	buf := make([]byte, InputSize(depth, width))
	for i := range buf {
		buf[i] = pad
	}
	rng.Read(buf[:depth.RowBytes(width)])
	return buf
}

func TestDeposit(t *testing.T) {
	tests := []struct {
		in   uint32
		want Lane
	}{
		{0, 0},
		{1, 1},
		{0b101, 0b10001},
		{0x80000000, 1 << 62},
		{0xFFFFFFFF, evenBits},
		{0x0000FFFF, 0x0000000055555555},
	}
	for _, tt := range tests {
		if got := deposit(tt.in); got != tt.want {
			t.Errorf("deposit(%#x) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestSwapBytePairs(t *testing.T) {
	in := Lane(0x0807060504030201)
	want := Lane(0x0708050603040102)
	if got := in.swapBytePairs(); got != want {
		t.Fatalf("swapBytePairs = %#x, want %#x", got, want)
	}
	if got := in.swapBytePairs().swapBytePairs(); got != in {
		t.Fatalf("double swap = %#x, want %#x", got, in)
	}
}

// TestOneBitSpreadOrder checks that the first pixel of the scanline lands in
// the top two bits of the first output byte.
func TestOneBitSpreadOrder(t *testing.T) {
	src := []byte{0x80, 0x00, 0x00, 0x01}
	dst := make([]byte, OutputSize(32))
	if err := Convert1Bit(dst, src, Options{Pattern: BothBits}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xC0, 0, 0, 0, 0, 0, 0, 0x03}
	if !bytes.Equal(dst, want) {
		t.Fatalf("got % x, want % x", dst, want)
	}
}

func TestOneBitMappingTable(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		ink     byte
		invert  bool
		want    byte
	}{
		{"low ink", LowBit, 0xFF, false, 0x55},
		{"high ink", HighBit, 0xFF, false, 0xAA},
		{"both ink", BothBits, 0xFF, false, 0xFF},
		{"low background", LowBit, 0x00, false, 0x00},
		{"high background", HighBit, 0x00, false, 0x00},
		{"both background", BothBits, 0x00, false, 0x00},
		{"low ink inverted", LowBit, 0xFF, true, 0xAA},
		{"high ink inverted", HighBit, 0xFF, true, 0x55},
		{"both ink inverted", BothBits, 0xFF, true, 0x00},
		{"background inverted", LowBit, 0x00, true, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := bytes.Repeat([]byte{tt.ink}, InputSize(DepthOne, 96))
			dst := make([]byte, OutputSize(96))
			if err := Convert1Bit(dst, src, Options{Pattern: tt.pattern, Invert: tt.invert}); err != nil {
				t.Fatal(err)
			}
			for i, b := range dst {
				if b != tt.want {
					t.Fatalf("byte %d = %#02x, want %#02x", i, b, tt.want)
				}
			}
		})
	}
}

func TestTwoBitPassThrough(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	src := randomScanline(rng, DepthTwo, 203, 0)
	orig := append([]byte(nil), src...)

	dst := make([]byte, OutputSize(203))
	if err := Convert2Bit(dst, src, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, orig) {
		t.Fatal("2-bit pass-through changed the plane")
	}

	// In-place forwarding must leave the buffer untouched.
	if err := Convert2Bit(src, src, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(src, orig) {
		t.Fatal("in-place pass-through changed the plane")
	}
}

func TestDoubleInvert(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const width = 150

	for _, depth := range []PixelDepth{DepthOne, DepthTwo, DepthEight} {
		for _, pattern := range []Pattern{LowBit, HighBit, BothBits} {
			t.Run(depth.String()+"/"+pattern.String(), func(t *testing.T) {
				src := randomScanline(rng, depth, width, 0)

				plain := make([]byte, OutputSize(width))
				if err := Transform(plain, src, depth, Options{Pattern: pattern}); err != nil {
					t.Fatal(err)
				}

				once := make([]byte, OutputSize(width))
				if err := Transform(once, src, depth, Options{Pattern: pattern, Invert: true}); err != nil {
					t.Fatal(err)
				}
				twice := make([]byte, OutputSize(width))
				if err := Transform(twice, once, DepthTwo, Options{Invert: true}); err != nil {
					t.Fatal(err)
				}

				if !bytes.Equal(twice, plain) {
					t.Fatalf("double invert mismatch\n got % x\nwant % x", twice, plain)
				}
			})
		}
	}
}

func TestEightBitQuantization(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const width = LanePixels

	for s := 0; s < 256; s++ {
		for slot := 0; slot < groupSize; slot++ {
			src := randomScanline(rng, DepthEight, width, 0)
			pos := rng.Intn(width/groupSize)*groupSize + slot
			src[pos] = byte(s)

			dst := make([]byte, OutputSize(width))
			if err := Convert8Bit(dst, src, false); err != nil {
				t.Fatal(err)
			}
			if got, want := pixel(dst, 2, pos), byte(s>>6); got != want {
				t.Fatalf("sample %d at %d: code %d, want %d", s, pos, got, want)
			}
		}
	}
}

func TestWidthPadding(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for _, depth := range []PixelDepth{DepthOne, DepthTwo, DepthEight} {
		for width := 1; width <= 2*LanePixels+7; width++ {
			opts := Options{Pattern: Pattern(width % 3), Invert: width%2 == 0}

			clean := randomScanline(rng, depth, width, 0x00)
			dirty := append([]byte(nil), clean...)
			for i := depth.RowBytes(width); i < len(dirty); i++ {
				dirty[i] = 0xFF
			}
			// Stray bits after the last pixel inside the final byte.
			if extra := (width * depth.Bits()) % 8; extra != 0 {
				dirty[depth.RowBytes(width)-1] |= 0xFF >> uint(extra)
			}

			for _, src := range [][]byte{clean, dirty} {
				dst := make([]byte, OutputSize(width))
				if err := Transform(dst, src, depth, opts); err != nil {
					t.Fatal(err)
				}
				for x := 0; x < width; x++ {
					if got, want := pixel(dst, 2, x), reference(clean, depth, x, opts); got != want {
						t.Fatalf("%s width %d pixel %d: got %02b, want %02b", depth, width, x, got, want)
					}
				}
			}
		}
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	width := (minParallelLanes*3 + 5) * LanePixels

	for _, depth := range []PixelDepth{DepthOne, DepthTwo, DepthEight} {
		src := randomScanline(rng, depth, width, 0)
		opts := Options{Pattern: HighBit, Invert: true}

		serial := make([]byte, OutputSize(width))
		if err := Transform(serial, src, depth, opts); err != nil {
			t.Fatal(err)
		}
		parallel := make([]byte, OutputSize(width))
		if err := (&Codec{Workers: 4}).Transform(parallel, src, depth, opts); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(serial, parallel) {
			t.Fatalf("%s: parallel output differs from serial", depth)
		}
	}
}

func TestTransformBufferTooSmall(t *testing.T) {
	src := make([]byte, InputSize(DepthOne, 64))
	dst := make([]byte, OutputSize(64)-1)
	err := Convert1Bit(dst, src, Options{})
	if !errors.Is(err, ErrBufferSize) {
		t.Fatalf("err = %v, want ErrBufferSize", err)
	}
}

func TestTransformUnpaddedSource(t *testing.T) {
	for _, depth := range []PixelDepth{DepthOne, DepthTwo, DepthEight} {
		const width = 45
		src := make([]byte, depth.RowBytes(width))
		dst := make([]byte, OutputSize(width))
		if err := Transform(dst, src, depth, Options{}); !errors.Is(err, ErrBufferSize) {
			t.Errorf("%s: err = %v, want ErrBufferSize", depth, err)
		}
	}
}

func TestTransformRejectsUnknownDepth(t *testing.T) {
	err := Transform(make([]byte, 8), make([]byte, 8), PixelDepth(7), Options{})
	if !errors.Is(err, ErrUnsupportedDepth) {
		t.Fatalf("err = %v, want ErrUnsupportedDepth", err)
	}
}
