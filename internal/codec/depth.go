package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedDepth is returned for source bit depths other than 1, 2 and 8.
var ErrUnsupportedDepth = errors.New("unsupported sample depth")

// PixelDepth is the number of bits used by one source sample.
type PixelDepth int

const (
	DepthOne PixelDepth = iota
	DepthTwo
	DepthEight
)

// ParseDepth maps a bits-per-sample value onto a PixelDepth.
func ParseDepth(bits uint16) (PixelDepth, error) {
	switch bits {
	case 1:
		return DepthOne, nil
	case 2:
		return DepthTwo, nil
	case 8:
		return DepthEight, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bits)
	}
}

// Bits returns the number of bits per sample.
func (d PixelDepth) Bits() int {
	switch d {
	case DepthOne:
		return 1
	case DepthTwo:
		return 2
	default:
		return 8
	}
}

func (d PixelDepth) String() string {
	return strconv.Itoa(d.Bits()) + "-bit"
}

// RowBytes returns the packed byte length of a scanline of width pixels.
func (d PixelDepth) RowBytes(width int) int {
	return (width*d.Bits() + 7) / 8
}

// Pattern selects the 2-bit code written for a set (ink) pixel of a 1-bit
// source. Unset pixels always map to 00.
type Pattern int

const (
	LowBit   Pattern = iota // 01
	HighBit                 // 10
	BothBits                // 11
)

// PatternFromValue maps the legacy integer selector: 1 is LowBit, 2 is
// HighBit, anything else is BothBits.
func PatternFromValue(v int) Pattern {
	switch v {
	case 1:
		return LowBit
	case 2:
		return HighBit
	default:
		return BothBits
	}
}

// ParsePattern accepts "low", "high", "both" or an integer selector.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "lowbit", "01":
		return LowBit, nil
	case "high", "highbit", "10":
		return HighBit, nil
	case "both", "bothbits", "11":
		return BothBits, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return BothBits, fmt.Errorf("invalid target pattern %q (use low, high, both or an integer)", s)
	}
	return PatternFromValue(n), nil
}

// Code returns the 2-bit code for an ink pixel.
func (p Pattern) Code() byte {
	switch p {
	case LowBit:
		return 0b01
	case HighBit:
		return 0b10
	default:
		return 0b11
	}
}

func (p Pattern) String() string {
	switch p {
	case LowBit:
		return "low"
	case HighBit:
		return "high"
	default:
		return "both"
	}
}
