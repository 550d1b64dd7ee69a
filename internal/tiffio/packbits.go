package tiffio

import (
	"fmt"
	"io"
)

// unpackBits expands a PackBits stream until n bytes have been produced.
func unpackBits(src []byte, n int) ([]byte, error) {
	dst := make([]byte, 0, n)
	for i := 0; i < len(src) && len(dst) < n; {
		c := int8(src[i])
		i++
		switch {
		case c >= 0:
			l := int(c) + 1
			if i+l > len(src) {
				return nil, fmt.Errorf("%w: literal run past end of strip", ErrCorrupt)
			}
			dst = append(dst, src[i:i+l]...)
			i += l
		case c != -128:
			if i >= len(src) {
				return nil, fmt.Errorf("%w: repeat run past end of strip", ErrCorrupt)
			}
			b := src[i]
			i++
			for k := 1 - int(c); k > 0; k-- {
				dst = append(dst, b)
			}
		}
	}
	if len(dst) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return dst[:n], nil
}

// packBits appends the PackBits encoding of src to dst.
func packBits(dst, src []byte) []byte {
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && run < 128 && src[i+run] == src[i] {
			run++
		}
		if run >= 2 {
			dst = append(dst, byte(1-run), src[i])
			i += run
			continue
		}

		start := i
		i++
		for i < len(src) && i-start < 128 {
			if i+2 < len(src) && src[i] == src[i+1] && src[i] == src[i+2] {
				break
			}
			i++
		}
		dst = append(dst, byte(i-start-1))
		dst = append(dst, src[start:i]...)
	}
	return dst
}
