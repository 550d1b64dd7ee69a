package imgutil

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a TIFF flavour.
type Kind int

const (
	KindUnknown Kind = iota
	KindTIFF
	KindBigTIFF
)

func (k Kind) String() string {
	switch k {
	case KindTIFF:
		return "tiff"
	case KindBigTIFF:
		return "bigtiff"
	default:
		return "unknown"
	}
}

var (
	tiffSigLE    = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE    = []byte{0x4d, 0x4d, 0x00, 0x2a}
	bigTiffSigLE = []byte{0x49, 0x49, 0x2b, 0x00}
	bigTiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2b}
)

// HeaderSize is the number of bytes DetectHeader needs.
const HeaderSize = 8

// DetectHeader inspects the first 8 bytes of a file and reports its kind and
// byte order. The byte order is nil for KindUnknown.
func DetectHeader(header []byte) (Kind, binary.ByteOrder, error) {
	if len(header) < HeaderSize {
		return KindUnknown, nil, errors.New("header too short")
	}

	switch {
	case hasPrefix(header, tiffSigLE):
		return KindTIFF, binary.LittleEndian, nil
	case hasPrefix(header, tiffSigBE):
		return KindTIFF, binary.BigEndian, nil
	case hasPrefix(header, bigTiffSigLE):
		return KindBigTIFF, binary.LittleEndian, nil
	case hasPrefix(header, bigTiffSigBE):
		return KindBigTIFF, binary.BigEndian, nil
	}

	return KindUnknown, nil, nil
}

// SniffFile reads the first 8 bytes of a file to determine its kind.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	kind, _, err := SniffReader(f)
	return kind, err
}

// SniffReader reads the first 8 bytes from r and determines its kind.
func SniffReader(r io.Reader) (Kind, binary.ByteOrder, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return KindUnknown, nil, err
	}

	return DetectHeader(header)
}

// HasTIFFExt reports whether path carries a .tif or .tiff extension.
func HasTIFFExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
