package tiffio

// Baseline and extension tags read or written by this package.
const (
	tagImageWidth      uint16 = 256
	tagImageLength     uint16 = 257
	tagBitsPerSample   uint16 = 258
	tagCompression     uint16 = 259
	tagPhotometric     uint16 = 262
	tagFillOrder       uint16 = 266
	tagStripOffsets    uint16 = 273
	tagSamplesPerPixel uint16 = 277
	tagRowsPerStrip    uint16 = 278
	tagStripByteCounts uint16 = 279
	tagXResolution     uint16 = 282
	tagYResolution     uint16 = 283
	tagPlanarConfig    uint16 = 284
	tagT4Options       uint16 = 292
	tagResolutionUnit  uint16 = 296
	tagPredictor       uint16 = 317
	tagTileWidth       uint16 = 322
	tagTileOffsets     uint16 = 324
)

// Field types.
const (
	typeByte      uint16 = 1
	typeASCII     uint16 = 2
	typeShort     uint16 = 3
	typeLong      uint16 = 4
	typeRational  uint16 = 5
	typeUndefined uint16 = 7
)

var typeSize = map[uint16]uint32{
	typeByte:      1,
	typeASCII:     1,
	typeShort:     2,
	typeLong:      4,
	typeRational:  8,
	typeUndefined: 1,
	6:             1, // SBYTE
	8:             2, // SSHORT
	9:             4, // SLONG
	10:            8, // SRATIONAL
	11:            4, // FLOAT
	12:            8, // DOUBLE
}

// Compression codes.
const (
	CompressionNone       uint16 = 1
	CompressionCCITTRLE   uint16 = 2
	CompressionG3         uint16 = 3
	CompressionG4         uint16 = 4
	CompressionLZW        uint16 = 5
	CompressionOldJPEG    uint16 = 6
	CompressionJPEG       uint16 = 7
	CompressionDeflate    uint16 = 8
	CompressionPackBits   uint16 = 32773
	CompressionDeflateOld uint16 = 32946
)

// Photometric interpretations relevant to single-channel images.
const (
	PhotometricWhiteIsZero uint16 = 0
	PhotometricBlackIsZero uint16 = 1
)

const (
	PlanarChunky uint16 = 1

	FillOrderMSB uint16 = 1
	FillOrderLSB uint16 = 2

	PredictorNone       uint16 = 1
	PredictorHorizontal uint16 = 2

	ResolutionUnitInch uint16 = 2
)

// CompressionName returns a short label for a compression code.
func CompressionName(c uint16) string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionCCITTRLE:
		return "ccitt-rle"
	case CompressionG3:
		return "ccitt-g3"
	case CompressionG4:
		return "ccitt-g4"
	case CompressionLZW:
		return "lzw"
	case CompressionOldJPEG, CompressionJPEG:
		return "jpeg"
	case CompressionDeflate, CompressionDeflateOld:
		return "deflate"
	case CompressionPackBits:
		return "packbits"
	default:
		return "unknown"
	}
}

// PhotometricName returns a short label for a photometric interpretation.
func PhotometricName(p uint16) string {
	switch p {
	case PhotometricWhiteIsZero:
		return "min-is-white"
	case PhotometricBlackIsZero:
		return "min-is-black"
	case 2:
		return "rgb"
	case 3:
		return "palette"
	case 4:
		return "mask"
	default:
		return "other"
	}
}
