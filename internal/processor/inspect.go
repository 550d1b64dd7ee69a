package processor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/tiffio"
	"tiff2bit/pkg/imgutil"
)

// Tag is one IFD entry as decoded by the EXIF tag index.
type Tag struct {
	IFD   string
	ID    uint16
	Name  string
	Value string
}

// Inspection describes a source file and what converting it would produce.
type Inspection struct {
	Path        string
	Kind        imgutil.Kind
	Meta        tiffio.Metadata
	Output      tiffio.Metadata
	Convertible bool
	Reason      string
	Tags        []Tag
}

// Inspect reads the container metadata and full tag list of path.
// Problems that would stop a conversion are reported in Reason, not as an
// error.
func Inspect(path string, opts Options) (Inspection, error) {
	in := Inspection{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return in, err
	}
	defer f.Close()

	kind, _, err := imgutil.SniffReader(f)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return in, err
	}
	in.Kind = kind
	if kind != imgutil.KindTIFF {
		in.Reason = fmt.Sprintf("not a classic TIFF (%s)", kind)
		return in, nil
	}

	r, err := tiffio.NewReader(f)
	if err != nil {
		in.Reason = err.Error()
		return in, nil
	}
	in.Meta = r.Meta()

	switch _, err := codec.ParseDepth(in.Meta.BitsPerSample); {
	case err != nil:
		in.Reason = (&DepthError{Path: path, Bits: in.Meta.BitsPerSample}).Error()
	case in.Meta.SamplesPerPixel != 1:
		in.Reason = fmt.Sprintf("%d samples per pixel", in.Meta.SamplesPerPixel)
	default:
		in.Convertible = true
		in.Output, _, _ = deriveOutput(in.Meta, opts)
	}

	tags, err := InspectTags(f)
	if err != nil {
		return in, err
	}
	in.Tags = tags
	return in, nil
}

// InspectTags lists every tag of the first IFDs of a TIFF stream.
func InspectTags(rs io.ReadSeeker) ([]Tag, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	entries, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return nil, nil
		}
		return nil, err
	}

	tags := make([]Tag, 0, len(entries))
	for _, e := range entries {
		value := e.Formatted
		if len(value) > 64 {
			value = value[:61] + "..."
		}
		tags = append(tags, Tag{IFD: e.IfdPath, ID: e.TagId, Name: e.TagName, Value: value})
	}
	return tags, nil
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
