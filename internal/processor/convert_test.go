package processor

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/tiffio"
)

func TestDeriveOutputCompression(t *testing.T) {
	tests := []struct {
		in       uint16
		want     uint16
		fellBack bool
	}{
		{tiffio.CompressionNone, tiffio.CompressionDeflateOld, false},
		{tiffio.CompressionPackBits, tiffio.CompressionPackBits, false},
		{tiffio.CompressionDeflate, tiffio.CompressionDeflate, false},
		{tiffio.CompressionDeflateOld, tiffio.CompressionDeflateOld, false},
		{tiffio.CompressionLZW, tiffio.CompressionLZW, false},
		{tiffio.CompressionG3, tiffio.CompressionDeflateOld, true},
		{tiffio.CompressionG4, tiffio.CompressionDeflateOld, true},
		{tiffio.CompressionJPEG, tiffio.CompressionDeflateOld, true},
	}
	for _, tt := range tests {
		out, _, fellBack := deriveOutput(tiffio.Metadata{Width: 1, Height: 1, BitsPerSample: 1, Compression: tt.in}, Options{})
		if out.Compression != tt.want || fellBack != tt.fellBack {
			t.Errorf("compression %d -> %d (fallback %v), want %d (%v)", tt.in, out.Compression, fellBack, tt.want, tt.fellBack)
		}
	}
}

func TestDeriveOutputKeepsStripLayout(t *testing.T) {
	src := tiffio.Metadata{Width: 40, Height: 9, BitsPerSample: 8, Compression: tiffio.CompressionLZW, RowsPerStrip: 1}
	out, _, _ := deriveOutput(src, Options{})
	if out.RowsPerStrip != 1 || out.Width != 40 || out.Height != 9 || out.BitsPerSample != 2 {
		t.Errorf("output = %+v", out)
	}
}

func TestDeriveOutputPhotometric(t *testing.T) {
	tests := []struct {
		photometric uint16
		invert      bool
		wantPhoto   uint16
		wantInvert  bool
	}{
		{tiffio.PhotometricWhiteIsZero, false, tiffio.PhotometricWhiteIsZero, false},
		{tiffio.PhotometricWhiteIsZero, true, tiffio.PhotometricWhiteIsZero, true},
		{tiffio.PhotometricBlackIsZero, false, tiffio.PhotometricWhiteIsZero, true},
		{tiffio.PhotometricBlackIsZero, true, tiffio.PhotometricWhiteIsZero, false},
		{4, false, 4, false},
	}
	for _, tt := range tests {
		out, copts, _ := deriveOutput(tiffio.Metadata{Photometric: tt.photometric}, Options{Invert: tt.invert, Pattern: codec.HighBit})
		if out.Photometric != tt.wantPhoto || copts.Invert != tt.wantInvert || copts.Pattern != codec.HighBit {
			t.Errorf("photometric %d invert %v -> %d/%+v", tt.photometric, tt.invert, out.Photometric, copts)
		}
	}
}

func TestDeriveOutputResolution(t *testing.T) {
	src := tiffio.Metadata{Resolution: tiffio.Resolution{X: 300, Y: 300}, ResolutionUnit: 3}
	tests := []struct {
		override *tiffio.Resolution
		want     tiffio.Resolution
	}{
		{nil, tiffio.Resolution{X: 300, Y: 300}},
		{&tiffio.Resolution{X: 600}, tiffio.Resolution{X: 600, Y: 300}},
		{&tiffio.Resolution{X: 400, Y: 200}, tiffio.Resolution{X: 400, Y: 200}},
		{&tiffio.Resolution{X: -1, Y: 0}, tiffio.Resolution{X: 300, Y: 300}},
	}
	for _, tt := range tests {
		out, _, _ := deriveOutput(src, Options{Resolution: tt.override})
		if out.Resolution != tt.want || out.ResolutionUnit != 3 {
			t.Errorf("override %+v -> %+v unit %d", tt.override, out.Resolution, out.ResolutionUnit)
		}
	}
}

func TestResolveDestination(t *testing.T) {
	dest, folder := resolveDestination(filepath.Join("scans", "p1.tif"), "")
	if folder != filepath.Join("scans", OutputFolderName) || dest != filepath.Join(folder, "p1.tif") {
		t.Errorf("sibling policy = %s, %s", dest, folder)
	}
	dest, folder = resolveDestination(filepath.Join("scans", "p1.tif"), "out")
	if folder != "out" || dest != filepath.Join("out", "p1.tif") {
		t.Errorf("explicit policy = %s, %s", dest, folder)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"b.tif",
		"a.TIFF",
		"notes.txt",
		filepath.Join("sub", "c.tif"),
		filepath.Join(OutputFolderName, "a.TIFF"),
		filepath.Join("out", "x.tif"),
	}
	for _, f := range files {
		p := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	explicit := filepath.Join(dir, "notes.txt")

	got, err := Discover([]string{dir, explicit, filepath.Join(dir, "b.tif"), filepath.Join(dir, "gone.tif")}, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.TIFF"),
		filepath.Join(dir, "b.tif"),
		filepath.Join(dir, "sub", "c.tif"),
		explicit,
		filepath.Join(dir, "gone.tif"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover = %v\nwant %v", got, want)
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join("a", "b")
	tests := map[string]bool{
		root:                          true,
		filepath.Join(root, "c"):      true,
		filepath.Join("a", "bc"):      false,
		filepath.Join("a"):            false,
		filepath.Join("a", "..b", ""): false,
	}
	for path, want := range tests {
		if got := isWithin(path, root); got != want {
			t.Errorf("isWithin(%q, %q) = %v, want %v", path, root, got, want)
		}
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tif")
	writeSource(t, good, 8, tiffio.PhotometricBlackIsZero, 12, 3, gradient)
	odd := filepath.Join(dir, "odd.tif")
	writeSource(t, odd, 4, tiffio.PhotometricWhiteIsZero, 12, 3, func(x, y int) uint8 { return 5 })
	text := filepath.Join(dir, "readme.tif")
	if err := os.WriteFile(text, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	in, err := Inspect(good, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !in.Convertible || in.Meta.BitsPerSample != 8 || in.Output.BitsPerSample != 2 {
		t.Fatalf("inspection = %+v", in)
	}
	if in.Output.Photometric != tiffio.PhotometricWhiteIsZero || in.Output.Compression != tiffio.CompressionDeflateOld {
		t.Errorf("derived output = %+v", in.Output)
	}
	foundWidth := false
	for _, tag := range in.Tags {
		if tag.ID == 256 {
			foundWidth = true
		}
	}
	if !foundWidth {
		t.Errorf("ImageWidth missing from tags %+v", in.Tags)
	}

	in, err = Inspect(odd, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if in.Convertible || in.Reason != "unsupported sample depth 4 in file "+odd {
		t.Errorf("odd inspection = %+v", in)
	}

	in, err = Inspect(text, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if in.Convertible || in.Reason == "" {
		t.Errorf("text inspection = %+v", in)
	}
}
