package processor

import (
	"errors"
	"fmt"
	"time"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/tiffio"
)

// OutputFolderName is the sibling folder used when no output directory is
// given.
const OutputFolderName = "Output_2Bit"

var (
	ErrSameFile        = errors.New("output path resolves to input path")
	ErrSamplesPerPixel = errors.New("unsupported samples per pixel")
)

// Options is the immutable per-batch conversion configuration.
type Options struct {
	OutputDir  string
	Pattern    codec.Pattern
	Invert     bool
	Resolution *tiffio.Resolution // nil keeps the source resolution
	OpenOutput bool
	Workers    int  // <= 0 means runtime.NumCPU()
	Atomic     bool // write to a temp file and rename on success
}

type Job struct {
	Index       int
	Source      string
	Destination string
	Folder      string
}

type Status int

const (
	StatusSkipped Status = iota
	StatusConverted
	StatusUnsupported
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusUnsupported:
		return "unsupported"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

type Result struct {
	Job
	Status      Status
	Err         error
	SourceBits  uint16
	Width       int
	Height      int
	Compression uint16
	Duration    time.Duration
}

type Summary struct {
	Total       int
	Converted   int
	Unsupported int
	Failed      int
	Skipped     int
	Folders     []string
	Results     []Result
	Elapsed     time.Duration
}

// Started is the number of jobs that ran to completion or failure.
func (s Summary) Started() int {
	return s.Converted + s.Unsupported + s.Failed
}

type UpdateKind int

const (
	UpdateProgress UpdateKind = iota
	UpdateDiagnostic
	UpdateFinished
)

// ProgressUpdate is sent to observers while a batch runs. Progress updates
// carry a non-decreasing Percent; Diagnostic updates carry a per-file
// Message; exactly one Finished update ends every Run.
type ProgressUpdate struct {
	Kind    UpdateKind
	Percent int
	Done    int
	Total   int
	Path    string
	Message string
}

// DepthError reports a source whose bits per sample the codec cannot handle.
type DepthError struct {
	Path string
	Bits uint16
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("unsupported sample depth %d in file %s", e.Bits, e.Path)
}

func (e *DepthError) Unwrap() error { return codec.ErrUnsupportedDepth }
