// Package config holds runtime configuration: defaults, environment
// overrides and validation. Flags are bound onto a Config by the cmd package.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/logging"
	"tiff2bit/internal/processor"
	"tiff2bit/internal/tiffio"
)

// Environment variables consulted by ApplyEnv, keyed by the flag they back.
var envFlags = map[string]string{
	"workers": "TIFF2BIT_WORKERS",
	"log":     "TIFF2BIT_LOG",
	"history": "TIFF2BIT_HISTORY",
	"output":  "TIFF2BIT_OUTPUT",
}

// Config holds all runtime settings. It is populated by DefaultConfig, then
// by flags and ApplyEnv, and checked by Validate before use.
type Config struct {
	// Paths.
	OutputDir string // Default: "" (Output_2Bit beside each source).

	// Conversion.
	Target     string // low, high, both or an integer. Default: "both".
	Invert     bool
	Resolution string // "X" or "XxY"; empty keeps the source resolution.
	OpenOutput bool
	Workers    int  // Default: runtime.NumCPU().
	Atomic     bool // Write through a temp file and rename.

	// Display and logging.
	Verbose    bool
	NoProgress bool
	ColorMode  logging.ColorMode // Default: "auto".
	LogFile    string
	HistoryDB  string

	// Watch.
	Schedule string // Default: "@every 1m".

	// Derived by Validate.
	pattern    codec.Pattern
	resolution *tiffio.Resolution
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		Target:    "both",
		Workers:   runtime.NumCPU(),
		ColorMode: logging.ColorAuto,
		Schedule:  "@every 1m",
		pattern:   codec.BothBits,
	}
}

// ApplyEnv fills settings from TIFF2BIT_* variables. changed reports whether
// the named flag was given on the command line; explicit flags win.
func (c *Config) ApplyEnv(changed func(flag string) bool) {
	skip := func(flag string) bool { return changed != nil && changed(flag) }
	if !skip("workers") {
		c.Workers = getEnvInt(envFlags["workers"], c.Workers)
	}
	if !skip("log") {
		c.LogFile = getEnv(envFlags["log"], c.LogFile)
	}
	if !skip("history") {
		c.HistoryDB = getEnv(envFlags["history"], c.HistoryDB)
	}
	if !skip("output") {
		c.OutputDir = getEnv(envFlags["output"], c.OutputDir)
	}
}

// Validate checks enum and numeric fields and derives the parsed pattern
// and resolution.
func (c *Config) Validate() error {
	pattern, err := codec.ParsePattern(c.Target)
	if err != nil {
		return err
	}
	c.pattern = pattern

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	mode, err := logging.ParseColorMode(string(c.ColorMode))
	if err != nil {
		return err
	}
	c.ColorMode = mode

	c.resolution = nil
	if strings.TrimSpace(c.Resolution) != "" {
		res, err := ParseResolution(c.Resolution)
		if err != nil {
			return err
		}
		c.resolution = res
	}
	if strings.TrimSpace(c.Schedule) == "" {
		return errors.New("schedule must not be empty")
	}
	return nil
}

// Pattern returns the ink code selected by Target. Valid after Validate.
func (c *Config) Pattern() codec.Pattern { return c.pattern }

// Options converts the configuration into dispatcher options. Call
// Validate first.
func (c *Config) Options() processor.Options {
	return processor.Options{
		OutputDir:  c.OutputDir,
		Pattern:    c.pattern,
		Invert:     c.Invert,
		Resolution: c.resolution,
		OpenOutput: c.OpenOutput,
		Workers:    c.Workers,
		Atomic:     c.Atomic,
	}
}

// LoggingOptions returns the logger settings.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Color: c.ColorMode, File: c.LogFile, Verbose: c.Verbose}
}

// ParseResolution accepts "300" (both axes) or "300x600" (X then Y).
// A component of 0 leaves that axis unchanged.
func ParseResolution(raw string) (*tiffio.Resolution, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	xs, ys, pair := strings.Cut(s, "x")
	x, err := parseDPI(xs)
	if err != nil {
		return nil, fmt.Errorf("invalid resolution %q: %w", raw, err)
	}
	if !pair {
		return &tiffio.Resolution{X: x, Y: x}, nil
	}
	y, err := parseDPI(ys)
	if err != nil {
		return nil, fmt.Errorf("invalid resolution %q: %w", raw, err)
	}
	return &tiffio.Resolution{X: x, Y: y}, nil
}

func parseDPI(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("must be a finite number")
	}
	if v < 0 {
		return 0, errors.New("must not be negative")
	}
	return v, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
