package config

import (
	"testing"

	"tiff2bit/internal/codec"
	"tiff2bit/internal/logging"
	"tiff2bit/internal/tiffio"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	opts := cfg.Options()
	if opts.Pattern != codec.BothBits || opts.Resolution != nil || opts.Workers < 1 {
		t.Errorf("options = %+v", opts)
	}
}

func TestValidate_Target(t *testing.T) {
	tests := []struct {
		target  string
		want    codec.Pattern
		wantErr bool
	}{
		{"low", codec.LowBit, false},
		{"2", codec.HighBit, false},
		{"7", codec.BothBits, false},
		{"sideways", codec.BothBits, true},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Target = tt.target
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.Pattern() != tt.want {
				t.Errorf("pattern = %s, want %s", cfg.Pattern(), tt.want)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad color", func(c *Config) { c.ColorMode = "sepia" }},
		{"bad resolution", func(c *Config) { c.Resolution = "tall" }},
		{"empty schedule", func(c *Config) { c.Schedule = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		want    tiffio.Resolution
		wantErr bool
	}{
		{"300", tiffio.Resolution{X: 300, Y: 300}, false},
		{"300x600", tiffio.Resolution{X: 300, Y: 600}, false},
		{" 72.5X0 ", tiffio.Resolution{X: 72.5, Y: 0}, false},
		{"-5", tiffio.Resolution{}, true},
		{"300x", tiffio.Resolution{}, true},
		{"abc", tiffio.Resolution{}, true},
		{"inf", tiffio.Resolution{}, true},
		{"300xNaN", tiffio.Resolution{}, true},
		{"+Inf", tiffio.Resolution{}, true},
	}
	for _, tt := range tests {
		got, err := ParseResolution(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResolution(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && *got != tt.want {
			t.Errorf("ParseResolution(%q) = %+v, want %+v", tt.in, *got, tt.want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TIFF2BIT_WORKERS", "3")
	t.Setenv("TIFF2BIT_LOG", "/tmp/t2b.log")
	t.Setenv("TIFF2BIT_OUTPUT", "from-env")
	t.Setenv("TIFF2BIT_HISTORY", "")

	cfg := DefaultConfig()
	cfg.OutputDir = "from-flag"
	cfg.HistoryDB = "keep.db"
	cfg.ApplyEnv(func(flag string) bool { return flag == "output" })

	if cfg.Workers != 3 || cfg.LogFile != "/tmp/t2b.log" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.OutputDir != "from-flag" {
		t.Errorf("explicit flag overridden: %q", cfg.OutputDir)
	}
	if cfg.HistoryDB != "keep.db" {
		t.Errorf("empty env replaced value: %q", cfg.HistoryDB)
	}
}

func TestApplyEnvIgnoresBadInt(t *testing.T) {
	t.Setenv("TIFF2BIT_WORKERS", "many")
	cfg := DefaultConfig()
	want := cfg.Workers
	cfg.ApplyEnv(nil)
	if cfg.Workers != want {
		t.Errorf("workers = %d, want %d", cfg.Workers, want)
	}
}

func TestOptionsCarriesFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "out"
	cfg.Invert = true
	cfg.Resolution = "150x300"
	cfg.OpenOutput = true
	cfg.Atomic = true
	cfg.Workers = 2
	cfg.ColorMode = "NEVER"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	opts := cfg.Options()
	if opts.OutputDir != "out" || !opts.Invert || !opts.OpenOutput || !opts.Atomic || opts.Workers != 2 {
		t.Errorf("options = %+v", opts)
	}
	if opts.Resolution == nil || *opts.Resolution != (tiffio.Resolution{X: 150, Y: 300}) {
		t.Errorf("resolution = %+v", opts.Resolution)
	}
	if cfg.LoggingOptions().Color != logging.ColorNever {
		t.Errorf("color = %q", cfg.LoggingOptions().Color)
	}
}
