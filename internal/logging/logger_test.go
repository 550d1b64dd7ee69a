package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_NoFile(t *testing.T) {
	var out bytes.Buffer
	l, err := New(Options{Color: ColorNever, Stdout: &out, Stderr: &out})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test %d", 1)
	if !strings.Contains(out.String(), "[INFO] test 1") {
		t.Errorf("console output: %q", out.String())
	}
}

func TestNew_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "tiff2bit.log")
	var out bytes.Buffer
	l, err := New(Options{Color: ColorAlways, File: path, Stdout: &out, Stderr: &out})
	if err != nil {
		t.Fatal(err)
	}
	l.Warn("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if !bytes.Contains(b, []byte("[WARN] to file")) {
		t.Errorf("log file content: %s", b)
	}
	if bytes.Contains(b, []byte("\x1b[")) {
		t.Errorf("log file contains escape codes: %q", b)
	}
}

func TestErrorGoesToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l, _ := New(Options{Color: ColorNever, Stdout: &stdout, Stderr: &stderr})
	l.Error("boom")
	if stdout.Len() != 0 || !strings.Contains(stderr.String(), "[ERROR] boom") {
		t.Errorf("stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestDebugRequiresVerbose(t *testing.T) {
	var out bytes.Buffer
	quiet, _ := New(Options{Color: ColorNever, Stdout: &out})
	quiet.Debug("hidden")
	if out.Len() != 0 {
		t.Fatalf("quiet logger wrote %q", out.String())
	}
	loud, _ := New(Options{Color: ColorNever, Stdout: &out, Verbose: true})
	loud.Debug("shown")
	if !strings.Contains(out.String(), "[DEBUG] shown") {
		t.Fatalf("verbose logger wrote %q", out.String())
	}
}

func TestSetConsoleKeepsFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var out bytes.Buffer
	l, err := New(Options{Color: ColorNever, File: path, Stdout: &out})
	if err != nil {
		t.Fatal(err)
	}
	l.SetConsole(false)
	l.Success("muted")
	l.Close()
	if out.Len() != 0 {
		t.Errorf("console received %q while muted", out.String())
	}
	b, _ := os.ReadFile(path)
	if !bytes.Contains(b, []byte("[SUCCESS] muted")) {
		t.Errorf("log file content: %s", b)
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Info("nothing")
	l.SetConsole(false)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"auto": ColorAuto, "ALWAYS": ColorAlways, " never": ColorNever} {
		got, err := ParseColorMode(in)
		if err != nil || got != want {
			t.Errorf("ParseColorMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseColorMode("rainbow"); err == nil {
		t.Error("expected error for rainbow")
	}
}
