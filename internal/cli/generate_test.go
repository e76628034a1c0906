package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/K2/matrix.svg/pkg/errors"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := newTestCLI().RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestGenerateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")

	if err := runCommand(t, "generate", "--preview", "--no-cache", "-o", path); err != nil {
		t.Fatalf("generate error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("<svg")) {
		t.Error("output should start with <svg")
	}
	// The preview preset has 5 regular and 2 irregular columns.
	if got := bytes.Count(data, []byte(`<g id="strand-`)); got != 7 {
		t.Errorf("strand groups = %d, want 7", got)
	}
}

func TestGenerateDeterministicAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.svg")
	p2 := filepath.Join(dir, "b.svg")

	if err := runCommand(t, "generate", "--preview", "--no-cache", "-o", p1); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if err := runCommand(t, "generate", "--preview", "--no-cache", "-o", p2); err != nil {
		t.Fatalf("second run error: %v", err)
	}

	d1, _ := os.ReadFile(p1)
	d2, _ := os.ReadFile(p2)
	if !bytes.Equal(d1, d2) {
		t.Error("identical invocations should produce byte-identical files")
	}
}

func TestGenerateFlagOverridesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")

	err := runCommand(t, "generate", "--preset", "preview", "--columns-regular", "3", "--no-cache", "-o", path)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	data, _ := os.ReadFile(path)
	// 3 regular (flag) + 2 irregular (preset)
	if got := bytes.Count(data, []byte(`<g id="strand-`)); got != 5 {
		t.Errorf("strand groups = %d, want 5", got)
	}
}

func TestGenerateInvalidBounds(t *testing.T) {
	err := runCommand(t, "generate", "--no-cache", "--gps-min", "10", "--gps-max", "5",
		"-o", filepath.Join(t.TempDir(), "out.svg"))
	if err == nil {
		t.Fatal("generate should reject gps-min > gps-max")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidConfiguration {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidConfiguration)
	}
}

func TestGenerateUnknownPreset(t *testing.T) {
	err := runCommand(t, "generate", "--no-cache", "--preset", "bogus")
	if err == nil {
		t.Fatal("generate should reject an unknown preset")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidPreset {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPreset)
	}
}

func TestGeneratePreviewConflictsWithPreset(t *testing.T) {
	err := runCommand(t, "generate", "--no-cache", "--preview", "--preset", "dense")
	if err == nil {
		t.Fatal("generate should reject --preview together with another preset")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidConfiguration {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidConfiguration)
	}
}

func TestGenerateListNice(t *testing.T) {
	if err := runCommand(t, "generate", "--list-nice"); err != nil {
		t.Fatalf("--list-nice error: %v", err)
	}
}
