package common

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

func TestHandleOutputWritesFile(t *testing.T) {
	oh := NewOutputHandler(newTestLogger())
	path := filepath.Join(t.TempDir(), "out", "models.json")

	list := types.ModelList{Provider: "openai", Models: []types.ModelInfo{{ID: "gpt-4o-mini"}}}
	err := oh.HandleOutput(list, CommandConfig{OutputFile: path, OutputFormat: "json"})
	if err != nil {
		t.Fatalf("HandleOutput() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(got), `"provider": "openai"`) {
		t.Errorf("output = %s", got)
	}
}

func TestHandleOutputFormatsByType(t *testing.T) {
	oh := NewOutputHandler(newTestLogger())
	path := filepath.Join(t.TempDir(), "models.txt")

	list := types.ModelList{Provider: "openai", Models: []types.ModelInfo{{ID: "gpt-4o-mini", Recommended: true}}}
	if err := oh.HandleOutput(list, CommandConfig{OutputFile: path, OutputFormat: "text"}); err != nil {
		t.Fatalf("HandleOutput() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(got), "=== AVAILABLE MODELS ===") {
		t.Errorf("text formatter not applied:\n%s", got)
	}
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	oh := NewOutputHandler(newTestLogger())
	path := filepath.Join(t.TempDir(), "out.xml")

	err := oh.HandleOutput(map[string]string{"a": "b"}, CommandConfig{OutputFile: path, OutputFormat: "xml"})
	if err == nil {
		t.Fatal("HandleOutput() expected error for xml format")
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Code != errors.ErrCodeInvalidFormat {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestOutputHandlerSupportedFormats(t *testing.T) {
	formats := NewOutputHandler(newTestLogger()).GetSupportedFormats()
	for _, want := range []string{"json", "text", "markdown"} {
		if !slices.Contains(formats, want) {
			t.Errorf("GetSupportedFormats() = %v, missing %q", formats, want)
		}
	}
}
