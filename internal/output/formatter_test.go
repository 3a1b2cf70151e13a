package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"toon", FormatTOON},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if err != nil {
				t.Fatalf("ParseFormat(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatUnknown(t *testing.T) {
	_, err := ParseFormat("markdown")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(markdown) error = %v, want ErrUnknownFormat", err)
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "issues.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should never be colored")
	}
	if err := f.Output(&IssueReport{}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if strings.TrimSpace(string(content)) != "[]" {
		t.Errorf("content = %q, want []", content)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false)
	if err == nil {
		t.Error("NewFormatter() should fail for an invalid path")
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable([]string{"Kind", "Count"},
		[][]string{{"file", "3"}, {"symbol", "12"}},
		[]string{"Total", "15"}, nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"KIND", "COUNT", "file", "symbol", "12", "Total", "15"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderData(t *testing.T) {
	table := NewTable([]string{"Kind", "Count"}, [][]string{{"file", "3"}, {"dir"}}, nil, nil)

	data, ok := table.RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() type = %T", table.RenderData())
	}
	if len(data) != 2 || data[0]["Kind"] != "file" || data[0]["Count"] != "3" {
		t.Errorf("RenderData() = %v", data)
	}
	if _, ok := data[1]["Count"]; ok {
		t.Error("short rows should not get missing columns")
	}

	withData := NewTable(nil, nil, nil, "payload")
	if withData.RenderData() != "payload" {
		t.Error("RenderData() should prefer Data")
	}
}

func TestFormatterOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatJSON, &buf, false)

	if err := f.Output(NewTable(nil, nil, nil, map[string]int{"files": 2})); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got["files"] != 2 {
		t.Errorf("files = %d, want 2", got["files"])
	}
}

func TestFormatterMessageMethods(t *testing.T) {
	tests := []struct {
		name string
		call func(f *Formatter)
		want string
	}{
		{"success", func(f *Formatter) { f.Success("Done!") }, "Done!\n"},
		{"info", func(f *Formatter) { f.Info("Using config file: %s", "a.toml") }, "Using config file: a.toml\n"},
		{"warning", func(f *Formatter) { f.Warning("careful") }, "WARNING: careful\n"},
		{"error", func(f *Formatter) { f.Error("broken %d", 1) }, "ERROR: broken 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.call(NewWriterFormatter(FormatText, &buf, false))
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatterColored(t *testing.T) {
	var buf bytes.Buffer
	NewWriterFormatter(FormatText, &buf, true).Success("Lexemite")
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("colored output has no escape codes: %q", buf.String())
	}
}
