package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTOON Format = "toon"
)

// ErrUnknownFormat is returned by ParseFormat for names it does not know.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat converts a string to Format. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "toon":
		return FormatTOON, nil
	default:
		return "", fmt.Errorf("%w %q (want text, json or toon)", ErrUnknownFormat, s)
	}
}

// Renderable defines data that can render itself as text or as a document.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	// RenderData returns the underlying data for JSON and TOON serialization.
	RenderData() any
}

// Formatter handles output formatting.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter writing to stdout, or to the file output
// when it is set. File output is never colored.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		writer = f
		file = f
		colored = false
	}

	return &Formatter{
		format:  format,
		writer:  writer,
		file:    file,
		colored: colored,
	}, nil
}

// NewWriterFormatter creates a formatter over an arbitrary writer.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the formatter's writer if it's a file.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored returns whether colored output is enabled.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes r in the configured format.
func (f *Formatter) Output(r Renderable) error {
	switch f.format {
	case FormatJSON:
		return f.outputJSON(r.RenderData())
	case FormatTOON:
		return f.outputTOON(r.RenderData())
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) outputJSON(data any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *Formatter) outputTOON(data any) error {
	doc, err := toon.Marshal(data, toon.WithIndent(2))
	if err == nil {
		_, err = fmt.Fprintf(f.writer, "%s\n", doc)
	}
	return err
}

// paint returns a color that is forced on or off regardless of the
// terminal detection done by fatih/color.
func paint(colored bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Success prints a green status line.
func (f *Formatter) Success(format string, args ...any) {
	f.message("", format, args, color.FgGreen, color.Underline)
}

// Info prints a dim status line.
func (f *Formatter) Info(format string, args ...any) {
	f.message("", format, args, color.Faint)
}

// Warning prints a yellow status line, prefixed when colors are off.
func (f *Formatter) Warning(format string, args ...any) {
	f.message("WARNING: ", format, args, color.FgYellow)
}

// Error prints a red status line, prefixed when colors are off.
func (f *Formatter) Error(format string, args ...any) {
	f.message("ERROR: ", format, args, color.FgRed)
}

func (f *Formatter) message(plain, format string, args []any, attrs ...color.Attribute) {
	line := fmt.Sprintf(format, args...)
	if !f.colored {
		fmt.Fprintln(f.writer, plain+line)
		return
	}
	paint(true, attrs...).Fprintln(f.writer, line)
}
