package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/retoucher/internal/retouch"
)

// Writer writes a retouch result in a specific format.
type Writer interface {
	Write(w io.Writer, out *retouch.Output) error
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"json", "text", "yaml", "markdown"}
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "yaml":
		return &YAMLWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteOutput writes the result to the specified output (file path or stdout).
func WriteOutput(out *retouch.Output, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, out)
}
