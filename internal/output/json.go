package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/retoucher/internal/retouch"
)

// JSONWriter outputs the result as indented JSON, the same shape the
// cleaner tool returns.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, out *retouch.Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
