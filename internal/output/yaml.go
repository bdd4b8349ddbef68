package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dshills/retoucher/internal/retouch"
)

// YAMLWriter outputs the result as YAML.
type YAMLWriter struct{}

func (y *YAMLWriter) Write(w io.Writer, out *retouch.Output) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing YAML: %w", err)
	}
	return enc.Close()
}
