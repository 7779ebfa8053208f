package writer

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// WriteJSON encodes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
