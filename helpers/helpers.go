package helpers

import (
	// Go Internal Packages
	"encoding/json"
	"io"
)

// PrintJSON writes v to w in pretty format with indent
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
