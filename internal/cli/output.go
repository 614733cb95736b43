package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// printJSON writes v to stdout as indented JSON. Every command honors
// the --json flag through this single path.
func printJSON(v any) error {
	return fprintJSON(os.Stdout, v)
}

// fprintJSON writes v to w as two-space indented JSON, newline
// terminated.
func fprintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
