package format

import (
	"encoding/json"
	"io"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes one JSON document per payload. A non-empty Indent
// pretty-prints it.
type JSONFormatter struct {
	Indent string
}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	// Records carry base64 payloads and links; keep them readable.
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}
