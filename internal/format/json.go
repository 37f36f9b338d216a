package format

import (
	"encoding/json"
	"errors"
	"io"
)

// JSONAdapter reads and writes a single JSON document:
//
//	{"version": 2, "groups": [...], "cards": [...], "memberships": [...]}
//
// Card objects use the CSV column names as keys. Absent keys follow the
// column defaults and null counts as an empty value.
type JSONAdapter struct{}

// Write emits d as indented JSON.
func (JSONAdapter) Write(w io.Writer, d *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(newDocument(d))
}

// Read decodes exactly one document. Trailing data is malformed input.
func (JSONAdapter) Read(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(NewSourceReader(r))
	dec.UseNumber()

	var doc sourceDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed(0, "empty input")
		}
		return nil, &ParseError{Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed(0, "unexpected data after document")
	}
	return doc.dataset()
}
