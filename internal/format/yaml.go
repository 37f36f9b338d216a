package format

import (
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLAdapter carries the JSON document shape as YAML.
type YAMLAdapter struct{}

// Write emits d as a single YAML document.
func (YAMLAdapter) Write(w io.Writer, d *Dataset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(d)); err != nil {
		return err
	}
	return enc.Close()
}

// Read decodes exactly one document. A second document is malformed input.
func (YAMLAdapter) Read(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(NewSourceReader(r))

	var doc sourceDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed(0, "empty input")
		}
		return nil, &ParseError{Err: err}
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, malformed(0, "unexpected data after document")
	}
	return doc.dataset()
}
