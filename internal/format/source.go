package format

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewSourceReader wraps r so that a leading byte order mark is consumed.
// UTF-16 input that starts with a BOM is transcoded to UTF-8; everything else
// is read as UTF-8.
func NewSourceReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
