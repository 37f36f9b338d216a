package format

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/transform"

	"github.com/roach88/wallet/internal/wallet"
)

// csvLayoutVersion is the first record of a sectioned CSV stream.
const csvLayoutVersion = "2"

// CSVAdapter is the canonical tabular format.
//
// The sectioned layout is:
//
//	2
//
//	name
//	<one group name per line>
//
//	id,store,note,cardId,...
//	<one card per line>
//
//	cardId,groupName
//	<one membership per line>
//
// Blank lines are cosmetic. The card header must have at least two columns:
// every one-field record after the group header is a group name. A stream
// whose first record is not the layout version is read as a cards-only
// export from an older release: its first record is the card header and
// every following record is a card.
type CSVAdapter struct{}

// Write emits d in the sectioned layout.
func (CSVAdapter) Write(w io.Writer, d *Dataset) error {
	sw := &csvSectionWriter{w: w, cw: csv.NewWriter(w)}

	sw.record(csvLayoutVersion)
	sw.blank()

	sw.record(ColumnGroupName)
	for _, g := range d.Groups {
		sw.record(g.Name)
	}
	sw.blank()

	sw.record(CardHeader()...)
	for _, c := range d.Cards {
		sw.record(encodeCard(c)...)
	}
	sw.blank()

	sw.record(ColumnMemberCard, ColumnMemberGroup)
	for _, m := range d.Memberships {
		sw.record(strconv.FormatInt(m.CardID, 10), m.Group)
	}
	return sw.flush()
}

type csvSectionWriter struct {
	w   io.Writer
	cw  *csv.Writer
	err error
}

func (s *csvSectionWriter) record(fields ...string) {
	if s.err != nil {
		return
	}
	s.err = s.cw.Write(fields)
}

// blank separates sections. csv.Writer cannot emit an empty record, so the
// pending rows are flushed and the newline is written directly.
func (s *csvSectionWriter) blank() {
	if s.err = s.flush(); s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, "\n")
}

func (s *csvSectionWriter) flush() error {
	if s.err != nil {
		return s.err
	}
	s.cw.Flush()
	return s.cw.Error()
}

// Read parses a sectioned or legacy cards-only CSV stream.
func (CSVAdapter) Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(transform.NewReader(NewSourceReader(r), &quotedCR{}))
	cr.FieldsPerRecord = -1
	sr := &csvSectionReader{cr: cr}

	first, err := sr.next()
	if err == io.EOF {
		return nil, malformed(0, "empty input")
	}
	if err != nil {
		return nil, err
	}

	d := &Dataset{}
	header := first
	if isLayoutVersion(first) {
		if header, err = sr.readGroups(d); err != nil {
			return nil, err
		}
	}
	if err := sr.readCards(d, header); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// isLayoutVersion reports whether the first record selects the sectioned
// layout. Any other single-field record is rejected by the header check.
func isLayoutVersion(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == csvLayoutVersion
}

func isMembershipHeader(rec []string) bool {
	return len(rec) == 2 &&
		strings.EqualFold(strings.TrimSpace(rec[0]), ColumnMemberCard) &&
		strings.EqualFold(strings.TrimSpace(rec[1]), ColumnMemberGroup)
}

type csvSectionReader struct {
	cr   *csv.Reader
	line int
}

// next returns the next non-blank record and remembers its line.
// Syntax errors become *ParseError.
func (s *csvSectionReader) next() ([]string, error) {
	rec, err := s.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{Line: pe.Line, Err: pe.Err}
		}
		return nil, &ParseError{Err: err}
	}
	s.line, _ = s.cr.FieldPos(0)
	for i, f := range rec {
		if strings.IndexByte(f, 0) >= 0 {
			rec[i] = quotedCRRestorer.Replace(f)
		}
	}
	return rec, nil
}

// readGroups consumes the group section and returns the card header that
// terminates it.
func (s *csvSectionReader) readGroups(d *Dataset) ([]string, error) {
	rec, err := s.next()
	if err == io.EOF {
		return nil, malformed(s.line, "missing group section")
	}
	if err != nil {
		return nil, err
	}
	if len(rec) != 1 || !strings.EqualFold(strings.TrimSpace(rec[0]), ColumnGroupName) {
		return nil, malformed(s.line, "expected group header %q, got %q", ColumnGroupName, strings.Join(rec, ","))
	}

	// A card header needs two or more columns; a one-field record here is
	// always a group name, even one spelled like a card column.
	suspect := 0
	for {
		rec, err := s.next()
		if err == io.EOF {
			if suspect > 0 {
				return nil, malformed(s.line, "missing card section (line %d reads as a group; card headers need at least two columns)", suspect)
			}
			return nil, malformed(s.line, "missing card section")
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > 1 {
			return rec, nil
		}
		if rec[0] == "" {
			return nil, &FieldError{Line: s.line, Column: ColumnGroupName, Err: fmt.Errorf("group name is empty")}
		}
		if _, ok := canonicalColumn(rec[0]); ok && suspect == 0 {
			suspect = s.line
		}
		d.Groups = append(d.Groups, wallet.Group{Name: rec[0]})
	}
}

// readCards consumes the card section and, if present, the membership
// section that follows it.
func (s *csvSectionReader) readCards(d *Dataset, header []string) error {
	index, err := parseCardHeader(header)
	if err != nil {
		return &ParseError{Line: s.line, Err: err}
	}

	for {
		rec, err := s.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if isMembershipHeader(rec) {
			return s.readMemberships(d)
		}
		if len(rec) != len(header) {
			return malformed(s.line, "card record has %d fields, header has %d", len(rec), len(header))
		}
		c, err := decodeCard(csvFields{index: index, rec: rec})
		if err != nil {
			return atLine(err, s.line)
		}
		d.Cards = append(d.Cards, c)
	}
}

func (s *csvSectionReader) readMemberships(d *Dataset) error {
	for {
		rec, err := s.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(rec) != 2 {
			return malformed(s.line, "membership record has %d fields, want 2", len(rec))
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return &FieldError{Line: s.line, Column: ColumnMemberCard, Value: rec[0], Err: errors.New("not an integer")}
		}
		d.Memberships = append(d.Memberships, wallet.Membership{CardID: id, Group: rec[1]})
	}
}

// parseCardHeader maps canonical column names to record positions. Unknown
// columns are ignored; duplicates and a missing cardId column are errors.
func parseCardHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, raw := range header {
		name, ok := canonicalColumn(raw)
		if !ok {
			continue
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q in card header", name)
		}
		index[name] = i
	}
	for _, col := range columns {
		if _, ok := index[col.name]; col.required && !ok {
			return nil, fmt.Errorf("card header is missing required column %q", col.name)
		}
	}
	return index, nil
}

type csvFields struct {
	index map[string]int
	rec   []string
}

func (f csvFields) lookup(column string) (string, bool) {
	i, ok := f.index[column]
	if !ok {
		return "", false
	}
	return f.rec[i], true
}

func atLine(err error, line int) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		fe.Line = line
	}
	return err
}

// quotedCR shields carriage returns inside quoted fields from encoding/csv,
// which folds a quoted \r\n into \n. Inside quotes \r becomes NUL 'r', and
// NUL is doubled everywhere so the escape is unambiguous.
// quotedCRRestorer undoes both on every field.
type quotedCR struct {
	quoted bool
}

var quotedCRRestorer = strings.NewReplacer("\x00\x00", "\x00", "\x00r", "\r")

func (q *quotedCR) Reset() { q.quoted = false }

func (q *quotedCR) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]
		switch {
		case b == 0 || (b == '\r' && q.quoted):
			if nDst+2 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = 0
			if b == 0 {
				dst[nDst+1] = 0
			} else {
				dst[nDst+1] = 'r'
			}
			nDst += 2
		default:
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			if b == '"' {
				q.quoted = !q.quoted
			}
			dst[nDst] = b
			nDst++
		}
		nSrc++
	}
	return nDst, nSrc, nil
}
