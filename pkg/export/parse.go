package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rubiojr/carefinder/pkg/provider"
)

// ErrQuote reports a quoted field that is not closed properly.
var ErrQuote = errors.New("malformed quoted field")

// ParseError locates a parse failure in the input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads CSV produced by Serialize or by the source sheet. Columns are
// matched by header text, so column order does not matter, missing columns
// default to "" and unknown columns are ignored. A leading UTF-8 BOM is
// skipped. Every data row becomes a record, even one whose cells are all empty.
// Input with no header row yields an empty, non-nil slice.
func Parse(r io.Reader) ([]provider.Provider, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	rd := &rowReader{r: br, line: 1}

	records := []provider.Provider{}
	header, err := rd.read()
	if err == io.EOF {
		return records, nil
	}
	if err != nil {
		return nil, err
	}

	fields := make([]provider.Field, len(header))
	for i, h := range header {
		if f, ok := provider.FieldForHeader(strings.TrimPrefix(h, "\ufeff")); ok {
			fields[i] = f
		}
	}

	for {
		row, err := rd.read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		var p provider.Provider
		for i, v := range row {
			if i < len(fields) && fields[i] != "" {
				p = p.With(fields[i], v)
			}
		}
		records = append(records, p)
	}
}

// rowReader is an RFC 4180 row scanner. Rows end at LF or CRLF. Inside a
// quoted field every byte is kept verbatim, CR included, which is what keeps
// Parse an exact inverse of Serialize. A stray quote inside an unquoted field
// is taken literally.
type rowReader struct {
	r    *bufio.Reader
	line int
}

// read returns the next row, skipping blank lines. It returns io.EOF once the
// input is exhausted.
func (rd *rowReader) read() ([]string, error) {
	for {
		row, blank, err := rd.readRow()
		if err != nil {
			return nil, err
		}
		if !blank {
			return row, nil
		}
	}
}

func (rd *rowReader) readRow() (row []string, blank bool, err error) {
	first, err := rd.r.ReadByte()
	if err == io.EOF {
		return nil, false, io.EOF
	}
	if err != nil {
		return nil, false, err
	}
	switch first {
	case '\n':
		rd.line++
		return nil, true, nil
	case '\r':
		if next, _ := rd.r.Peek(1); len(next) == 1 && next[0] == '\n' {
			_, _ = rd.r.Discard(1)
			rd.line++
			return nil, true, nil
		}
	}
	if err := rd.r.UnreadByte(); err != nil {
		return nil, false, err
	}

	start := rd.line
	for {
		field, last, err := rd.readField()
		if err != nil {
			return nil, false, &ParseError{Line: start, Err: err}
		}
		row = append(row, field)
		if last {
			return row, false, nil
		}
	}
}

// readField reads one field and its terminator. last is true when the field
// closed the row.
func (rd *rowReader) readField() (field string, last bool, err error) {
	next, err := rd.r.Peek(1)
	if err == io.EOF {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}
	if next[0] == '"' {
		_, _ = rd.r.Discard(1)
		return rd.readQuoted()
	}
	return rd.readUnquoted()
}

func (rd *rowReader) readQuoted() (string, bool, error) {
	var b strings.Builder
	for {
		c, err := rd.r.ReadByte()
		if err == io.EOF {
			return "", false, fmt.Errorf("%w: missing closing quote", ErrQuote)
		}
		if err != nil {
			return "", false, err
		}
		if c == '\n' {
			rd.line++
		}
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		after, err := rd.r.ReadByte()
		if err == io.EOF {
			return b.String(), true, nil
		}
		if err != nil {
			return "", false, err
		}
		switch after {
		case '"':
			b.WriteByte('"')
		case ',':
			return b.String(), false, nil
		case '\n':
			rd.line++
			return b.String(), true, nil
		case '\r':
			if rd.consumeLF() {
				return b.String(), true, nil
			}
			return "", false, fmt.Errorf("%w: unexpected %q after closing quote", ErrQuote, after)
		default:
			return "", false, fmt.Errorf("%w: unexpected %q after closing quote", ErrQuote, after)
		}
	}
}

func (rd *rowReader) readUnquoted() (string, bool, error) {
	var b strings.Builder
	for {
		c, err := rd.r.ReadByte()
		if err == io.EOF {
			return b.String(), true, nil
		}
		if err != nil {
			return "", false, err
		}
		switch c {
		case ',':
			return b.String(), false, nil
		case '\n':
			rd.line++
			return b.String(), true, nil
		case '\r':
			if rd.consumeLF() {
				return b.String(), true, nil
			}
		}
		b.WriteByte(c)
	}
}

func (rd *rowReader) consumeLF() bool {
	next, err := rd.r.Peek(1)
	if err != nil || next[0] != '\n' {
		return false
	}
	_, _ = rd.r.Discard(1)
	rd.line++
	return true
}
