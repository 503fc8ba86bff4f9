// Package export converts provider records to and from the source sheet's CSV
// layout.
//
// Serialize and Parse are inverses: Parse(Serialize(records)) yields the same
// records field for field, including values that hold commas, double quotes
// or line breaks.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rubiojr/carefinder/pkg/provider"
)

const (
	// Filename is the suggested download name for exported records.
	Filename = "providers-export.csv"
	// ContentType is the MIME type served with exports.
	ContentType = "text/csv;charset=utf-8"
)

// Serialize writes a header row followed by one row per record. Values that
// contain the delimiter, a quote or a line break are quoted, with embedded
// quotes doubled. An empty record set produces the header row only.
func Serialize(w io.Writer, records []provider.Provider) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(provider.Headers()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, p := range records {
		if err := cw.Write(p.Values()); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// Marshal is Serialize into a byte slice.
func Marshal(records []provider.Provider) ([]byte, error) {
	var buf bytes.Buffer
	if err := Serialize(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
