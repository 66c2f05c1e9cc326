package csvenc

import (
	"encoding/csv"
	"io"

	"github.com/insightcsv/insightcsv/internal/mapper"
)

// Encode writes the header and rows to w in standard CSV form: CRLF
// record terminators, fields containing the delimiter, a quote or a
// line break quoted with internal quotes doubled, UTF-8 passed through.
//
// Encode is a pure transform — the same header and rows always produce
// byte-identical output. The only error source is the underlying writer.
func Encode(w io.Writer, header []string, rows []mapper.Row) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
