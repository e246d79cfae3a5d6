package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM makes spreadsheet tools detect UTF-8, which matters for the Arabic
// name and area columns.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV streams a header row plus records as BOM-prefixed UTF-8 CSV.
func WriteCSV(w io.Writer, headers []string, records [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
