package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RenderCSV writes the header row, the data rows and the footer when present.
func RenderCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	header := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c.Title
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("report: write csv header: %w", err)
	}
	if err := w.WriteAll(r.Rows); err != nil {
		return nil, fmt.Errorf("report: write csv rows: %w", err)
	}
	if len(r.Footer) > 0 {
		if err := w.Write(r.Footer); err != nil {
			return nil, fmt.Errorf("report: write csv footer: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("report: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
