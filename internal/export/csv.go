package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"ordertrack/internal/format"
)

// Column pairs a CSV header with the record field it projects. The column
// contract is declared by the caller; records pass through untouched.
type Column struct {
	Header string
	Value  func(format.Record) string
}

// WriteCSV writes a header row followed by one row per record, columns in the
// declared order.
func WriteCSV(w io.Writer, columns []Column, records []format.Record) error {
	writer := csv.NewWriter(w)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed writing headers %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, col := range columns {
			row[i] = col.Value(record)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed writing row %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Filename joins the base name with every non-empty filter value, in the
// given order, and appends the csv extension.
func Filename(base string, filters ...string) string {
	name := base
	for _, filter := range filters {
		if filter != "" {
			name += "_" + filter
		}
	}
	return name + ".csv"
}
