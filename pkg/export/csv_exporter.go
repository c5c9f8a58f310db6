package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RGB is a cell fill colour. Only the PDF renderer uses it.
type RGB struct {
	R, G, B int
}

// Dataset defines tabular export content. Fills, when set, runs parallel to Rows and
// colours individual cells by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Fills   []map[string]RGB
}

func (d Dataset) fill(row int, header string) (RGB, bool) {
	if row >= len(d.Fills) || d.Fills[row] == nil {
		return RGB{}, false
	}
	c, ok := d.Fills[row][header]
	return c, ok
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
