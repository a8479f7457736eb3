package fetcher

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// ReadCSVRecords parses batch rows from a CSV stream. The first row is the
// header; every later non-blank row becomes one Record.
func ReadCSVRecords(ctx context.Context, r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	var header []string
	var records []Record
	line := 0
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		line++

		if header == nil {
			header = row
			continue
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, buildRecord(header, row, line))
	}

	if header == nil {
		return nil, eris.New("csv: missing header row")
	}
	return records, nil
}
