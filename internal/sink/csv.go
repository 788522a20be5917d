package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/schema"
	"emp-pipeline/internal/util"
)

// CSVSink writes the dataset as a delimited text file with a fixed header in
// canonical column order.
type CSVSink struct {
	filePath  string
	delimiter rune
}

// NewCSVSink builds a CSV sink from its configuration.
func NewCSVSink(cfg config.CSVSinkConfig) (*CSVSink, error) {
	var delim rune = ','
	if cfg.Delimiter != "" {
		if utf8.RuneCountInString(cfg.Delimiter) != 1 {
			return nil, fmt.Errorf("invalid delimiter '%s': must be a single character", cfg.Delimiter)
		}
		delim = []rune(cfg.Delimiter)[0]
	}
	return &CSVSink{
		filePath:  util.ExpandEnvUniversal(cfg.File),
		delimiter: delim,
	}, nil
}

// Name implements RowSink.
func (s *CSVSink) Name() string { return "csv" }

// Write commits the rows atomically. An empty dataset still produces a file
// holding only the header row.
func (s *CSVSink) Write(ctx context.Context, rows []schema.TabularRow) error {
	logging.Logf(logging.Debug, "CSVSink writing %d rows to %s (delimiter: '%c')", len(rows), s.filePath, s.delimiter)

	err := WriteFileAtomic(s.filePath, func(f *os.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := csv.NewWriter(f)
		w.Comma = s.delimiter
		if err := w.Write(schema.Columns()); err != nil {
			return fmt.Errorf("CSVSink failed to write header: %w", err)
		}
		for i, row := range rows {
			if err := w.Write(row.Strings()); err != nil {
				return fmt.Errorf("CSVSink failed to write row %d: %w", i+1, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("CSVSink flush failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Logf(logging.Info, "CSVSink wrote %d rows to %s", len(rows), s.filePath)
	return nil
}
