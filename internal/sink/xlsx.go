package sink

import (
	"context"
	"fmt"
	"os"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/schema"
	"emp-pipeline/internal/util"

	"github.com/xuri/excelize/v2"
)

// XLSXSink writes the dataset to a single-sheet Excel workbook.
type XLSXSink struct {
	filePath  string
	sheetName string
}

// NewXLSXSink builds an XLSX sink from its configuration.
func NewXLSXSink(cfg config.XLSXSinkConfig) *XLSXSink {
	sheet := cfg.SheetName
	if sheet == "" {
		sheet = config.DefaultSheetName
	}
	return &XLSXSink{
		filePath:  util.ExpandEnvUniversal(cfg.File),
		sheetName: sheet,
	}
}

// Name implements RowSink.
func (s *XLSXSink) Name() string { return "xlsx" }

// Write builds the workbook in memory and commits it atomically.
func (s *XLSXSink) Write(ctx context.Context, rows []schema.TabularRow) error {
	logging.Logf(logging.Debug, "XLSXSink writing %d rows to %s (sheet: '%s')", len(rows), s.filePath, s.sheetName)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Logf(logging.Error, "XLSXSink failed to release workbook for '%s': %v", s.filePath, err)
		}
	}()

	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if s.sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, s.sheetName); err != nil {
			return fmt.Errorf("XLSXSink failed to name sheet '%s': %w", s.sheetName, err)
		}
	}

	header := make([]interface{}, 0, len(schema.Columns()))
	for _, col := range schema.Columns() {
		header = append(header, col)
	}
	if err := f.SetSheetRow(s.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("XLSXSink failed to write header row: %w", err)
	}

	for i, row := range rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("XLSXSink failed to compute coordinates for row %d: %w", i+2, err)
		}
		values := row.Values()
		if err := f.SetSheetRow(s.sheetName, cell, &values); err != nil {
			return fmt.Errorf("XLSXSink failed to write data row %d: %w", i+1, err)
		}
	}

	err := WriteFileAtomic(s.filePath, func(out *os.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.WriteTo(out); err != nil {
			return fmt.Errorf("XLSXSink failed to serialize workbook: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Logf(logging.Info, "XLSXSink wrote %d rows to sheet '%s' in %s", len(rows), s.sheetName, s.filePath)
	return nil
}
