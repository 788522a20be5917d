package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"emp-pipeline/internal/logging"
)

// errorColumn is the extra column appended to each reported record.
const errorColumn = "error_message"

// ErrorReport appends records that failed validation, together with the
// failure message, to a CSV file. The file is opened in append mode so
// repeated runs accumulate into one report.
type ErrorReport struct {
	filePath string
	mu       sync.Mutex
	file     *os.File
	writer   *csv.Writer
	headers  []string
	closed   bool
}

// NewErrorReport opens (or creates) the report file for appending.
func NewErrorReport(filePath string) (*ErrorReport, error) {
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ErrorReport failed to create directory for '%s': %w", filePath, err)
		}
	}
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("ErrorReport failed to open '%s': %w", filePath, err)
	}
	return &ErrorReport{
		filePath: filePath,
		file:     f,
		writer:   csv.NewWriter(f),
	}, nil
}

// Write appends one failed record. Headers come from the first record's keys,
// sorted, plus the error column, and are written only when the file is empty.
func (er *ErrorReport) Write(record map[string]interface{}, cause error) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if er.closed {
		return errors.New("ErrorReport: write called on closed report")
	}

	if er.headers == nil {
		keys := make([]string, 0, len(record))
		for k := range record {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		er.headers = append(keys, errorColumn)

		info, err := er.file.Stat()
		if err != nil || info.Size() == 0 {
			if err := er.writer.Write(er.headers); err != nil {
				return fmt.Errorf("ErrorReport failed to write header to '%s': %w", er.filePath, err)
			}
		}
	}

	row := make([]string, len(er.headers))
	for i, header := range er.headers {
		if header == errorColumn {
			if cause != nil {
				row[i] = cause.Error()
			}
			continue
		}
		if val, ok := record[header]; ok && val != nil {
			row[i] = fmt.Sprintf("%v", val)
		}
	}

	if err := er.writer.Write(row); err != nil {
		return fmt.Errorf("ErrorReport failed to write row to '%s': %w", er.filePath, err)
	}
	// Flush per record so failures are persisted even if the run aborts.
	er.writer.Flush()
	if err := er.writer.Error(); err != nil {
		return fmt.Errorf("ErrorReport flush failed for '%s': %w", er.filePath, err)
	}
	return nil
}

// Close flushes and closes the report file. Safe to call more than once.
func (er *ErrorReport) Close() error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if er.closed || er.file == nil {
		return nil
	}
	er.closed = true

	er.writer.Flush()
	flushErr := er.writer.Error()
	closeErr := er.file.Close()
	er.file = nil
	er.writer = nil

	if flushErr != nil {
		return fmt.Errorf("ErrorReport flush failed on close for '%s': %w", er.filePath, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("ErrorReport close failed for '%s': %w", er.filePath, closeErr)
	}
	logging.Logf(logging.Debug, "ErrorReport closed: %s", er.filePath)
	return nil
}
