package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/schema"
)

func sampleRows() []schema.TabularRow {
	return []schema.TabularRow{
		{
			ID:                1,
			FullName:          "Ada Lovelace",
			Email:             "ada@example.com",
			Phone:             "5551234567",
			Gender:            "female",
			Age:               36,
			JobTitle:          "Analyst",
			HireDate:          time.Date(2018, 3, 15, 0, 0, 0, 0, time.UTC),
			YearsOfExperience: 7,
			Salary:            91000.5,
			Department:        "Engineering",
			Designation:       "Senior Data Engineer",
		},
		{
			ID:          2,
			FullName:    "No Dates",
			Phone:       "Not Available",
			Designation: "Unknown",
		},
	}
}

func readCSV(t *testing.T, path string, delimiter rune) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = delimiter
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("output unparseable: %v", err)
	}
	return rows
}

func TestCSVSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.csv")
	s, err := NewCSVSink(config.CSVSinkConfig{File: path})
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}

	if err := s.Write(context.Background(), sampleRows()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows := readCSV(t, path, ',')
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 data rows", len(rows))
	}
	wantHeader := schema.Columns()
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header = %v, want %v", rows[0], wantHeader)
		}
	}
	if rows[1][0] != "1" || rows[1][1] != "Ada Lovelace" || rows[1][7] != "2018-03-15" {
		t.Errorf("first data row wrong: %v", rows[1])
	}
	// A zero hire date renders as an empty field.
	if rows[2][0] != "2" || rows[2][7] != "" {
		t.Errorf("second data row wrong: %v", rows[2])
	}
}

func TestCSVSinkCustomDelimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.tsv")
	s, err := NewCSVSink(config.CSVSinkConfig{File: path, Delimiter: "\t"})
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}
	if err := s.Write(context.Background(), sampleRows()[:1]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	rows := readCSV(t, path, '\t')
	if len(rows) != 2 || rows[1][1] != "Ada Lovelace" {
		t.Errorf("tab-delimited output wrong: %v", rows)
	}
}

func TestCSVSinkEmptyDatasetWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	s, err := NewCSVSink(config.CSVSinkConfig{File: path})
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}
	if err := s.Write(context.Background(), nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	rows := readCSV(t, path, ',')
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}

func TestCSVSinkRejectsMultiRuneDelimiter(t *testing.T) {
	_, err := NewCSVSink(config.CSVSinkConfig{File: "x.csv", Delimiter: "ab"})
	if err == nil {
		t.Fatal("expected an error for a multi-character delimiter")
	}
}

func TestCSVSinkCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancelled.csv")
	s, err := NewCSVSink(config.CSVSinkConfig{File: path})
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Write(ctx, sampleRows()); err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cancelled write left a file at the final path")
	}
}
