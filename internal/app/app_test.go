package app

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestRunnersShowHelp(t *testing.T) {
	var buf bytes.Buffer
	NewFetchRunner().Usage(&buf)
	if !bytes.Contains(buf.Bytes(), []byte("emp-fetch")) {
		t.Errorf("fetch usage text missing binary name: %q", buf.String())
	}
	buf.Reset()
	NewProcessRunner().Usage(&buf)
	if !bytes.Contains(buf.Bytes(), []byte("emp-process")) {
		t.Errorf("process usage text missing binary name: %q", buf.String())
	}

	if err := NewFetchRunner().Run([]string{"-help"}); err != nil {
		t.Errorf("fetch -help returned error: %v", err)
	}
	if err := NewProcessRunner().Run([]string{"-help"}); err != nil {
		t.Errorf("process -help returned error: %v", err)
	}
}

func TestRunConfigNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	if err := NewFetchRunner().Run([]string{"-config", missing}); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("fetch: expected ErrConfigNotFound, got %v", err)
	}
	if err := NewProcessRunner().Run([]string{"-config", missing}); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("process: expected ErrConfigNotFound, got %v", err)
	}
}

func TestRunUnknownFlag(t *testing.T) {
	if err := NewFetchRunner().Run([]string{"-bogus"}); !errors.Is(err, ErrUsage) {
		t.Errorf("fetch: expected ErrUsage, got %v", err)
	}
	if err := NewProcessRunner().Run([]string{"-bogus"}); !errors.Is(err, ErrUsage) {
		t.Errorf("process: expected ErrUsage, got %v", err)
	}
}

// TestPipelineEndToEnd runs both stages against a fake API: fetch commits the
// artifact, process turns it into CSV and Parquet output.
func TestPipelineEndToEnd(t *testing.T) {
	dataset := []map[string]interface{}{
		{"id": 1, "first_name": "Ada", "last_name": "Lovelace", "years_of_experience": 7, "salary": 91000.5, "department": "Engineering"},
		{"id": 2, "full_name": "Bad Salary", "salary": "lots", "department": "Engineering"},
		{"id": 1, "first_name": "Ada", "last_name": "King", "years_of_experience": 8, "salary": 95000.0, "department": "Engineering"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		end := len(dataset)
		if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 && offset+limit < end {
			end = offset + limit
		}
		if offset > len(dataset) {
			offset = len(dataset)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"employees": dataset[offset:end],
			"total":     len(dataset),
		})
	}))
	defer server.Close()

	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "raw.json")
	csvPath := filepath.Join(dir, "out.csv")
	parquetPath := filepath.Join(dir, "out.parquet")
	reportPath := filepath.Join(dir, "errors.csv")

	configPath := filepath.Join(dir, "pipeline.yaml")
	configBody := fmt.Sprintf(`
logging:
  level: error
api:
  endpoint: "%s"
  pageSize: 2
artifact:
  path: "%s"
outputs:
  csv:
    file: "%s"
  parquet:
    file: "%s"
errorHandling:
  errorFile: "%s"
`, server.URL, artifactPath, csvPath, parquetPath, reportPath)
	if err := os.WriteFile(configPath, []byte(configBody), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewFetchRunner().Run([]string{"-config", configPath, "-loglevel", "error"}); err != nil {
		t.Fatalf("fetch stage failed: %v", err)
	}
	if _, err := os.Stat(artifactPath); err != nil {
		t.Fatalf("artifact not committed: %v", err)
	}

	if err := NewProcessRunner().Run([]string{"-config", configPath, "-loglevel", "error"}); err != nil {
		t.Fatalf("process stage failed: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("csv output missing: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("csv output unparseable: %v", err)
	}
	// Header plus one row: the invalid record is rejected and the duplicate
	// id collapses to its last occurrence.
	if len(rows) != 2 {
		t.Fatalf("got %d csv rows, want 2", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "Ada King" {
		t.Errorf("surviving row wrong: %v", rows[1])
	}

	if info, err := os.Stat(parquetPath); err != nil || info.Size() == 0 {
		t.Errorf("parquet output missing or empty: %v", err)
	}
	report, err := os.ReadFile(reportPath)
	if err != nil || !bytes.Contains(report, []byte("salary")) {
		t.Errorf("error report missing the salary failure: %v, %s", err, report)
	}
}
