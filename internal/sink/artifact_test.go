package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	want := &Artifact{
		Records: []map[string]interface{}{
			{"id": float64(1), "full_name": "One"},
			{"id": float64(2), "full_name": "Two"},
		},
		Pagination: PaginationMeta{
			Pages:     2,
			PageSize:  1,
			Total:     2,
			FetchedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		},
	}

	if err := WriteArtifact(path, want); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	got, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(got.Records))
	}
	if got.Records[1]["full_name"] != "Two" {
		t.Errorf("record content lost: %v", got.Records[1])
	}
	if got.Pagination.Pages != 2 || got.Pagination.Total != 2 {
		t.Errorf("pagination metadata lost: %+v", got.Pagination)
	}
	if !got.Pagination.FetchedAt.Equal(want.Pagination.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.Pagination.FetchedAt, want.Pagination.FetchedAt)
	}
}

func TestReadArtifactBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	if err := os.WriteFile(path, []byte(`[{"id": 1}, {"id": 2}]`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}
	if len(got.Records) != 2 {
		t.Errorf("got %d records, want 2", len(got.Records))
	}
	if got.Pagination.Total != -1 {
		t.Errorf("Total = %d, want -1 for a bare array", got.Pagination.Total)
	}
}

func TestReadArtifactCorrupt(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "truncated object", body: `{"records": [`},
		{name: "truncated array", body: `[{"id": 1}`},
		{name: "empty file", body: ``},
		{name: "object without records", body: `{"pagination": {}}`},
		{name: "wrong element type", body: `[1, 2, 3]`},
		{name: "plain text", body: `this was never json`, wantMsg: "not JSON"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "raw.json")
			if err := os.WriteFile(path, []byte(tc.body), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := ReadArtifact(path)
			if !errors.Is(err, ErrCorruptArtifact) {
				t.Fatalf("expected ErrCorruptArtifact, got %v", err)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestReadArtifactMissingFile(t *testing.T) {
	_, err := ReadArtifact(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected an error for a missing artifact")
	}
	if errors.Is(err, ErrCorruptArtifact) {
		t.Fatal("a missing file must not be reported as corrupt")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestWriteFileAtomicFailureLeavesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	err := WriteFileAtomic(path, func(f *os.File) error {
		fmt.Fprint(f, "partial content that must never be visible")
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected the write error to propagate")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("final path unreadable after failed write: %v", err)
	}
	if string(got) != "previous" {
		t.Errorf("previous content destroyed, got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestWriteFileAtomicCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.txt")
	err := WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("hello")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "hello" {
		t.Fatalf("content = %q, err = %v", got, err)
	}
}
