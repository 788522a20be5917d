package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/util"
)

// ErrCorruptArtifact reports that the committed artifact exists but cannot be
// parsed. The run must stop; a corrupt artifact is never partially processed.
var ErrCorruptArtifact = errors.New("raw artifact is corrupt")

// Artifact is the handoff between the fetch and process stages: the raw
// records exactly as the API returned them, plus metadata about the run that
// produced them.
type Artifact struct {
	Records    []map[string]interface{} `json:"records"`
	Pagination PaginationMeta           `json:"pagination"`
}

// PaginationMeta records how the artifact was assembled.
type PaginationMeta struct {
	Pages    int `json:"pages"`
	PageSize int `json:"page_size"`
	// Total is the count the API reported, -1 when it reported none.
	Total     int       `json:"total"`
	FetchedAt time.Time `json:"fetched_at"`
}

// WriteArtifact commits the artifact to path atomically.
func WriteArtifact(path string, art *Artifact) error {
	logging.Logf(logging.Debug, "Writing artifact with %d records to %s", len(art.Records), path)
	return WriteFileAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(art); err != nil {
			return fmt.Errorf("failed to encode artifact: %w", err)
		}
		return nil
	})
}

// ReadArtifact loads a committed artifact. A bare JSON array is accepted as
// an artifact with no pagination metadata. A file that exists but does not
// parse yields ErrCorruptArtifact.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact '%s': %w", path, err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []map[string]interface{}
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v (body: %s)", ErrCorruptArtifact, err, util.Snippet(data))
		}
		return &Artifact{Records: records, Pagination: PaginationMeta{Total: -1}}, nil
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		if !util.LooksLikeJSON(string(data)) {
			return nil, fmt.Errorf("%w: content is not JSON (body: %s)", ErrCorruptArtifact, util.Snippet(data))
		}
		return nil, fmt.Errorf("%w: %v (body: %s)", ErrCorruptArtifact, err, util.Snippet(data))
	}
	if art.Records == nil {
		return nil, fmt.Errorf("%w: artifact object has no 'records' array", ErrCorruptArtifact)
	}
	return &art, nil
}
