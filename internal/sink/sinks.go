package sink

import (
	"context"

	"emp-pipeline/internal/schema"
)

// RowSink writes the complete validated dataset to one destination. Sinks
// receive the full slice in a single call so each output is committed whole
// or not at all.
type RowSink interface {
	// Name identifies the sink in logs and the run summary.
	Name() string
	// Write persists the rows. Implementations honor ctx cancellation and
	// must not leave a partial file at their final path on error.
	Write(ctx context.Context, rows []schema.TabularRow) error
}
