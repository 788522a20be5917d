package processor

import (
	"context"
	"fmt"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/schema"
	"emp-pipeline/internal/sink"
	"emp-pipeline/internal/util"

	"github.com/Knetic/govaluate"
)

// RunState tracks the lifecycle of one processing run.
type RunState string

const (
	StateNotStarted RunState = "NOT_STARTED"
	StateInProgress RunState = "IN_PROGRESS"
	StateCommitted  RunState = "COMMITTED"
	StateFailed     RunState = "FAILED"
)

// Summary is the outcome of one processing run. Per-record validation
// failures are aggregated here rather than aborting the run.
type Summary struct {
	// Read is the number of records in the artifact.
	Read int
	// Filtered counts records excluded by the filter expression.
	Filtered int
	// Valid counts records that passed validation, before deduplication.
	Valid int
	// Deduped counts records removed as duplicate identifiers.
	Deduped int
	// Failed counts records rejected by validation.
	Failed   int
	Failures []schema.ValidationFailure
	State    RunState
}

// Written is the number of rows handed to each sink.
func (s *Summary) Written() int {
	return s.Valid - s.Deduped
}

// Transformer drives one processing run: read the committed artifact,
// filter, validate, deduplicate, then write every sink.
type Transformer struct {
	artifactPath string
	filter       *govaluate.EvaluableExpression
	sinks        []sink.RowSink
	errorReport  *sink.ErrorReport
	dryRun       bool
}

// NewTransformer builds a Transformer from the validated configuration and
// the already-constructed sinks. errorReport may be nil.
func NewTransformer(cfg *config.PipelineConfig, sinks []sink.RowSink, errorReport *sink.ErrorReport, dryRun bool) (*Transformer, error) {
	t := &Transformer{
		artifactPath: util.ExpandEnvUniversal(cfg.Artifact.Path),
		sinks:        sinks,
		errorReport:  errorReport,
		dryRun:       dryRun,
	}
	if cfg.Filter != "" {
		expr, err := govaluate.NewEvaluableExpression(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression '%s': %w", cfg.Filter, err)
		}
		t.filter = expr
	}
	return t, nil
}

// Run executes the processing stage. A returned error means the run is
// fatal: nothing partial remains at any sink's final path. Per-record
// validation failures never fail the run; they are counted in the summary
// and, when configured, appended to the error report.
func (t *Transformer) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{State: StateInProgress}

	art, err := sink.ReadArtifact(t.artifactPath)
	if err != nil {
		sum.State = StateFailed
		return sum, err
	}
	sum.Read = len(art.Records)
	logging.Logf(logging.Info, "Processing %d records from %s", sum.Read, t.artifactPath)

	rows := make([]schema.TabularRow, 0, len(art.Records))
	for i, raw := range art.Records {
		if err := ctx.Err(); err != nil {
			sum.State = StateFailed
			return sum, err
		}

		if t.filter != nil {
			keep, err := t.evaluateFilter(raw)
			if err != nil {
				logging.Logf(logging.Warning, "Record %d: filter evaluation failed (%v), excluding record: %v", i, err, util.MaskSensitiveData(raw))
				sum.Filtered++
				continue
			}
			if !keep {
				sum.Filtered++
				continue
			}
		}

		row, dropped, failure := schema.Normalize(raw)
		for _, field := range dropped {
			logging.Logf(logging.Warning, "Record %d: dropping unknown field '%s'", i, field)
		}
		if failure != nil {
			sum.Failed++
			sum.Failures = append(sum.Failures, *failure)
			logging.Logf(logging.Warning, "Record %d failed validation: %v", i, failure)
			if t.errorReport != nil {
				if werr := t.errorReport.Write(raw, failure); werr != nil {
					sum.State = StateFailed
					return sum, fmt.Errorf("failed to report invalid record: %w", werr)
				}
			}
			continue
		}
		rows = append(rows, row)
	}

	sum.Valid = len(rows)
	rows = schema.Deduplicate(rows)
	sum.Deduped = sum.Valid - len(rows)

	if t.dryRun {
		logging.Logf(logging.Info, "Dry run: validated %d rows (%d duplicates), skipping %d sink write(s)", len(rows), sum.Deduped, len(t.sinks))
		sum.State = StateCommitted
		return sum, nil
	}

	for _, s := range t.sinks {
		if err := s.Write(ctx, rows); err != nil {
			sum.State = StateFailed
			return sum, fmt.Errorf("sink %s failed: %w", s.Name(), err)
		}
	}
	sum.State = StateCommitted

	logging.Logf(logging.Info, "Run complete: read=%d filtered=%d failed=%d deduped=%d written=%d",
		sum.Read, sum.Filtered, sum.Failed, sum.Deduped, sum.Written())
	return sum, nil
}

// evaluateFilter applies the configured expression to a raw record. The
// expression must yield a boolean.
func (t *Transformer) evaluateFilter(raw map[string]interface{}) (bool, error) {
	result, err := t.filter.Evaluate(raw)
	if err != nil {
		return false, err
	}
	keep, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression returned %T, expected boolean", result)
	}
	return keep, nil
}
