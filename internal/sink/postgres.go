package sink

import (
	"context"
	"errors"
	"fmt"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/schema"
	"emp-pipeline/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxPoolNewFunc allows overriding pgxpool.New for testing.
var pgxPoolNewFunc = pgxpool.New

// PostgresSink loads the dataset into a table with COPY FROM. The pool lives
// only for the duration of one Write call.
type PostgresSink struct {
	connStr     string
	targetTable string
}

// NewPostgresSink builds a Postgres sink. The connection string comes from
// the command line or environment, never the config file.
func NewPostgresSink(connStr string, cfg config.PostgresSinkConfig) *PostgresSink {
	return &PostgresSink{
		connStr:     connStr,
		targetTable: cfg.TargetTable,
	}
}

// Name implements RowSink.
func (s *PostgresSink) Name() string { return "postgres" }

// Write copies all rows into the target table in one COPY operation.
func (s *PostgresSink) Write(ctx context.Context, rows []schema.TabularRow) error {
	if len(rows) == 0 {
		logging.Logf(logging.Info, "PostgresSink: no rows to load into table '%s', skipping", s.targetTable)
		return nil
	}
	logging.Logf(logging.Debug, "PostgresSink loading %d rows into table '%s'", len(rows), s.targetTable)

	expandedConnStr := util.ExpandEnvUniversal(s.connStr)
	pool, err := pgxPoolNewFunc(ctx, expandedConnStr)
	if err != nil {
		maskedConnStr := util.MaskCredentials(expandedConnStr)
		logging.Logf(logging.Error, "PostgresSink failed to create connection pool: %s", maskedConnStr)
		return fmt.Errorf("PostgresSink failed to create connection pool (using %s): %w", maskedConnStr, err)
	}
	defer pool.Close()

	copyData := make([][]interface{}, len(rows))
	for i, row := range rows {
		copyData[i] = row.Values()
	}

	copyCount, err := pool.CopyFrom(ctx, pgx.Identifier{s.targetTable}, schema.Columns(), pgx.CopyFromRows(copyData))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return fmt.Errorf("PostgresSink load cancelled or timed out for table '%s': %w", s.targetTable, err)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			logging.Logf(logging.Error, "PostgresSink COPY failed for table '%s'. PG Error Code: %s, Message: %s, Detail: %s", s.targetTable, pgErr.Code, pgErr.Message, pgErr.Detail)
		}
		return fmt.Errorf("PostgresSink COPY failed for table '%s': %w", s.targetTable, err)
	}

	if copyCount != int64(len(rows)) {
		logging.Logf(logging.Warning, "PostgresSink: expected to copy %d rows to table '%s', driver reported %d", len(rows), s.targetTable, copyCount)
	} else {
		logging.Logf(logging.Info, "PostgresSink loaded %d rows into table '%s'", copyCount, s.targetTable)
	}
	return nil
}
