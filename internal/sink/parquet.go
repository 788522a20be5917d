package sink

import (
	"context"
	"fmt"
	"os"
	"time"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/schema"
	"emp-pipeline/internal/util"

	"github.com/parquet-go/parquet-go"
)

// ParquetSink writes the dataset as a single-row-group Parquet file.
type ParquetSink struct {
	filePath string
}

// parquetRow mirrors schema.TabularRow with the hire date as days since the
// Unix epoch, the Parquet DATE representation. The date tag requires a plain
// int32 field; with optional, the zero value (the epoch itself) encodes as
// null, which stands in for an absent date.
type parquetRow struct {
	ID                int64   `parquet:"id"`
	FullName          string  `parquet:"full_name"`
	Email             string  `parquet:"email"`
	Phone             string  `parquet:"phone"`
	Gender            string  `parquet:"gender"`
	Age               int32   `parquet:"age"`
	JobTitle          string  `parquet:"job_title"`
	HireDate          int32   `parquet:"hire_date,optional,date"`
	YearsOfExperience int32   `parquet:"years_of_experience"`
	Salary            float64 `parquet:"salary"`
	Department        string  `parquet:"department"`
	Designation       string  `parquet:"designation"`
}

// NewParquetSink builds a Parquet sink from its configuration.
func NewParquetSink(cfg config.ParquetSinkConfig) *ParquetSink {
	return &ParquetSink{filePath: util.ExpandEnvUniversal(cfg.File)}
}

// Name implements RowSink.
func (s *ParquetSink) Name() string { return "parquet" }

// Write commits the rows atomically. An empty dataset still produces a valid
// file carrying only the schema.
func (s *ParquetSink) Write(ctx context.Context, rows []schema.TabularRow) error {
	logging.Logf(logging.Debug, "ParquetSink writing %d rows to %s", len(rows), s.filePath)

	err := WriteFileAtomic(s.filePath, func(f *os.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		converted := make([]parquetRow, len(rows))
		for i, row := range rows {
			converted[i] = toParquetRow(row)
		}
		w := parquet.NewGenericWriter[parquetRow](f)
		if len(converted) > 0 {
			if _, err := w.Write(converted); err != nil {
				return fmt.Errorf("ParquetSink failed to write row group: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("ParquetSink failed to finalize file: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Logf(logging.Info, "ParquetSink wrote %d rows to %s", len(rows), s.filePath)
	return nil
}

func toParquetRow(r schema.TabularRow) parquetRow {
	row := parquetRow{
		ID:                r.ID,
		FullName:          r.FullName,
		Email:             r.Email,
		Phone:             r.Phone,
		Gender:            r.Gender,
		Age:               r.Age,
		JobTitle:          r.JobTitle,
		YearsOfExperience: r.YearsOfExperience,
		Salary:            r.Salary,
		Department:        r.Department,
		Designation:       r.Designation,
	}
	if !r.HireDate.IsZero() {
		row.HireDate = daysSinceEpoch(r.HireDate)
	}
	return row
}

func daysSinceEpoch(t time.Time) int32 {
	return int32(t.UTC().Truncate(24*time.Hour).Unix() / 86400)
}
