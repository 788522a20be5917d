package config

import "time"

// Constants for configuration modes and defaults.
const (
	PaginationModeOffset = "offset" // offset/limit query parameters
	PaginationModeToken  = "token"  // opaque next-page token

	DefaultLogLevel         = "info"
	DefaultPageSize         = 100
	DefaultMaxRetries       = 3
	DefaultRetryBackoffBase = 500 * time.Millisecond
	DefaultRequestTimeout   = 10 * time.Second
	DefaultConcurrency      = 1

	DefaultRecordsField   = "employees"
	DefaultTotalField     = "total"
	DefaultNextTokenField = "next_token"
	DefaultOffsetParam    = "offset"
	DefaultLimitParam     = "limit"
	DefaultTokenParam     = "page_token"

	DefaultCSVDelimiter = ","
	DefaultSheetName    = "Employees"
)

// PipelineConfig is the top-level structure of the YAML configuration file.
// Both stage binaries read the same file; the fetch stage uses API and
// Artifact, the process stage uses Artifact, Filter, Outputs and ErrorHandling.
type PipelineConfig struct {
	// Logging configuration specifies the verbosity level.
	Logging LoggingConfig `yaml:"logging"`
	// API describes the remote employee endpoint consumed by the fetch stage.
	API APIConfig `yaml:"api"`
	// Artifact locates the raw JSON snapshot the two stages hand off through.
	Artifact ArtifactConfig `yaml:"artifact"`
	// Filter is an optional expression (govaluate syntax) evaluated against each
	// raw record before validation. Records evaluating to false are skipped.
	// Example: "department == 'Engineering' && salary > 0"
	Filter string `yaml:"filter,omitempty"`
	// Outputs defines the sink files/tables the process stage writes.
	Outputs OutputConfig `yaml:"outputs"`
	// ErrorHandling controls where failed-validation records are reported.
	ErrorHandling *ErrorHandlingConfig `yaml:"errorHandling,omitempty"`
}

// LoggingConfig holds settings related to logging verbosity.
type LoggingConfig struct {
	// Level defines the logging detail (e.g., "none", "error", "warn", "info", "debug").
	// Defaults to "info".
	Level string `yaml:"level"`
}

// APIConfig describes the remote HTTP API and the fetch policy.
type APIConfig struct {
	// Endpoint is the URL of the employee listing API. Required for fetch.
	// Environment variables are expanded.
	Endpoint string `yaml:"endpoint"`
	// Credentials is a bearer token sent in the Authorization header.
	// Environment variables are expanded. Optional; masked in all log output.
	Credentials string `yaml:"credentials,omitempty"`
	// PageSize is the number of records requested per page. Must be positive.
	PageSize int `yaml:"pageSize"`
	// Timeout bounds each HTTP request (e.g., "10s"). Defaults to 10s.
	Timeout string `yaml:"timeout,omitempty"`
	// MaxRetries is the attempt ceiling per page for retryable failures.
	// Defaults to 3.
	MaxRetries int `yaml:"maxRetries,omitempty"`
	// RetryBackoffBase is the first retry delay (e.g., "500ms"); each
	// subsequent delay doubles. Defaults to 500ms.
	RetryBackoffBase string `yaml:"retryBackoffBase,omitempty"`
	// Concurrency is the number of simultaneous page requests for offset
	// pagination. 1 (the default) fetches sequentially. Ignored for token
	// pagination, which is inherently sequential.
	Concurrency int `yaml:"concurrency,omitempty"`
	// Pagination describes the shape of the API's paging contract.
	Pagination PaginationConfig `yaml:"pagination,omitempty"`
}

// PaginationConfig parameterizes the API's paging contract rather than
// hardcoding one provider's field names.
type PaginationConfig struct {
	// Mode selects the paging style: "offset" (default) or "token".
	Mode string `yaml:"mode,omitempty"`
	// RecordsField is the response key holding the record array. A bare
	// top-level JSON array is also accepted. Defaults to "employees".
	RecordsField string `yaml:"recordsField,omitempty"`
	// TotalField is the response key holding the reported total count, if the
	// API provides one. Defaults to "total".
	TotalField string `yaml:"totalField,omitempty"`
	// NextTokenField is the response key holding the next-page token (token
	// mode). An absent or empty token ends the run. Defaults to "next_token".
	NextTokenField string `yaml:"nextTokenField,omitempty"`
	// OffsetParam / LimitParam are the query parameter names for offset mode.
	OffsetParam string `yaml:"offsetParam,omitempty"`
	LimitParam  string `yaml:"limitParam,omitempty"`
	// TokenParam is the query parameter name carrying the token (token mode).
	TokenParam string `yaml:"tokenParam,omitempty"`
}

// ArtifactConfig locates the committed raw artifact.
type ArtifactConfig struct {
	// Path is the final (committed) location of the raw JSON artifact.
	// Environment variables are expanded. Required.
	Path string `yaml:"path"`
}

// OutputConfig defines the sinks written by the process stage. CSV and
// Parquet are required; XLSX and Postgres are optional extras.
type OutputConfig struct {
	CSV      *CSVSinkConfig      `yaml:"csv"`
	Parquet  *ParquetSinkConfig  `yaml:"parquet"`
	XLSX     *XLSXSinkConfig     `yaml:"xlsx,omitempty"`
	Postgres *PostgresSinkConfig `yaml:"postgres,omitempty"`
}

// CSVSinkConfig configures the CSV output file.
type CSVSinkConfig struct {
	// File is the output path. Environment variables are expanded. Required.
	File string `yaml:"file"`
	// Delimiter is the field separator (default ","). Use '\t' for tab.
	Delimiter string `yaml:"delimiter,omitempty"`
}

// ParquetSinkConfig configures the Parquet output file.
type ParquetSinkConfig struct {
	// File is the output path. Environment variables are expanded. Required.
	File string `yaml:"file"`
}

// XLSXSinkConfig configures the optional Excel workbook output.
type XLSXSinkConfig struct {
	File string `yaml:"file"`
	// SheetName to write to. Defaults to "Employees".
	SheetName string `yaml:"sheetName,omitempty"`
}

// PostgresSinkConfig configures the optional database load. The connection
// string comes from the -db flag or the DB_CREDENTIALS environment variable,
// never from the config file.
type PostgresSinkConfig struct {
	// TargetTable is the destination table. Required when the sink is present.
	TargetTable string `yaml:"targetTable"`
}

// ErrorHandlingConfig controls the failed-record report.
type ErrorHandlingConfig struct {
	// ErrorFile is an optional path where records that fail validation are
	// appended (original data + error message, CSV format).
	ErrorFile string `yaml:"errorFile,omitempty"`
}

// RequestTimeout returns the parsed per-request timeout, falling back to the
// default. Validation guarantees the string parses.
func (a *APIConfig) RequestTimeout() time.Duration {
	if a.Timeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return DefaultRequestTimeout
	}
	return d
}

// BackoffBase returns the parsed initial retry delay, falling back to the
// default. Validation guarantees the string parses.
func (a *APIConfig) BackoffBase() time.Duration {
	if a.RetryBackoffBase == "" {
		return DefaultRetryBackoffBase
	}
	d, err := time.ParseDuration(a.RetryBackoffBase)
	if err != nil {
		return DefaultRetryBackoffBase
	}
	return d
}
