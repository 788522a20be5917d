package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Knetic/govaluate"
)

// Known valid enum values for configuration fields.
var (
	knownLogLevels       = []string{"none", "error", "warn", "warning", "info", "debug"}
	knownPaginationModes = []string{PaginationModeOffset, PaginationModeToken}
)

// isValidEnumValue checks if a value is present in a list of allowed string values (case-insensitive).
func isValidEnumValue(value string, allowedValues []string) bool {
	lowerValue := strings.ToLower(value)
	for _, allowed := range allowedValues {
		if lowerValue == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ValidateConfig performs comprehensive validation of the pipeline configuration.
// All problems are collected and reported together.
func ValidateConfig(cfg *PipelineConfig) error {
	var allErrors []string

	if !isValidEnumValue(cfg.Logging.Level, knownLogLevels) {
		allErrors = append(allErrors, fmt.Sprintf("- Config.Logging.Level: invalid log level '%s', must be one of %v", cfg.Logging.Level, knownLogLevels))
	}

	allErrors = append(allErrors, validateAPIConfig("Config.API", &cfg.API)...)

	if cfg.Artifact.Path == "" {
		allErrors = append(allErrors, "- Config.Artifact.Path: artifact path is required")
	}

	if cfg.Filter != "" {
		if _, err := govaluate.NewEvaluableExpression(cfg.Filter); err != nil {
			allErrors = append(allErrors, fmt.Sprintf("- Config.Filter: invalid expression syntax: %v", err))
		}
	}

	allErrors = append(allErrors, validateOutputConfig("Config.Outputs", &cfg.Outputs)...)

	if len(allErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(allErrors, "\n"))
	}
	return nil
}

// validateAPIConfig checks the remote endpoint description and fetch policy.
func validateAPIConfig(prefix string, api *APIConfig) []string {
	var errs []string

	if api.Endpoint == "" {
		errs = append(errs, fmt.Sprintf("- %s.Endpoint: endpoint URL is required", prefix))
	} else {
		u, err := url.Parse(api.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("- %s.Endpoint: '%s' is not a valid http(s) URL", prefix, api.Endpoint))
		}
	}

	if api.PageSize <= 0 {
		errs = append(errs, fmt.Sprintf("- %s.PageSize: must be positive, got %d", prefix, api.PageSize))
	}
	if api.MaxRetries < 1 {
		errs = append(errs, fmt.Sprintf("- %s.MaxRetries: must be at least 1, got %d", prefix, api.MaxRetries))
	}
	if api.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("- %s.Concurrency: must be at least 1, got %d", prefix, api.Concurrency))
	}

	if api.Timeout != "" {
		if d, err := time.ParseDuration(api.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("- %s.Timeout: '%s' is not a positive duration", prefix, api.Timeout))
		}
	}
	if api.RetryBackoffBase != "" {
		if d, err := time.ParseDuration(api.RetryBackoffBase); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("- %s.RetryBackoffBase: '%s' is not a positive duration", prefix, api.RetryBackoffBase))
		}
	}

	if !isValidEnumValue(api.Pagination.Mode, knownPaginationModes) {
		errs = append(errs, fmt.Sprintf("- %s.Pagination.Mode: invalid mode '%s', must be one of %v", prefix, api.Pagination.Mode, knownPaginationModes))
	}

	return errs
}

// validateOutputConfig checks the sink definitions. CSV and Parquet are the
// contract-required sinks; XLSX and Postgres are validated only when present.
func validateOutputConfig(prefix string, out *OutputConfig) []string {
	var errs []string

	if out.CSV == nil || out.CSV.File == "" {
		errs = append(errs, fmt.Sprintf("- %s.CSV.File: CSV output path is required", prefix))
	} else if out.CSV.Delimiter != "" && utf8.RuneCountInString(out.CSV.Delimiter) != 1 {
		errs = append(errs, fmt.Sprintf("- %s.CSV.Delimiter: '%s' must be a single character", prefix, out.CSV.Delimiter))
	}

	if out.Parquet == nil || out.Parquet.File == "" {
		errs = append(errs, fmt.Sprintf("- %s.Parquet.File: Parquet output path is required", prefix))
	}

	if out.XLSX != nil && out.XLSX.File == "" {
		errs = append(errs, fmt.Sprintf("- %s.XLSX.File: file path is required when the XLSX sink is configured", prefix))
	}

	if out.Postgres != nil && out.Postgres.TargetTable == "" {
		errs = append(errs, fmt.Sprintf("- %s.Postgres.TargetTable: target table is required when the Postgres sink is configured", prefix))
	}

	return errs
}
