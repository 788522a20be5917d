package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads, parses, and validates the YAML configuration file.
// Defaults are applied before validation.
func LoadConfig(filename string) (*PipelineConfig, error) {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}

	var config PipelineConfig
	if err := yaml.Unmarshal(fileBytes, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in '%s': %w", filename, err)
	}

	applyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills unset fields with their documented defaults.
func applyDefaults(cfg *PipelineConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = DefaultPageSize
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = DefaultMaxRetries
	}
	if cfg.API.Concurrency == 0 {
		cfg.API.Concurrency = DefaultConcurrency
	}

	applyPaginationDefaults(&cfg.API.Pagination)

	if cfg.Outputs.CSV != nil && cfg.Outputs.CSV.Delimiter == "" {
		cfg.Outputs.CSV.Delimiter = DefaultCSVDelimiter
	}
	if cfg.Outputs.XLSX != nil && cfg.Outputs.XLSX.SheetName == "" {
		cfg.Outputs.XLSX.SheetName = DefaultSheetName
	}
}

// applyPaginationDefaults sets the default paging contract field names.
func applyPaginationDefaults(p *PaginationConfig) {
	if p.Mode == "" {
		p.Mode = PaginationModeOffset
	}
	if p.RecordsField == "" {
		p.RecordsField = DefaultRecordsField
	}
	if p.TotalField == "" {
		p.TotalField = DefaultTotalField
	}
	if p.NextTokenField == "" {
		p.NextTokenField = DefaultNextTokenField
	}
	if p.OffsetParam == "" {
		p.OffsetParam = DefaultOffsetParam
	}
	if p.LimitParam == "" {
		p.LimitParam = DefaultLimitParam
	}
	if p.TokenParam == "" {
		p.TokenParam = DefaultTokenParam
	}
}
