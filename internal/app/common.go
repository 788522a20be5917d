package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"emp-pipeline/internal/config"
	"emp-pipeline/internal/logging"
)

// Common application-level errors.
var (
	ErrUsage          = errors.New("usage error")
	ErrConfigNotFound = errors.New("configuration file not found")
)

// defaultConfigPath is where both stage binaries look for the shared
// configuration file.
const defaultConfigPath = "config/pipeline.yaml"

// osStatFunc allows overriding os.Stat for testing.
var osStatFunc = os.Stat

// loadConfig stats and loads the configuration file, then applies the file's
// log level unless the command line already set one.
func loadConfig(path string, logLevelFlagSet bool) (*config.PipelineConfig, error) {
	if _, err := osStatFunc(path); err != nil {
		if os.IsNotExist(err) {
			logging.Logf(logging.Error, "Config file '%s' not found", path)
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Logf(logging.Error, "Error loading config '%s': %v", path, err)
		return nil, err
	}
	if !logLevelFlagSet && cfg.Logging.Level != "" {
		logging.SetupLogging(cfg.Logging.Level)
	}
	return cfg, nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
