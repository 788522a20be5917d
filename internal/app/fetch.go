package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emp-pipeline/internal/fetch"
	"emp-pipeline/internal/logging"
	"emp-pipeline/internal/sink"
	"emp-pipeline/internal/util"
)

// FetchRunner drives the ingestion stage: pull every page from the API and
// commit the raw artifact.
type FetchRunner struct{}

// NewFetchRunner creates a new ingestion runner.
func NewFetchRunner() *FetchRunner {
	return &FetchRunner{}
}

const fetchUsageText = `Usage:
  emp-fetch [options]

Options:
  -config string
        YAML configuration file (default "config/pipeline.yaml")
  -endpoint string
        Override API endpoint from config
  -artifact string
        Override artifact path from config
  -loglevel string
        Logging level (none, error, warn, info, debug) (default "info")
  -help
        Show help

Environment Variables:
  Any VAR          Can be used in config values via $VAR/${VAR} or %VAR%

Examples:
  emp-fetch -config=config/pipeline.yaml -loglevel=debug
  emp-fetch -artifact=/data/employees-raw.json
`

// Usage prints the command-line help information to the specified writer.
func (r *FetchRunner) Usage(writer io.Writer) {
	fmt.Fprint(writer, fetchUsageText)
}

// Run parses command-line arguments and executes the ingestion stage.
// Interrupt signals cancel the run; a cancelled run leaves no artifact.
func (r *FetchRunner) Run(args []string) error {
	fs := flag.NewFlagSet("emp-fetch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configFile := fs.String("config", defaultConfigPath, "YAML configuration file")
	flagEndpoint := fs.String("endpoint", "", "Override API endpoint from config")
	flagArtifact := fs.String("artifact", "", "Override artifact path from config")
	logLevelStr := fs.String("loglevel", "info", "Logging level")
	helpFlag := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			r.Usage(os.Stderr)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *helpFlag {
		r.Usage(os.Stderr)
		return nil
	}

	logging.SetupLogging(*logLevelStr)
	cfg, err := loadConfig(*configFile, isFlagSet(fs, "loglevel"))
	if err != nil {
		return err
	}

	if *flagEndpoint != "" {
		cfg.API.Endpoint = *flagEndpoint
		logging.Logf(logging.Info, "Override endpoint: %s", util.MaskCredentials(*flagEndpoint))
	}
	cfg.API.Endpoint = util.ExpandEnvUniversal(cfg.API.Endpoint)
	cfg.API.Credentials = util.ExpandEnvUniversal(cfg.API.Credentials)

	artifactPath := cfg.Artifact.Path
	if *flagArtifact != "" {
		artifactPath = *flagArtifact
		logging.Logf(logging.Info, "Override artifact path: %s", artifactPath)
	}
	artifactPath = util.ExpandEnvUniversal(artifactPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.API)
	res, err := client.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	art := &sink.Artifact{
		Records: res.Records,
		Pagination: sink.PaginationMeta{
			Pages:     res.Pages,
			PageSize:  cfg.API.PageSize,
			Total:     res.Total,
			FetchedAt: time.Now().UTC(),
		},
	}
	if err := sink.WriteArtifact(artifactPath, art); err != nil {
		return fmt.Errorf("failed to commit artifact: %w", err)
	}

	logging.Logf(logging.Info, "Committed artifact with %d records to %s", len(art.Records), artifactPath)
	return nil
}
