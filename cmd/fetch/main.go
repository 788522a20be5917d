package main

import (
	"errors"
	"fmt"
	"os"

	"emp-pipeline/internal/app"
	"emp-pipeline/internal/logging"
)

// main is the entry point for the emp-fetch ingestion binary.
func main() {
	runner := app.NewFetchRunner()

	if err := runner.Run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrConfigNotFound) {
			fmt.Fprintln(os.Stderr, "")
			runner.Usage(os.Stderr)
		}
		if logging.GetLevel() < logging.Error {
			logging.SetLevel(logging.Error)
		}
		logging.Logf(logging.Error, "Fetch failed: %v", err)
		os.Exit(1)
	}

	logging.Logf(logging.Info, "Fetch completed successfully.")
}
