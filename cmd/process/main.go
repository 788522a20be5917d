package main

import (
	"errors"
	"fmt"
	"os"

	"emp-pipeline/internal/app"
	"emp-pipeline/internal/logging"
)

// main is the entry point for the emp-process transformation binary.
func main() {
	runner := app.NewProcessRunner()

	if err := runner.Run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrConfigNotFound) {
			fmt.Fprintln(os.Stderr, "")
			runner.Usage(os.Stderr)
		}
		if logging.GetLevel() < logging.Error {
			logging.SetLevel(logging.Error)
		}
		logging.Logf(logging.Error, "Processing failed: %v", err)
		os.Exit(1)
	}

	logging.Logf(logging.Info, "Processing completed successfully.")
}
