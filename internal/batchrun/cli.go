package batchrun

import (
	"fmt"
	"os"

	"github.com/okian/platecheck/pkg/logger"
)

// SetupLogging initializes the global logger for the command line. Verbose
// runs log at debug level.
func SetupLogging(format string, verbose bool) error {
	if err := logger.Init(logger.WithFormat(format), logger.WithOutput(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the batch tool.
func ShowHelp() {
	os.Stdout.WriteString(`Plate Check Batch Tool
======================

Runs every image in a directory through the plate recognition pipeline,
in file name order, and writes the comparison history as CSV.

Usage:
  go run ./cmd/batch -dir <images> [options]

Options:
  -dir string
        Directory holding .jpg, .jpeg, .png or .webp images (required)
  -output string
        CSV output path (default: 차량번호_분석_히스토리_YYYYMMDD.csv)
  -premium-password string
        Premium password; adds the precision OCR cross-check
  -verbose
        Print every outcome and log at debug level
  -help
        Show this help message

Providers, credentials and timeouts come from the same configuration as
the server (PLATECHECK_CONFIG, PLATECHECK_* environment variables, .env).

Examples:
  # Standard tier
  go run ./cmd/batch -dir ./photos

  # Premium tier with a custom output file
  go run ./cmd/batch -dir ./photos -premium-password "$PW" -output out/report.csv
`)
}
