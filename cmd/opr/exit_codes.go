package main

import (
	"errors"
	"os"

	opr "github.com/sktamanpelangi/go-opr"
	"github.com/sktamanpelangi/go-opr/internal/config"
	"github.com/sktamanpelangi/go-opr/internal/dateutil"
)

// Exit codes for the opr CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Report generated
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, record or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, opr.ErrBrowserConnect) ||
		errors.Is(err, opr.ErrPageLoad) ||
		errors.Is(err, opr.ErrCapture) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadRecord) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, opr.ErrLogoNotFound) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, opr.ErrMissingProgramName) ||
		errors.Is(err, opr.ErrCapacityExceeded) ||
		errors.Is(err, opr.ErrUnknownField) ||
		errors.Is(err, opr.ErrInvalidAssetPath) ||
		errors.Is(err, opr.ErrInvalidDataURI) ||
		errors.Is(err, opr.ErrNotImage) ||
		errors.Is(err, ErrInvalidFlags) ||
		errors.Is(err, ErrParseRecord) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrTooManyOutputs) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
