package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	opr "github.com/sktamanpelangi/go-opr"
	"github.com/sktamanpelangi/go-opr/internal/dateutil"
	"github.com/sktamanpelangi/go-opr/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrInvalidFlags       = errors.New("invalid flags")
	ErrReadRecord         = errors.New("failed to read record file")
	ErrParseRecord        = errors.New("failed to parse record file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrTooManyOutputs     = errors.New("output file name given for several records")
	ErrReportSkipped      = errors.New("report element was not ready, nothing written")
)

// printError writes err with an actionable hint and, for report errors,
// the notice a form user would see.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v%s\n", err, hintFor(err))
	if notice := userNotice(err); notice != "" {
		fmt.Fprintln(w, notice)
	}
}

// hintFor returns the hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, opr.ErrBrowserConnect):
		return hints.ForBrowserConnect(hints.CurrentBrowserEnv())
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, opr.ErrMissingProgramName):
		return hints.ForMissingProgramName()
	case errors.Is(err, opr.ErrNotImage):
		return hints.ForImageFormat()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, opr.ErrUnknownField):
		return hints.ForUnknownField(fieldKeys())
	case errors.Is(err, dateutil.ErrInvalidDateFormat):
		return hints.ForDateFormat()
	}
	return ""
}

// userNotice returns the Malay notice for errors a report author can act on.
func userNotice(err error) string {
	if errors.Is(err, opr.ErrCapacityExceeded) ||
		errors.Is(err, opr.ErrMissingProgramName) ||
		errors.Is(err, opr.ErrGenerationInProgress) ||
		errors.Is(err, opr.ErrRender) ||
		errors.Is(err, opr.ErrCapture) ||
		errors.Is(err, opr.ErrAssemble) {
		return opr.UserMessage(err)
	}
	return ""
}
