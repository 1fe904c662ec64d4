package opr

import "errors"

// Sentinel errors for library operations.
var (
	// Record and state errors.
	ErrMissingProgramName   = errors.New("program name is required")
	ErrUnknownField         = errors.New("unknown record field")
	ErrFieldType            = errors.New("wrong value type for field")
	ErrCapacityExceeded     = errors.New("image capacity exceeded")
	ErrGenerationInProgress = errors.New("generation already in progress")

	// Image ingestion errors.
	ErrNotImage       = errors.New("not a supported image")
	ErrImageTooLarge  = errors.New("image exceeds size limit")
	ErrInvalidDataURI = errors.New("invalid data URI")

	// Pipeline stage errors. Generate wraps every stage failure with one of these.
	ErrRender   = errors.New("report rendering failed")
	ErrCapture  = errors.New("report capture failed")
	ErrAssemble = errors.New("PDF assembly failed")

	// Rasterizer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load page")
	ErrTargetNotReady = errors.New("report element not ready")

	// Assembler errors.
	ErrInvalidBitmap = errors.New("invalid bitmap")

	// Configuration errors.
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrLogoNotFound     = errors.New("logo file not found")
)
