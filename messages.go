package opr

import (
	"errors"
	"fmt"
)

// User-facing notices, in Malay.
var (
	MsgCapacity       = fmt.Sprintf("Maksimum %d gambar sahaja dibenarkan.", MaxImages)
	MsgMissingName    = "Sila masukkan Nama Program / Aktiviti terlebih dahulu."
	MsgGenerating     = "Laporan sedang dijana. Sila tunggu."
	MsgGenerateFailed = "Ralat semasa menjana PDF. Sila cuba lagi."
)

// UserMessage returns the notice to show a user for err, or "" for nil.
// Errors without a specific notice map to MsgGenerateFailed.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCapacityExceeded):
		return MsgCapacity
	case errors.Is(err, ErrMissingProgramName):
		return MsgMissingName
	case errors.Is(err, ErrGenerationInProgress):
		return MsgGenerating
	default:
		return MsgGenerateFailed
	}
}
