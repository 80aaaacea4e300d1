package fa

import "errors"

// Typed errors returned to callers, per the error handling design: user
// input and lookup errors are returned, not asserted.
var (
	ErrMaskIDOutOfRange   = errors.New("fa: mask id out of range")
	ErrMaskEmptyRange     = errors.New("fa: mask range is empty")
	ErrMaskBadChar        = errors.New("fa: unexpected character in mask")
	ErrMaskBufferTooSmall = errors.New("fa: mask buffer too small")

	ErrHeaderInvalid = errors.New("fa: archive header is invalid")

	ErrWriterBacklog = errors.New("fa: disk writer has fallen behind, dropping sniffer data")

	ErrTimestampStartTooLate = errors.New("fa: start time too late")
	ErrTimestampEndTooLate   = errors.New("fa: end timestamp too late")
	ErrTimestampInGap        = errors.New("fa: start time in data gap")
)
