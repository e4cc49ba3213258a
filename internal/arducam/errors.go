package arducam

import "errors"

var (
	// ErrNoData is returned when a register holds NoDataAvailable.
	ErrNoData = errors.New("arducam: no data available")

	// ErrInvalidChannel is returned for channel indexes outside [0, MaxChannels).
	ErrInvalidChannel = errors.New("arducam: invalid channel")
)
