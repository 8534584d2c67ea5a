package network

import "errors"

// Transport conditions the session logic distinguishes
var (
	ErrPollTimeout     = errors.New("poll timed out")
	ErrNothingReceived = errors.New("peer closed connection")
	ErrTransmission    = errors.New("transmission error")
)
