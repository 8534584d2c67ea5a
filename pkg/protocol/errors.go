package protocol

import "errors"

var (
	ErrStatementNotFound = errors.New("statement not found")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrMalformed         = errors.New("malformed datagram")
	ErrTooLong           = errors.New("datagram exceeds maximum length")
)
