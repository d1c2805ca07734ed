package frameparser

import "errors"

// ErrorCode is an HTTP/3 application error code as defined by RFC 9114
// section 8.1. The parser never interprets these beyond picking one for the
// failure callbacks; they travel opaquely to the listener and from there to
// the transport close.
type ErrorCode uint64

const (
	ErrNoError              ErrorCode = 0x0100
	ErrGeneralProtocolError ErrorCode = 0x0101
	ErrInternalError        ErrorCode = 0x0102
	ErrFrameUnexpected      ErrorCode = 0x0105
	ErrFrameError           ErrorCode = 0x0106
)

// errMalformedFrame is the root of every grammar violation raised by the
// body parsers. The individual sites wrap it with the specific cause, which
// is only ever used for debug logging: at the Parse boundary every cause
// collapses into one session failure with ErrInternalError and a generic
// reason, so frame boundaries that can no longer be trusted are not
// reinterpreted.
var errMalformedFrame = errors.New("malformed frame")
