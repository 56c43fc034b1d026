package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRecognized indicates the bytes don't belong to the protocol.
	ErrNotRecognized = errors.New("link: not recognized")
	// ErrIncomplete indicates more bytes are needed to complete a frame.
	ErrIncomplete = errors.New("link: incomplete frame")
	// ErrMalformed indicates the framing matched but the frame is corrupt.
	ErrMalformed = errors.New("link: malformed frame")
	// ErrFrameTooLarge indicates the payload exceeds what the protocol can carry.
	ErrFrameTooLarge = errors.New("link: frame too large")
	// ErrNoProtocol indicates no protocol is registered for sending.
	ErrNoProtocol = errors.New("link: no protocol")
)

// TransportError wraps failures from the Transport.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("link: transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ReplyError reports a reply the handler produced but the protocol could
// not encode.
type ReplyError struct {
	Protocol string
	ID       byte
	Err      error
}

// Error implements error.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("link: %s reply %02x: %v", e.Protocol, e.ID, e.Err)
}

// Unwrap returns the encode error.
func (e *ReplyError) Unwrap() error {
	return e.Err
}
