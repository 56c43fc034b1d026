package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates a payload which can't be decoded.
	ErrMalformed = errors.New("codec: malformed payload")
	// ErrShortPayload indicates the payload ended before all fields were read.
	ErrShortPayload = errors.New("codec: short payload")
	// ErrUnknownParam indicates a parameter name not in the table.
	ErrUnknownParam = errors.New("codec: unknown parameter")
	// ErrUnsupported indicates the message has no adapter for the codec.
	ErrUnsupported = errors.New("codec: unsupported message")
	// ErrTypeMismatch indicates the payload carries another message type.
	ErrTypeMismatch = errors.New("codec: message type mismatch")
)

// UnknownTypeError indicates no message is registered for the key.
type UnknownTypeError struct {
	Key Key
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("codec: unknown type: %s", e.Key)
}

// UnknownCodecError indicates no codec is registered for a frame identifier.
type UnknownCodecError struct {
	FrameID byte
}

// Error implements error.
func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("codec: no codec for frame %02x", e.FrameID)
}
