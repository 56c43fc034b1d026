package link

import (
	"time"

	"github.com/robotalks/linkstack/pkg/buffer"
)

// ParseResult is the outcome of one extraction attempt.
type ParseResult int

const (
	// NotRecognized means the bytes don't match the protocol's framing at all.
	NotRecognized ParseResult = iota
	// Incomplete means a prefix matches and more bytes are needed.
	Incomplete
	// FrameReady means a complete and valid frame was extracted.
	FrameReady
	// FrameInvalid means the framing matched but the frame is corrupt.
	FrameInvalid
)

// String implements fmt.Stringer.
func (r ParseResult) String() string {
	switch r {
	case NotRecognized:
		return "not-recognized"
	case Incomplete:
		return "incomplete"
	case FrameReady:
		return "frame-ready"
	case FrameInvalid:
		return "frame-invalid"
	}
	return "unknown"
}

// Protocol recognizes and encodes one wire format.
type Protocol interface {
	// Name identifies the protocol in logs and configuration.
	Name() string
	// Timeout is how long a partially received frame may stay incomplete.
	// Zero selects the Manager default.
	Timeout() time.Duration
	// Extract attempts to extract one frame from the front of rx into f.
	// It must only depend on the content of rx, so the same prefix always
	// yields the same result. For FrameReady and FrameInvalid, consumed is
	// the number of bytes to drop from rx (at least 1), otherwise it's 0.
	Extract(rx []byte, f *Frame) (result ParseResult, consumed int)
	// Encode appends the wire representation of f to out. On failure, out
	// may contain a partial write which the caller discards.
	Encode(f *Frame, out *buffer.Buffer) error
}

// Persistent is optionally implemented by protocols which stay matched after
// a frame is dispatched.
type Persistent interface {
	Persistent() bool
}

func isPersistent(p Protocol) bool {
	if ps, ok := p.(Persistent); ok {
		return ps.Persistent()
	}
	return false
}

// Parse extracts a single frame from data using p and converts the result
// into an error.
func Parse(p Protocol, data []byte, f *Frame) (int, error) {
	res, n := p.Extract(data, f)
	switch res {
	case FrameReady:
		return n, nil
	case Incomplete:
		return 0, ErrIncomplete
	case FrameInvalid:
		return n, ErrMalformed
	}
	return 0, ErrNotRecognized
}

// EncodeFrame encodes f using p into out, leaving out unchanged on failure.
func EncodeFrame(p Protocol, f *Frame, out *buffer.Buffer) error {
	mark := out.Len()
	if err := p.Encode(f, out); err != nil {
		out.Truncate(mark)
		return err
	}
	return nil
}
