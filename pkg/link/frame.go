package link

import (
	"fmt"

	"github.com/robotalks/linkstack/pkg/buffer"
)

// Frame is one protocol-level unit: an identifier and payload bytes.
type Frame struct {
	ID      byte
	Payload *buffer.Buffer
}

// NewFrame creates a Frame borrowing payload. The payload must stay valid as
// long as the Frame is used.
func NewFrame(id byte, payload *buffer.Buffer) *Frame {
	return &Frame{ID: id, Payload: payload}
}

// NewOwnedFrame creates a Frame with its own payload storage of capacity bytes.
func NewOwnedFrame(id byte, capacity int) *Frame {
	return &Frame{ID: id, Payload: buffer.NewSized(capacity)}
}

// Reset clears the identifier and the payload.
func (f *Frame) Reset() {
	f.ID = 0
	f.Payload.Clear(false)
}

// SetPayload replaces the payload with p. Nothing changes if p doesn't fit.
func (f *Frame) SetPayload(p []byte) error {
	if len(p) > f.Payload.Cap() {
		return buffer.ErrCapacityExceeded
	}
	f.Payload.Clear(false)
	_, err := f.Payload.Append(p, false)
	return err
}

// Bytes returns the payload content.
func (f *Frame) Bytes() []byte {
	return f.Payload.Bytes()
}

// Len returns the payload length.
func (f *Frame) Len() int {
	return f.Payload.Len()
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("frame[%02x] % x", f.ID, f.Payload.Bytes())
}
