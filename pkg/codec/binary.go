package codec

import (
	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
)

// DefaultBinaryFrameID is the frame identifier used by NewBinary.
const DefaultBinaryFrameID byte = 'B'

// Binary encodes BinaryAdapter messages.
type Binary struct {
	ID    byte
	Order buffer.Endian
}

// NewBinary creates a big-endian Binary codec.
func NewBinary() *Binary {
	return &Binary{ID: DefaultBinaryFrameID, Order: buffer.BigEndian}
}

// FrameID implements Codec.
func (c *Binary) FrameID() byte {
	return c.ID
}

// Encode implements Codec.
func (c *Binary) Encode(msg Message, f *link.Frame) error {
	a, ok := msg.(BinaryAdapter)
	if !ok {
		return ErrUnsupported
	}
	f.ID = c.ID
	f.Payload.Clear(false)
	if _, err := f.Payload.Append([]byte{msg.Group(), msg.ID()}, false); err != nil {
		return err
	}
	return a.MarshalBinaryFields(f.Payload, c.Order)
}

// Decode implements Codec. Bytes after the last field are ignored.
func (c *Binary) Decode(f *link.Frame, msg Message) error {
	a, ok := msg.(BinaryAdapter)
	if !ok {
		return ErrUnsupported
	}
	cur := buffer.NewCursor(f.Payload, c.Order)
	key, err := c.peek(cur)
	if err != nil {
		return err
	}
	if key.Group != msg.Group() || key.ID != msg.ID() {
		return ErrTypeMismatch
	}
	return a.UnmarshalBinaryFields(cur)
}

// Peek implements Codec.
func (c *Binary) Peek(f *link.Frame) (Key, error) {
	return c.peek(buffer.NewCursor(f.Payload, c.Order))
}

func (c *Binary) peek(cur *buffer.Cursor) (Key, error) {
	group, ok := cur.Uint8()
	if !ok {
		return Key{}, ErrShortPayload
	}
	id, ok := cur.Uint8()
	if !ok {
		return Key{}, ErrShortPayload
	}
	return Key{Group: group, ID: id}, nil
}
