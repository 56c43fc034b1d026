package codec

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/linkstack/pkg/link"
)

// DefaultProtoFrameID is the frame identifier used by NewProto.
const DefaultProtoFrameID byte = 'P'

// Proto encodes ProtoAdapter messages as [group][id][protobuf bytes].
type Proto struct {
	ID byte
}

// NewProto creates a Proto codec.
func NewProto() *Proto {
	return &Proto{ID: DefaultProtoFrameID}
}

// FrameID implements Codec.
func (c *Proto) FrameID() byte {
	return c.ID
}

// Encode implements Codec.
func (c *Proto) Encode(msg Message, f *link.Frame) error {
	a, ok := msg.(ProtoAdapter)
	if !ok {
		return ErrUnsupported
	}
	data, err := proto.Marshal(a.Serializable())
	if err != nil {
		return err
	}
	if len(data)+2 > f.Payload.Cap() {
		return link.ErrFrameTooLarge
	}
	f.ID = c.ID
	f.Payload.Clear(false)
	f.Payload.Append([]byte{msg.Group(), msg.ID()}, false)
	_, err = f.Payload.Append(data, false)
	return err
}

// Decode implements Codec.
func (c *Proto) Decode(f *link.Frame, msg Message) error {
	a, ok := msg.(ProtoAdapter)
	if !ok {
		return ErrUnsupported
	}
	key, err := c.Peek(f)
	if err != nil {
		return err
	}
	if key.Group != msg.Group() || key.ID != msg.ID() {
		return ErrTypeMismatch
	}
	if err := proto.Unmarshal(f.Bytes()[2:], a.Serializable()); err != nil {
		return ErrMalformed
	}
	return nil
}

// Peek implements Codec.
func (c *Proto) Peek(f *link.Frame) (Key, error) {
	p := f.Bytes()
	if len(p) < 2 {
		return Key{}, ErrShortPayload
	}
	return Key{Group: p[0], ID: p[1]}, nil
}
