package codec

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
)

// Key identifies a message type on the wire. Binary payloads carry Group
// and ID, text payloads carry Name.
type Key struct {
	Group byte
	ID    byte
	Name  string
}

// String implements fmt.Stringer.
func (k Key) String() string {
	if k.Name != "" {
		return k.Name
	}
	return fmt.Sprintf("%02x:%02x", k.Group, k.ID)
}

// Message is an application message.
type Message interface {
	Group() byte
	ID() byte
	Name() string
}

// KeyOf returns the key of msg.
func KeyOf(msg Message) Key {
	return Key{Group: msg.Group(), ID: msg.ID(), Name: msg.Name()}
}

// BinaryAdapter encodes message fields in a fixed order.
type BinaryAdapter interface {
	Message
	MarshalBinaryFields(*buffer.Buffer, buffer.Endian) error
	UnmarshalBinaryFields(*buffer.Cursor) error
}

// TextAdapter maps message fields to named parameters.
type TextAdapter interface {
	Message
	// Params returns the parameter table of the message type.
	Params() *ParamTable
	// RenderParams stores current field values into params.
	RenderParams(*Params) error
	// ApplyParams updates fields from parsed params.
	ApplyParams(*Params) error
}

// ProtoAdapter exposes a protobuf view of the message.
type ProtoAdapter interface {
	Message
	Serializable() proto.Message
}

// Codec converts messages to and from frames.
type Codec interface {
	// FrameID is the frame identifier the codec encodes into.
	FrameID() byte
	// Encode writes msg into f.
	Encode(msg Message, f *link.Frame) error
	// Decode reads the payload of f into msg.
	Decode(f *link.Frame, msg Message) error
	// Peek returns the message key carried by f.
	Peek(f *link.Frame) (Key, error)
}
