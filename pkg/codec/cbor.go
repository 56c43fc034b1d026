package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/robotalks/linkstack/pkg/link"
)

// DefaultCBORFrameID is the frame identifier used by NewCBOR.
const DefaultCBORFrameID byte = 'C'

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	if cborEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if cborDec, err = (cbor.DecOptions{MaxNestedLevels: 4}).DecMode(); err != nil {
		panic(err)
	}
}

// CBOR encodes the exported fields of any message as [group][id][cbor map].
// Field names follow cbor tags, falling back to json tags.
type CBOR struct {
	ID byte
}

// NewCBOR creates a CBOR codec.
func NewCBOR() *CBOR {
	return &CBOR{ID: DefaultCBORFrameID}
}

// FrameID implements Codec.
func (c *CBOR) FrameID() byte {
	return c.ID
}

// Encode implements Codec.
func (c *CBOR) Encode(msg Message, f *link.Frame) error {
	data, err := cborEnc.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
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
func (c *CBOR) Decode(f *link.Frame, msg Message) error {
	key, err := c.Peek(f)
	if err != nil {
		return err
	}
	if key.Group != msg.Group() || key.ID != msg.ID() {
		return ErrTypeMismatch
	}
	if err := cborDec.Unmarshal(f.Bytes()[2:], msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Peek implements Codec.
func (c *CBOR) Peek(f *link.Frame) (Key, error) {
	p := f.Bytes()
	if len(p) < 2 {
		return Key{}, ErrShortPayload
	}
	return Key{Group: p[0], ID: p[1]}, nil
}
