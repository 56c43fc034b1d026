package session

import (
	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
)

// EventFlag marks frames not sent in reply to a request.
const EventFlag byte = 0x80

// Packet is a received request and the reply being assembled for it.
type Packet struct {
	// Seq is the sequence number of the request, carried by the reply.
	Seq Seq
	// ID is the frame identifier of the request.
	ID byte
	// Body is the request payload without the sequence byte.
	Body []byte
	// Response receives the reply body.
	Response *buffer.Buffer
}

// IsEvent tells if the packet is an event from the peer.
func (p *Packet) IsEvent() bool {
	return p.ID&EventFlag != 0
}

// Encode writes [seq][body] as the payload of f.
func Encode(f *link.Frame, id byte, seq Seq, body []byte) error {
	if len(body)+1 > f.Payload.Cap() {
		return buffer.ErrCapacityExceeded
	}
	f.ID = id
	f.Payload.Clear(false)
	f.Payload.AppendByte(byte(seq))
	_, err := f.Payload.Append(body, false)
	return err
}

// Decode splits the payload of f into sequence number and body.
func Decode(f *link.Frame) (Seq, []byte, error) {
	p := f.Bytes()
	if len(p) == 0 {
		return 0, nil, ErrEmptyFrame
	}
	return Seq(p[0]), p[1:], nil
}
