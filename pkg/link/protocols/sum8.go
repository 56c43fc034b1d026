package protocols

import (
	"time"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
)

// DefaultSum8Start is the start byte used by NewSum8.
const DefaultSum8Start byte = 0xAA

// Sum8 frames as [start][id][len][payload...][sum] where sum makes the
// 8-bit sum of id, len, payload and sum itself zero.
type Sum8 struct {
	Start byte
	Wait  time.Duration
}

// NewSum8 creates a Sum8 with the default start byte.
func NewSum8() *Sum8 {
	return &Sum8{Start: DefaultSum8Start}
}

// Name implements link.Protocol.
func (p *Sum8) Name() string {
	return "sum8"
}

// Timeout implements link.Protocol.
func (p *Sum8) Timeout() time.Duration {
	return p.Wait
}

// Extract implements link.Protocol. A corrupt frame only consumes the start
// byte so a real start inside it can still be found.
func (p *Sum8) Extract(rx []byte, f *link.Frame) (link.ParseResult, int) {
	if len(rx) == 0 || rx[0] != p.Start {
		return link.NotRecognized, 0
	}
	if len(rx) < 3 {
		return link.Incomplete, 0
	}
	l := int(rx[2])
	if l > f.Payload.Cap() {
		return link.FrameInvalid, 1
	}
	total := l + 4
	if len(rx) < total {
		return link.Incomplete, 0
	}
	if sum8(rx[1:total]) != 0 {
		return link.FrameInvalid, 1
	}
	f.ID = rx[1]
	f.SetPayload(rx[3 : 3+l])
	return link.FrameReady, total
}

// Encode implements link.Protocol.
func (p *Sum8) Encode(f *link.Frame, out *buffer.Buffer) error {
	l := f.Len()
	if l > 0xff {
		return link.ErrFrameTooLarge
	}
	if l+4 > out.Free() {
		return buffer.ErrCapacityExceeded
	}
	out.AppendByte(p.Start)
	out.AppendByte(f.ID)
	out.AppendByte(byte(l))
	out.Append(f.Bytes(), false)
	sum := f.ID + byte(l) + sum8(f.Bytes())
	return out.AppendByte(-sum)
}

func sum8(p []byte) (s byte) {
	for _, b := range p {
		s += b
	}
	return
}
