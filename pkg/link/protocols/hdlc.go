package protocols

import (
	"time"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
)

const (
	hdlcFlag    byte = 0x7E
	hdlcEscape  byte = 0x7D
	hdlcEscMask byte = 0x20
)

// HDLC frames as 0x7E [id][payload...][crc16] 0x7E with 0x7E and 0x7D inside
// the body escaped as 0x7D followed by the byte xor 0x20. The CRC is
// CRC-16-CCITT (poly 0x1021, init 0xFFFF) over id and payload, big-endian.
type HDLC struct {
	Wait time.Duration
}

// NewHDLC creates an HDLC protocol.
func NewHDLC() *HDLC {
	return &HDLC{}
}

// Name implements link.Protocol.
func (p *HDLC) Name() string {
	return "hdlc"
}

// Timeout implements link.Protocol.
func (p *HDLC) Timeout() time.Duration {
	return p.Wait
}

// Extract implements link.Protocol.
func (p *HDLC) Extract(rx []byte, f *link.Frame) (link.ParseResult, int) {
	if len(rx) == 0 || rx[0] != hdlcFlag {
		return link.NotRecognized, 0
	}
	// back to back flags are fill, the last one opens the frame
	start := 0
	for start+1 < len(rx) && rx[start+1] == hdlcFlag {
		start++
	}
	end := -1
	for i := start + 1; i < len(rx); i++ {
		if rx[i] == hdlcFlag {
			end = i
			break
		}
	}
	// worst case every body byte is escaped
	maxBody := 2 * (f.Payload.Cap() + 3)
	if end < 0 {
		if len(rx)-start-1 > maxBody {
			return link.FrameInvalid, start + 1
		}
		return link.Incomplete, 0
	}
	// a bad frame leaves its closing flag, which may open the next frame
	consumed := end

	var (
		crc     = crc16Init
		pending [2]byte
		npend   int
		count   int
		escaped bool
	)
	f.Payload.Clear(false)
	for _, b := range rx[start+1 : end] {
		if escaped {
			b ^= hdlcEscMask
			escaped = false
		} else if b == hdlcEscape {
			escaped = true
			continue
		}
		switch {
		case count == 0:
			f.ID = b
			crc = crc16Update(crc, b)
		case npend < 2:
			pending[npend] = b
			npend++
		default:
			if f.Payload.AppendByte(pending[0]) != nil {
				return link.FrameInvalid, consumed
			}
			crc = crc16Update(crc, pending[0])
			pending[0], pending[1] = pending[1], b
		}
		count++
	}
	if escaped || npend < 2 {
		return link.FrameInvalid, consumed
	}
	if crc != uint16(pending[0])<<8|uint16(pending[1]) {
		return link.FrameInvalid, consumed
	}
	return link.FrameReady, end + 1
}

// Encode implements link.Protocol.
func (p *HDLC) Encode(f *link.Frame, out *buffer.Buffer) error {
	if err := out.AppendByte(hdlcFlag); err != nil {
		return err
	}
	crc := crc16Update(crc16Init, f.ID)
	if err := hdlcPut(out, f.ID); err != nil {
		return err
	}
	for _, b := range f.Bytes() {
		crc = crc16Update(crc, b)
		if err := hdlcPut(out, b); err != nil {
			return err
		}
	}
	if err := hdlcPut(out, byte(crc>>8)); err != nil {
		return err
	}
	if err := hdlcPut(out, byte(crc)); err != nil {
		return err
	}
	return out.AppendByte(hdlcFlag)
}

func hdlcPut(out *buffer.Buffer, b byte) error {
	if b == hdlcFlag || b == hdlcEscape {
		if out.Free() < 2 {
			return buffer.ErrCapacityExceeded
		}
		out.AppendByte(hdlcEscape)
		b ^= hdlcEscMask
	}
	return out.AppendByte(b)
}
