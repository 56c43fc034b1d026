package protocols

import (
	"time"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
)

// LineFrameID is the frame identifier of text lines.
const LineFrameID byte = 'T'

// DefaultMaxLine is the line length limit used by NewLine.
const DefaultMaxLine = 120

// Line carries printable ASCII text terminated by "\n" or "\r\n". A line must
// start with a letter. The frame identifier is always LineFrameID.
type Line struct {
	MaxLine int
	Wait    time.Duration
}

// NewLine creates a Line protocol.
func NewLine() *Line {
	return &Line{MaxLine: DefaultMaxLine, Wait: time.Second}
}

// Name implements link.Protocol.
func (p *Line) Name() string {
	return "line"
}

// Timeout implements link.Protocol.
func (p *Line) Timeout() time.Duration {
	return p.Wait
}

func (p *Line) maxLine(f *link.Frame) int {
	max := p.MaxLine
	if max <= 0 {
		max = DefaultMaxLine
	}
	if c := f.Payload.Cap(); c < max {
		max = c
	}
	return max
}

// Extract implements link.Protocol.
func (p *Line) Extract(rx []byte, f *link.Frame) (link.ParseResult, int) {
	if len(rx) == 0 || !isLetter(rx[0]) {
		return link.NotRecognized, 0
	}
	max := p.maxLine(f)
	for i, b := range rx {
		switch {
		case b == '\n':
			line := rx[:i]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			if len(line) > max {
				return link.FrameInvalid, i + 1
			}
			f.ID = LineFrameID
			f.SetPayload(line)
			return link.FrameReady, i + 1
		case b == '\r':
			if i+1 < len(rx) && rx[i+1] != '\n' {
				return link.NotRecognized, 0
			}
		case !isPrintable(b):
			return link.NotRecognized, 0
		}
		if i > max+1 {
			return link.FrameInvalid, i
		}
	}
	return link.Incomplete, 0
}

// Encode implements link.Protocol.
func (p *Line) Encode(f *link.Frame, out *buffer.Buffer) error {
	text := f.Bytes()
	for _, b := range text {
		if !isPrintable(b) {
			return link.ErrMalformed
		}
	}
	if len(text)+1 > out.Free() {
		return buffer.ErrCapacityExceeded
	}
	out.Append(text, false)
	return out.AppendByte('\n')
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}
