package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/link/protocols"
)

// Text encodes TextAdapter messages as "NAME P1=v1 P2=v2". Parameters are
// rendered in table order and matched by name when decoding.
type Text struct {
	ID byte
}

// NewText creates a Text codec for frames of the Line protocol.
func NewText() *Text {
	return &Text{ID: protocols.LineFrameID}
}

// FrameID implements Codec.
func (c *Text) FrameID() byte {
	return c.ID
}

// Encode implements Codec.
func (c *Text) Encode(msg Message, f *link.Frame) error {
	a, ok := msg.(TextAdapter)
	if !ok {
		return ErrUnsupported
	}
	text, err := render(a)
	if err != nil {
		return err
	}
	if len(text) > f.Payload.Cap() {
		return link.ErrFrameTooLarge
	}
	f.ID = c.ID
	return f.SetPayload([]byte(text))
}

func render(a TextAdapter) (string, error) {
	params := NewParams(a.Params())
	if err := a.RenderParams(params); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(a.Name())
	for n, name := range params.table.names {
		if !params.set[n] {
			continue
		}
		value := params.values[n]
		if strings.ContainsAny(value, " \t\r\n") {
			return "", fmt.Errorf("%w: %s=%q", ErrMalformed, name, value)
		}
		sb.WriteByte(' ')
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(value)
	}
	return sb.String(), nil
}

// Format renders msg for display, in text form when supported.
func Format(msg Message) string {
	if a, ok := msg.(TextAdapter); ok {
		if text, err := render(a); err == nil {
			return text
		}
	}
	if a, ok := msg.(ProtoAdapter); ok {
		return msg.Name() + " " + a.Serializable().String()
	}
	return KeyOf(msg).String()
}

// Decode implements Codec.
func (c *Text) Decode(f *link.Frame, msg Message) error {
	a, ok := msg.(TextAdapter)
	if !ok {
		return ErrUnsupported
	}
	fields := bytes.Fields(f.Bytes())
	if len(fields) == 0 {
		return ErrShortPayload
	}
	if string(fields[0]) != msg.Name() {
		return ErrTypeMismatch
	}
	params := NewParams(a.Params())
	for _, field := range fields[1:] {
		pos := bytes.IndexByte(field, '=')
		if pos <= 0 {
			return fmt.Errorf("%w: %q", ErrMalformed, field)
		}
		name := string(field[:pos])
		if params.Has(name) {
			return fmt.Errorf("%w: duplicated %s", ErrMalformed, name)
		}
		if err := params.Set(name, string(field[pos+1:])); err != nil {
			return err
		}
	}
	return a.ApplyParams(params)
}

// Peek implements Codec.
func (c *Text) Peek(f *link.Frame) (Key, error) {
	fields := bytes.Fields(f.Bytes())
	if len(fields) == 0 {
		return Key{}, ErrShortPayload
	}
	return Key{Name: string(fields[0])}, nil
}
