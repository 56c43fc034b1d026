package session

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/link"
)

// PacketHandler is called when a request is received. It appends the reply
// body to pkt.Response and returns true to reply.
type PacketHandler interface {
	HandlePacket(ctx context.Context, pkt *Packet) bool
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet) bool

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) bool {
	return f(ctx, pkt)
}

// Handler is the responder side of a session. It implements
// link.FrameHandler around a PacketHandler and keeps one deferred message
// which is sent besides the synchronous reply.
type Handler struct {
	Handler PacketHandler
	Sender  link.Sender

	seq    Seq
	outbox *link.Frame
	queued bool
}

// NewHandler creates a Handler. maxFrame bounds the deferred message.
func NewHandler(h PacketHandler, sender link.Sender, maxFrame int) *Handler {
	return &Handler{
		Handler: h,
		Sender:  sender,
		seq:     NewSeq(),
		outbox:  link.NewOwnedFrame(0, maxFrame),
	}
}

// Seq returns the current sequence number.
func (h *Handler) Seq() Seq {
	return h.seq
}

// HandleFrame implements link.FrameHandler.
func (h *Handler) HandleFrame(ctx context.Context, f *link.Frame, reply *link.Frame) bool {
	seq, body, err := Decode(f)
	if err != nil {
		glog.Warningf("session: drop frame %02x: %v", f.ID, err)
		return false
	}
	if !seq.IsValid() {
		glog.Warningf("session: drop frame %02x: invalid seq %02x", f.ID, byte(seq))
		return false
	}
	pkt := &Packet{Seq: seq, ID: f.ID, Body: body}
	if f.ID&EventFlag != 0 {
		if h.Handler != nil {
			h.Handler.HandlePacket(ctx, pkt)
		}
		return false
	}
	h.seq = h.seq.Next()

	reply.ID = f.ID
	reply.Payload.Clear(false)
	if reply.Payload.AppendByte(byte(seq)) != nil {
		return false
	}
	pkt.Response = buffer.New(reply.Payload.Tail())
	if h.Handler == nil || !h.Handler.HandlePacket(ctx, pkt) {
		return false
	}
	return reply.Payload.Commit(pkt.Response.Len()) == nil
}

// Push parks an unsolicited message until Flush.
func (h *Handler) Push(id byte, body []byte) error {
	if h.queued {
		return ErrOutboxFull
	}
	if err := Encode(h.outbox, id|EventFlag, 0, body); err != nil {
		return err
	}
	h.queued = true
	return nil
}

// Queued tells if a deferred message is waiting.
func (h *Handler) Queued() bool {
	return h.queued
}

// Flush sends the deferred message. It stays queued while the TX buffer is
// full and is dropped when no protocol can carry it.
func (h *Handler) Flush() error {
	if !h.queued {
		return nil
	}
	if h.Sender == nil {
		return ErrNoSender
	}
	seq := h.seq.Next()
	h.outbox.Payload.Bytes()[0] = byte(seq)
	if err := h.Sender.Send(h.outbox); err != nil {
		if !errors.Is(err, buffer.ErrCapacityExceeded) {
			glog.Warningf("session: drop event %02x: %v", h.outbox.ID, err)
			h.queued = false
		}
		return err
	}
	h.seq = seq
	h.queued = false
	return nil
}

// AddToLoop implements framework.LoopAdder.
func (h *Handler) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvAcuate, framework.ControlFunc(func(framework.ControlContext) error {
		return h.Flush()
	}))
}
