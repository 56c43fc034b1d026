package link

import "context"

// FrameHandler is called when a frame is received. To reply, it fills reply
// and returns true. Both frames are only valid during the call.
type FrameHandler interface {
	HandleFrame(ctx context.Context, f *Frame, reply *Frame) bool
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(ctx context.Context, f *Frame, reply *Frame) bool

// HandleFrame implements FrameHandler.
func (fn HandleFrameFunc) HandleFrame(ctx context.Context, f *Frame, reply *Frame) bool {
	return fn(ctx, f, reply)
}

// Sender queues unsolicited frames for transmission.
type Sender interface {
	Send(f *Frame) error
}

// StateNotifier is called when the link state changes.
type StateNotifier interface {
	StateChanged(State, Protocol)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(State, Protocol)

// StateChanged implements StateNotifier.
func (fn StateChangedFunc) StateChanged(s State, p Protocol) {
	fn(s, p)
}

// FrameMux routes frames to handlers by frame identifier. Frames without a
// handler go to Default when set.
type FrameMux struct {
	Default FrameHandler

	handlers map[byte]FrameHandler
}

// NewFrameMux creates an empty FrameMux.
func NewFrameMux() *FrameMux {
	return &FrameMux{handlers: make(map[byte]FrameHandler)}
}

// Handle registers h for frame identifiers ids.
func (m *FrameMux) Handle(h FrameHandler, ids ...byte) *FrameMux {
	for _, id := range ids {
		m.handlers[id] = h
	}
	return m
}

// HandleFrame implements FrameHandler.
func (m *FrameMux) HandleFrame(ctx context.Context, f *Frame, reply *Frame) bool {
	h := m.handlers[f.ID]
	if h == nil {
		h = m.Default
	}
	if h == nil {
		return false
	}
	return h.HandleFrame(ctx, f, reply)
}
