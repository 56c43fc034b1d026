package link

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/framework"
)

// State is the protocol matching state of a Manager.
type State int

const (
	// StateIdle means no protocol is matched.
	StateIdle State = iota
	// StateProbing means candidate protocols are being tried.
	StateProbing
	// StateMatched means one protocol is sticky.
	StateMatched
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateMatched:
		return "matched"
	}
	return "unknown"
}

// Options configures buffer sizes of a Manager.
type Options struct {
	// RxSize is the capacity of the receive buffer.
	RxSize int
	// MaxFrame is the largest payload a frame may carry.
	MaxFrame int
	// TxFrames is the number of encoded frames the transmit buffer holds:
	// one reply and one deferred message by default.
	TxFrames int
	// TxSize overrides the size derived from TxFrames and MaxFrame.
	TxSize int
	// Timeout applies to protocols which don't specify one.
	Timeout time.Duration
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		RxSize:   512,
		MaxFrame: 128,
		TxFrames: 2,
		Timeout:  100 * time.Millisecond,
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.MaxFrame <= 0 {
		o.MaxFrame = def.MaxFrame
	}
	if o.RxSize <= 0 {
		o.RxSize = def.RxSize
	}
	if o.TxFrames <= 0 {
		o.TxFrames = def.TxFrames
	}
	if o.TxSize <= 0 {
		// room for framing overhead and escaping of the worst case payload
		o.TxSize = o.TxFrames * (2*o.MaxFrame + 8)
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	return o
}

// Stats counts link events.
type Stats struct {
	Frames    int
	Replies   int
	Sent      int
	Invalid   int
	Timeouts  int
	Discarded int
	TxErrors  int
}

// Manager runs protocol detection and frame dispatch over a Transport.
// It's not safe for concurrent use: one owner calls Pump, Send and Flush.
type Manager struct {
	Transport Transport
	Handler   FrameHandler
	Notifier  StateNotifier

	opts      Options
	protocols []Protocol
	rx        *buffer.Buffer
	tx        *buffer.Buffer
	frame     *Frame
	reply     *Frame

	state     State
	current   Protocol
	last      Protocol
	matchedAt time.Time
	stats     Stats
}

// NewManager creates a Manager.
func NewManager(t Transport, opts Options) *Manager {
	opts = opts.normalize()
	return &Manager{
		Transport: t,
		opts:      opts,
		rx:        buffer.NewSized(opts.RxSize),
		tx:        buffer.NewSized(opts.TxSize),
		frame:     NewOwnedFrame(0, opts.MaxFrame),
		reply:     NewOwnedFrame(0, opts.MaxFrame),
	}
}

// Register appends protocols in probe priority order.
func (m *Manager) Register(protocols ...Protocol) *Manager {
	m.protocols = append(m.protocols, protocols...)
	return m
}

// Protocols returns the registered protocols.
func (m *Manager) Protocols() []Protocol {
	return m.protocols
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state
}

// Current returns the matched protocol, nil unless StateMatched.
func (m *Manager) Current() Protocol {
	return m.current
}

// Last returns the protocol which carried the most recent frame.
func (m *Manager) Last() Protocol {
	return m.last
}

// Stats returns the counters.
func (m *Manager) Stats() Stats {
	return m.stats
}

// Pending returns the number of encoded bytes waiting for transmission.
func (m *Manager) Pending() int {
	return m.tx.Len()
}

// Buffered returns the number of received bytes not yet consumed.
func (m *Manager) Buffered() int {
	return m.rx.Len()
}

// Reset drops buffered bytes and the match state.
func (m *Manager) Reset() {
	m.rx.Clear(false)
	m.tx.Clear(false)
	m.setState(StateIdle, nil)
}

// Pump runs one step: drain the transport, extract and dispatch frames, then
// flush pending output. now must come from a monotonic time source.
func (m *Manager) Pump(ctx context.Context, now time.Time) error {
	var errs framework.AggregatedError
	errs.Add(m.drain())
	for m.step(ctx, now, &errs) {
	}
	errs.Add(m.Flush())
	return errs.Aggregate()
}

// Send encodes f with the last matched protocol, or the first registered
// one, for transmission on the next Flush. When that protocol can't carry
// f, the other protocols are tried in registration order.
func (m *Manager) Send(f *Frame) error {
	if len(m.protocols) == 0 {
		return ErrNoProtocol
	}
	p := m.last
	if p == nil {
		p = m.protocols[0]
	}
	err := m.SendWith(p, f)
	if !cannotCarry(err) {
		return err
	}
	for _, alt := range m.protocols {
		if alt == p {
			continue
		}
		if err = m.SendWith(alt, f); !cannotCarry(err) {
			return err
		}
	}
	return err
}

// cannotCarry tells if the protocol rejected the frame itself, not the
// space left in the TX buffer.
func cannotCarry(err error) bool {
	return errors.Is(err, ErrMalformed) || errors.Is(err, ErrFrameTooLarge)
}

// SendWith encodes f using p for transmission on the next Flush.
func (m *Manager) SendWith(p Protocol, f *Frame) error {
	if f.Len() > m.opts.MaxFrame {
		m.stats.TxErrors++
		return ErrFrameTooLarge
	}
	if err := EncodeFrame(p, f, m.tx); err != nil {
		m.stats.TxErrors++
		return err
	}
	m.stats.Sent++
	return nil
}

// Flush writes pending output. Unwritten bytes stay for the next Flush.
func (m *Manager) Flush() error {
	for m.tx.Len() > 0 {
		n, err := m.Transport.Write(m.tx.Bytes())
		m.tx.Discard(n)
		if err != nil {
			m.stats.TxErrors++
			return &TransportError{Op: "write", Err: err}
		}
		if n == 0 {
			break
		}
	}
	return nil
}

// AddToLoop implements framework.LoopAdder.
func (m *Manager) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvSense, framework.ControlFunc(func(cc framework.ControlContext) error {
		return m.Pump(cc.Context(), cc.Time())
	}))
}

func (m *Manager) drain() error {
	n := m.Transport.Available()
	if free := m.rx.Free(); n > free {
		n = free
	}
	if n <= 0 {
		return nil
	}
	n, err := m.Transport.Read(m.rx.Tail()[:n])
	if n > 0 {
		m.rx.Commit(n)
	}
	if err != nil {
		return &TransportError{Op: "read", Err: err}
	}
	return nil
}

// step processes the front of the RX buffer once and tells if another step
// may make progress without new bytes. Reply failures are added to errs.
func (m *Manager) step(ctx context.Context, now time.Time, errs *framework.AggregatedError) bool {
	if m.rx.Len() == 0 {
		return false
	}
	if m.state == StateMatched {
		return m.stepMatched(ctx, now, errs)
	}
	return m.probe(ctx, now, errs)
}

func (m *Manager) stepMatched(ctx context.Context, now time.Time, errs *framework.AggregatedError) bool {
	p := m.current
	m.frame.Reset()
	res, n := p.Extract(m.rx.Bytes(), m.frame)
	switch res {
	case FrameReady:
		m.rx.Discard(n)
		errs.Add(m.dispatch(ctx, p))
		if isPersistent(p) {
			m.matchedAt = now
		} else {
			m.setState(StateIdle, nil)
		}
		return true
	case Incomplete:
		if now.Sub(m.matchedAt) <= m.timeout(p) {
			return false
		}
		// the whole buffer belongs to the stalled frame
		dropped := m.rx.Discard(m.rx.Len())
		m.stats.Timeouts++
		m.stats.Discarded += dropped
		glog.Warningf("link: %s frame timed out, dropped %d bytes", p.Name(), dropped)
		m.setState(StateIdle, nil)
		return false
	case FrameInvalid:
		m.invalid(p, n)
		m.setState(StateIdle, nil)
		return true
	}
	// a persistent protocol no longer sees its framing
	m.setState(StateIdle, nil)
	return true
}

func (m *Manager) probe(ctx context.Context, now time.Time, errs *framework.AggregatedError) bool {
	m.setState(StateProbing, nil)
	for _, p := range m.protocols {
		m.frame.Reset()
		res, n := p.Extract(m.rx.Bytes(), m.frame)
		switch res {
		case NotRecognized:
			continue
		case Incomplete:
			m.matchedAt = now
			m.setState(StateMatched, p)
			return false
		case FrameReady:
			m.rx.Discard(n)
			errs.Add(m.dispatch(ctx, p))
			if isPersistent(p) {
				m.matchedAt = now
				m.setState(StateMatched, p)
			} else {
				m.setState(StateIdle, nil)
			}
			return true
		case FrameInvalid:
			m.invalid(p, n)
			m.setState(StateIdle, nil)
			return true
		}
	}
	b, _ := m.rx.At(0)
	m.stats.Discarded += m.rx.Discard(1)
	glog.V(2).Infof("link: unknown protocol, dropped byte %02x", b)
	m.setState(StateIdle, nil)
	return true
}

func (m *Manager) invalid(p Protocol, n int) {
	if n < 1 {
		n = 1
	}
	m.stats.Invalid++
	m.stats.Discarded += m.rx.Discard(n)
	glog.Warningf("link: %s dropped invalid frame of %d bytes", p.Name(), n)
}

func (m *Manager) dispatch(ctx context.Context, p Protocol) error {
	m.last = p
	m.stats.Frames++
	glog.V(2).Infof("link: %s recv %s", p.Name(), m.frame)
	if m.Handler == nil {
		return nil
	}
	m.reply.Reset()
	if !m.Handler.HandleFrame(ctx, m.frame, m.reply) {
		return nil
	}
	if err := EncodeFrame(p, m.reply, m.tx); err != nil {
		m.stats.TxErrors++
		glog.Warningf("link: %s reply dropped: %v", p.Name(), err)
		return &ReplyError{Protocol: p.Name(), ID: m.reply.ID, Err: err}
	}
	m.stats.Replies++
	glog.V(2).Infof("link: %s reply %s", p.Name(), m.reply)
	return nil
}

func (m *Manager) timeout(p Protocol) time.Duration {
	if d := p.Timeout(); d > 0 {
		return d
	}
	return m.opts.Timeout
}

func (m *Manager) setState(s State, p Protocol) {
	if m.state == s && m.current == p {
		return
	}
	m.state, m.current = s, p
	if m.Notifier != nil {
		m.Notifier.StateChanged(s, p)
	}
}
