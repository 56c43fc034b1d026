package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linkstack/pkg/buffer"
)

// prefixProtocol frames as [start][id][len][payload...].
type prefixProtocol struct {
	start      byte
	timeout    time.Duration
	persistent bool
	calls      int
	encodeErr  error
}

func (p *prefixProtocol) Name() string           { return "prefix" }
func (p *prefixProtocol) Timeout() time.Duration { return p.timeout }
func (p *prefixProtocol) Persistent() bool       { return p.persistent }

func (p *prefixProtocol) Extract(rx []byte, f *Frame) (ParseResult, int) {
	p.calls++
	if len(rx) == 0 || rx[0] != p.start {
		return NotRecognized, 0
	}
	if len(rx) < 3 {
		return Incomplete, 0
	}
	l := int(rx[2])
	if l > f.Payload.Cap() {
		return FrameInvalid, 3
	}
	if len(rx) < 3+l {
		return Incomplete, 0
	}
	f.ID = rx[1]
	if err := f.SetPayload(rx[3 : 3+l]); err != nil {
		return FrameInvalid, 3 + l
	}
	return FrameReady, 3 + l
}

func (p *prefixProtocol) Encode(f *Frame, out *buffer.Buffer) error {
	if p.encodeErr != nil {
		return p.encodeErr
	}
	if _, err := out.Append([]byte{p.start, f.ID, byte(f.Len())}, false); err != nil {
		return err
	}
	_, err := out.Append(f.Bytes(), false)
	return err
}

type testTransport struct {
	in       []byte
	out      []byte
	writeErr error
	readErr  error
	maxWrite int
}

func (t *testTransport) Available() int { return len(t.in) }

func (t *testTransport) Read(p []byte) (int, error) {
	if t.readErr != nil {
		return 0, t.readErr
	}
	n := copy(p, t.in)
	t.in = t.in[n:]
	return n, nil
}

func (t *testTransport) Write(p []byte) (int, error) {
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	if t.maxWrite > 0 && len(p) > t.maxWrite {
		p = p[:t.maxWrite]
	}
	t.out = append(t.out, p...)
	return len(p), nil
}

type frameRecorder struct {
	frames []Frame
	reply  func(f, reply *Frame) bool
}

func (r *frameRecorder) HandleFrame(ctx context.Context, f *Frame, reply *Frame) bool {
	payload := append([]byte(nil), f.Bytes()...)
	r.frames = append(r.frames, Frame{ID: f.ID, Payload: buffer.Wrap(payload, len(payload))})
	if r.reply != nil {
		return r.reply(f, reply)
	}
	return false
}

func newTestManager(protocols ...Protocol) (*Manager, *testTransport, *frameRecorder) {
	t := &testTransport{}
	r := &frameRecorder{}
	m := NewManager(t, Options{RxSize: 64, MaxFrame: 16})
	m.Handler = r
	m.Register(protocols...)
	return m, t, r
}

func TestManagerProbeOrder(t *testing.T) {
	a := &prefixProtocol{start: 0xaa}
	b := &prefixProtocol{start: 0x55}
	m, tr, r := newTestManager(a, b)
	tr.in = []byte{0x55, 0x10, 0x00}
	require.NoError(t, m.Pump(context.Background(), time.Now()))
	require.Len(t, r.frames, 1)
	require.Equal(t, byte(0x10), r.frames[0].ID)
	require.Equal(t, 0, r.frames[0].Len())
	require.Equal(t, 1, a.calls)
	require.Equal(t, b, m.Last())
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, 0, m.Buffered())
}

func TestManagerLeadingGarbage(t *testing.T) {
	a := &prefixProtocol{start: 0xaa}
	m, tr, r := newTestManager(a, &prefixProtocol{start: 0x55})
	now := time.Now()
	tr.in = []byte{0x00}
	require.NoError(t, m.Pump(context.Background(), now))
	require.Empty(t, r.frames)
	require.Equal(t, 1, m.Stats().Discarded)

	tr.in = []byte{0xaa, 0x01, 0x02, 0x07, 0x08}
	require.NoError(t, m.Pump(context.Background(), now.Add(time.Millisecond)))
	require.Len(t, r.frames, 1)
	require.Equal(t, byte(0x01), r.frames[0].ID)
	require.Equal(t, []byte{7, 8}, r.frames[0].Bytes())
}

func TestManagerSplitFrame(t *testing.T) {
	m, tr, r := newTestManager(&prefixProtocol{start: 0xaa})
	now := time.Now()
	tr.in = []byte{0xaa, 0x01}
	require.NoError(t, m.Pump(context.Background(), now))
	require.Equal(t, StateMatched, m.State())
	require.Empty(t, r.frames)
	tr.in = []byte{0x01, 0x05}
	require.NoError(t, m.Pump(context.Background(), now.Add(10*time.Millisecond)))
	require.Len(t, r.frames, 1)
	require.Equal(t, []byte{5}, r.frames[0].Bytes())
	require.Equal(t, StateIdle, m.State())
}

func TestManagerTimeout(t *testing.T) {
	a := &prefixProtocol{start: 0xaa, timeout: 50 * time.Millisecond}
	b := &prefixProtocol{start: 0x55}
	m, tr, r := newTestManager(a, b)
	now := time.Now()
	tr.in = []byte{0xaa, 0x01}
	require.NoError(t, m.Pump(context.Background(), now))
	require.Equal(t, StateMatched, m.State())
	require.Equal(t, a, m.Current())

	require.NoError(t, m.Pump(context.Background(), now.Add(20*time.Millisecond)))
	require.Equal(t, StateMatched, m.State())

	require.NoError(t, m.Pump(context.Background(), now.Add(60*time.Millisecond)))
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, 1, m.Stats().Timeouts)
	require.Equal(t, 0, m.Buffered())

	tr.in = []byte{0x55, 0x20, 0x00}
	require.NoError(t, m.Pump(context.Background(), now.Add(70*time.Millisecond)))
	require.Len(t, r.frames, 1)
	require.Equal(t, byte(0x20), r.frames[0].ID)
}

func TestManagerTimeoutDropsPartialFrame(t *testing.T) {
	p := &prefixProtocol{start: 0xaa, timeout: 50 * time.Millisecond}
	m, tr, r := newTestManager(p)
	now := time.Now()
	tr.in = []byte{0xaa, 0x01, 0x05, 0xaa, 0x01}
	require.NoError(t, m.Pump(context.Background(), now))
	require.Equal(t, StateMatched, m.State())

	require.NoError(t, m.Pump(context.Background(), now.Add(60*time.Millisecond)))
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, 0, m.Buffered())
	require.Equal(t, 1, m.Stats().Timeouts)
	require.Equal(t, 5, m.Stats().Discarded)

	tr.in = []byte{0xaa, 0x02, 0x01, 0x09}
	require.NoError(t, m.Pump(context.Background(), now.Add(70*time.Millisecond)))
	require.Len(t, r.frames, 1)
	require.Equal(t, byte(0x02), r.frames[0].ID)
	require.Equal(t, []byte{0x09}, r.frames[0].Bytes())
	require.Equal(t, 1, m.Stats().Timeouts)
}

func TestManagerDefaultTimeout(t *testing.T) {
	m, tr, _ := newTestManager(&prefixProtocol{start: 0xaa})
	now := time.Now()
	tr.in = []byte{0xaa}
	require.NoError(t, m.Pump(context.Background(), now))
	require.NoError(t, m.Pump(context.Background(), now.Add(m.Options().Timeout+time.Millisecond)))
	require.Equal(t, StateIdle, m.State())
	require.Equal(t, 1, m.Stats().Timeouts)
}

func TestManagerInvalidFrame(t *testing.T) {
	m, tr, r := newTestManager(&prefixProtocol{start: 0xaa})
	tr.in = []byte{0xaa, 0x01, 0x7f, 0xaa, 0x02, 0x00}
	require.NoError(t, m.Pump(context.Background(), time.Now()))
	require.Equal(t, 1, m.Stats().Invalid)
	require.Len(t, r.frames, 1)
	require.Equal(t, byte(0x02), r.frames[0].ID)
}

func TestManagerMultipleFrames(t *testing.T) {
	m, tr, r := newTestManager(&prefixProtocol{start: 0xaa})
	tr.in = []byte{0xaa, 1, 0, 0xaa, 2, 1, 9, 0xaa, 3, 0}
	require.NoError(t, m.Pump(context.Background(), time.Now()))
	require.Len(t, r.frames, 3)
	for n, f := range r.frames {
		require.Equalf(t, byte(n+1), f.ID, "frame %d id mismatch", n)
	}
}

func TestManagerReply(t *testing.T) {
	p := &prefixProtocol{start: 0x55}
	m, tr, r := newTestManager(&prefixProtocol{start: 0xaa}, p)
	r.reply = func(f, reply *Frame) bool {
		reply.ID = f.ID
		require.NoError(t, reply.SetPayload([]byte{0x42}))
		return true
	}
	tr.in = []byte{0x55, 0x03, 0x00}
	require.NoError(t, m.Pump(context.Background(), time.Now()))
	require.Equal(t, []byte{0x55, 0x03, 0x01, 0x42}, tr.out)
	require.Equal(t, 1, m.Stats().Replies)

	require.NoError(t, m.Send(&Frame{ID: 0x09, Payload: buffer.NewSized(0)}))
	require.NoError(t, m.Flush())
	require.Equal(t, []byte{0x55, 0x03, 0x01, 0x42, 0x55, 0x09, 0x00}, tr.out)
}

func TestManagerReplyEncodeFailure(t *testing.T) {
	encodeErr := errors.New("unencodable")
	m, tr, r := newTestManager(&prefixProtocol{start: 0xaa, encodeErr: encodeErr})
	r.reply = func(f, reply *Frame) bool {
		reply.ID = 0x42
		return true
	}
	tr.in = []byte{0xaa, 0x03, 0x00, 0xaa, 0x04, 0x00}
	err := m.Pump(context.Background(), time.Now())
	require.Error(t, err)
	require.True(t, errors.Is(err, encodeErr))
	var re *ReplyError
	require.True(t, errors.As(err, &re))
	require.Equal(t, byte(0x42), re.ID)
	require.Equal(t, "prefix", re.Protocol)
	require.Len(t, r.frames, 2)
	require.Equal(t, 2, m.Stats().TxErrors)
	require.Equal(t, 0, m.Stats().Replies)
	require.Empty(t, tr.out)
}

func TestManagerSendDefaultProtocol(t *testing.T) {
	m, tr, _ := newTestManager(&prefixProtocol{start: 0xaa})
	f := NewOwnedFrame(0x01, 4)
	require.NoError(t, f.SetPayload([]byte{1, 2}))
	require.NoError(t, m.Send(f))
	require.Equal(t, 5, m.Pending())
	require.NoError(t, m.Pump(context.Background(), time.Now()))
	require.Equal(t, []byte{0xaa, 0x01, 0x02, 1, 2}, tr.out)
	require.Equal(t, 0, m.Pending())

	empty := NewManager(tr, DefaultOptions())
	require.Equal(t, ErrNoProtocol, empty.Send(f))
}

func TestManagerSendFallback(t *testing.T) {
	text := &prefixProtocol{start: 0x55, encodeErr: ErrMalformed}
	m, tr, _ := newTestManager(text, &prefixProtocol{start: 0xaa})
	tr.in = []byte{0x55, 0x01, 0x00}
	require.NoError(t, m.Pump(context.Background(), time.Now()))
	require.Equal(t, text, m.Last())

	require.NoError(t, m.Send(&Frame{ID: 0x02, Payload: buffer.NewSized(0)}))
	require.NoError(t, m.Flush())
	require.Equal(t, []byte{0xaa, 0x02, 0x00}, tr.out)

	only, _, _ := newTestManager(text)
	require.Equal(t, ErrMalformed, only.Send(&Frame{ID: 0x02, Payload: buffer.NewSized(0)}))
	require.Equal(t, 0, only.Pending())
}

func TestManagerSendTooLarge(t *testing.T) {
	m, _, _ := newTestManager(&prefixProtocol{start: 0xaa})
	f := NewOwnedFrame(0x01, 32)
	require.NoError(t, f.SetPayload(make([]byte, 17)))
	require.Equal(t, ErrFrameTooLarge, m.Send(f))
	require.Equal(t, 0, m.Pending())
}

func TestManagerWriteFailure(t *testing.T) {
	m, tr, _ := newTestManager(&prefixProtocol{start: 0xaa})
	tr.writeErr = errors.New("broken")
	require.NoError(t, m.Send(&Frame{ID: 1, Payload: buffer.NewSized(0)}))
	err := m.Pump(context.Background(), time.Now())
	require.Error(t, err)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "write", te.Op)
	require.Equal(t, 3, m.Pending())

	tr.writeErr = nil
	tr.maxWrite = 2
	require.NoError(t, m.Flush())
	require.Equal(t, []byte{0xaa, 1, 0}, tr.out)
	require.Equal(t, 0, m.Pending())
}

func TestManagerReadFailure(t *testing.T) {
	m, tr, _ := newTestManager(&prefixProtocol{start: 0xaa})
	tr.in = []byte{1}
	tr.readErr = errors.New("gone")
	err := m.Pump(context.Background(), time.Now())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "read", te.Op)
}

func TestManagerBackPressure(t *testing.T) {
	tr := &testTransport{}
	m := NewManager(tr, Options{RxSize: 4, MaxFrame: 8})
	tr.in = []byte{0xaa, 1, 6, 1, 2, 3, 4, 5, 6}
	var got []byte
	m.Handler = HandleFrameFunc(func(ctx context.Context, f *Frame, reply *Frame) bool {
		got = append(got, f.Bytes()...)
		return false
	})
	m.Register(&prefixProtocol{start: 0xaa, timeout: time.Hour})
	now := time.Now()
	require.NoError(t, m.Pump(context.Background(), now))
	require.Equal(t, 4, m.Buffered())
	require.Equal(t, 5, tr.Available())
	// the frame can never fit the RX buffer and is stuck until timeout
	require.NoError(t, m.Pump(context.Background(), now))
	require.Equal(t, StateMatched, m.State())
	require.Nil(t, got)
}

func TestManagerPersistent(t *testing.T) {
	p := &prefixProtocol{start: 0xaa, persistent: true, timeout: 50 * time.Millisecond}
	m, tr, r := newTestManager(p)
	var states []State
	m.Notifier = StateChangedFunc(func(s State, _ Protocol) { states = append(states, s) })
	now := time.Now()
	tr.in = []byte{0xaa, 1, 0}
	require.NoError(t, m.Pump(context.Background(), now))
	require.Equal(t, StateMatched, m.State())
	tr.in = []byte{0xaa, 2, 0}
	require.NoError(t, m.Pump(context.Background(), now.Add(10*time.Millisecond)))
	require.Len(t, r.frames, 2)
	require.Equal(t, StateMatched, m.State())
	require.Equal(t, []State{StateProbing, StateMatched}, states)

	m.Reset()
	require.Equal(t, StateIdle, m.State())
	require.Nil(t, m.Current())
}

func TestParse(t *testing.T) {
	p := &prefixProtocol{start: 0xaa}
	f := NewOwnedFrame(0, 4)
	testCases := []struct {
		name  string
		input []byte
		n     int
		err   error
	}{
		{"ready", []byte{0xaa, 1, 1, 9, 0}, 4, nil},
		{"incomplete", []byte{0xaa, 1, 2, 9}, 0, ErrIncomplete},
		{"invalid", []byte{0xaa, 1, 9}, 3, ErrMalformed},
		{"unknown", []byte{0x00}, 0, ErrNotRecognized},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Parse(p, tc.input, f)
			require.Equalf(t, tc.err, err, "%s error mismatch", tc.name)
			require.Equalf(t, tc.n, n, "%s consumed mismatch", tc.name)
		})
	}
}

func TestEncodeFrameRollback(t *testing.T) {
	p := &prefixProtocol{start: 0xaa}
	out := buffer.NewSized(4)
	require.NoError(t, out.AppendByte(0x11))
	f := NewOwnedFrame(1, 4)
	require.NoError(t, f.SetPayload([]byte{1, 2}))
	require.Equal(t, buffer.ErrCapacityExceeded, EncodeFrame(p, f, out))
	require.Equal(t, []byte{0x11}, out.Bytes())
}
