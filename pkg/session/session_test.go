package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/link/protocols"
)

func TestSeq(t *testing.T) {
	for s := 0xff; s > int(MaxSeq); s-- {
		require.False(t, Seq(s).IsValid())
		require.Equal(t, Seq(1), Seq(s).Next())
	}
	for s := 1; s <= int(MaxSeq); s++ {
		require.True(t, Seq(s).IsValid())
		if s < int(MaxSeq) {
			require.Equal(t, Seq(s+1), Seq(s).Next())
		} else {
			require.Equal(t, Seq(1), Seq(s).Next())
		}
	}
	require.False(t, Seq(0).IsValid())
	require.Equal(t, Seq(1), Seq(0).Next())
	require.True(t, NewSeq().IsValid())
}

func TestEncodeDecode(t *testing.T) {
	f := link.NewOwnedFrame(0, 4)
	require.NoError(t, Encode(f, 0x12, 7, []byte{1, 2, 3}))
	require.Equal(t, byte(0x12), f.ID)
	require.Equal(t, []byte{7, 1, 2, 3}, f.Bytes())
	seq, body, err := Decode(f)
	require.NoError(t, err)
	require.Equal(t, Seq(7), seq)
	require.Equal(t, []byte{1, 2, 3}, body)

	require.Error(t, Encode(f, 0x12, 7, []byte{1, 2, 3, 4}))
	f.Reset()
	_, _, err = Decode(f)
	require.Equal(t, ErrEmptyFrame, err)
}

type sentFrame struct {
	id      byte
	payload []byte
}

type testSender struct {
	frames []sentFrame
	err    error
}

func (s *testSender) Send(f *link.Frame) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, sentFrame{id: f.ID, payload: append([]byte(nil), f.Bytes()...)})
	return nil
}

func requestFrame(id byte, seq Seq, body ...byte) *link.Frame {
	f := link.NewOwnedFrame(0, 32)
	Encode(f, id, seq, body)
	return f
}

func TestHandlerReply(t *testing.T) {
	var got []*Packet
	h := NewHandler(HandlePacketFunc(func(ctx context.Context, pkt *Packet) bool {
		got = append(got, &Packet{Seq: pkt.Seq, ID: pkt.ID, Body: append([]byte(nil), pkt.Body...)})
		if pkt.ID == 0x02 {
			return false
		}
		pkt.Response.Append([]byte{0xa0, 0xa1}, false)
		return true
	}), &testSender{}, 32)
	h.seq = 5

	reply := link.NewOwnedFrame(0, 32)
	require.True(t, h.HandleFrame(context.Background(), requestFrame(0x01, 9, 0x33), reply))
	require.Equal(t, byte(0x01), reply.ID)
	require.Equal(t, []byte{9, 0xa0, 0xa1}, reply.Bytes())
	require.Equal(t, Seq(6), h.Seq())

	reply.Reset()
	require.False(t, h.HandleFrame(context.Background(), requestFrame(0x02, 10), reply))
	require.Equal(t, Seq(7), h.Seq())

	require.Len(t, got, 2)
	require.Equal(t, Seq(9), got[0].Seq)
	require.Equal(t, []byte{0x33}, got[0].Body)
	require.Equal(t, byte(0x02), got[1].ID)
}

func TestHandlerDropsInvalid(t *testing.T) {
	called := false
	h := NewHandler(HandlePacketFunc(func(ctx context.Context, pkt *Packet) bool {
		called = true
		return true
	}), &testSender{}, 32)
	reply := link.NewOwnedFrame(0, 32)
	require.False(t, h.HandleFrame(context.Background(), link.NewOwnedFrame(0x01, 4), reply))
	require.False(t, h.HandleFrame(context.Background(), requestFrame(0x01, 0xf5), reply))
	require.False(t, called)
}

func TestHandlerEvent(t *testing.T) {
	var events []byte
	h := NewHandler(HandlePacketFunc(func(ctx context.Context, pkt *Packet) bool {
		if pkt.IsEvent() {
			events = append(events, pkt.ID)
		}
		return true
	}), &testSender{}, 32)
	seq := h.Seq()
	require.False(t, h.HandleFrame(context.Background(), requestFrame(0x83, 1), link.NewOwnedFrame(0, 32)))
	require.Equal(t, []byte{0x83}, events)
	require.Equal(t, seq, h.Seq())
}

func TestHandlerFlushFailures(t *testing.T) {
	h := NewHandler(nil, nil, 8)
	require.NoError(t, h.Flush())
	require.NoError(t, h.Push(0x05, nil))
	require.Equal(t, ErrNoSender, h.Flush())
	require.True(t, h.Queued())

	sender := &testSender{err: link.ErrMalformed}
	h.Sender = sender
	seq := h.Seq()
	require.Equal(t, link.ErrMalformed, h.Flush())
	require.False(t, h.Queued())
	require.Equal(t, seq, h.Seq())
	require.NoError(t, h.Push(0x06, nil))
}

func TestHandlerOutbox(t *testing.T) {
	sender := &testSender{}
	h := NewHandler(HandlePacketFunc(func(ctx context.Context, pkt *Packet) bool {
		pkt.Response.AppendByte(0xcc)
		return true
	}), sender, 8)
	h.seq = 3

	require.NoError(t, h.Push(0x05, []byte{1, 2}))
	require.True(t, h.Queued())
	require.Equal(t, ErrOutboxFull, h.Push(0x06, nil))

	// a reply assembled while the message waits doesn't touch it
	reply := link.NewOwnedFrame(0, 8)
	require.True(t, h.HandleFrame(context.Background(), requestFrame(0x01, 9), reply))
	require.Equal(t, []byte{9, 0xcc}, reply.Bytes())

	sender.err = buffer.ErrCapacityExceeded
	require.Error(t, h.Flush())
	require.True(t, h.Queued())

	sender.err = nil
	require.NoError(t, h.Flush())
	require.False(t, h.Queued())
	require.Len(t, sender.frames, 1)
	require.Equal(t, byte(0x85), sender.frames[0].id)
	require.Equal(t, []byte{5, 1, 2}, sender.frames[0].payload)
	require.Equal(t, Seq(5), h.Seq())
	require.NoError(t, h.Flush())
	require.Len(t, sender.frames, 1)

	require.Error(t, h.Push(0x05, make([]byte, 8)))
	require.False(t, h.Queued())
}

func nextResult(t *testing.T, cmd *Command) Result {
	select {
	case r := <-cmd.ResultChan():
		return r
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("seq %d: timeout", cmd.RequestSeq())
	}
	return Result{}
}

func TestClient(t *testing.T) {
	sender := &testSender{}
	c := NewClient(sender, 32)
	c.seq = 1
	cmd1 := c.Do(0x01, nil)
	cmd2 := c.Do(0x02, []byte{3})
	require.Empty(t, sender.frames)
	require.NoError(t, c.Flush())
	require.Equal(t, []sentFrame{
		{id: 0x01, payload: []byte{1}},
		{id: 0x02, payload: []byte{2, 3}},
	}, sender.frames)

	reply := link.NewOwnedFrame(0, 32)
	c.HandleFrame(context.Background(), requestFrame(0x02, 2, 0x44), reply)
	r := nextResult(t, cmd1)
	require.Equal(t, ErrNoReply, r.Err)
	r = nextResult(t, cmd2)
	require.NoError(t, r.Err)
	require.Equal(t, byte(0x02), r.ID)
	require.Equal(t, []byte{0x44}, r.Body)
}

func TestClientEvent(t *testing.T) {
	c := NewClient(&testSender{}, 32)
	c.HandleFrame(context.Background(), requestFrame(0x91, 4, 2), link.NewOwnedFrame(0, 32))
	select {
	case ev := <-c.EventChan():
		require.Equal(t, byte(0x11), ev.ID)
		require.Equal(t, Seq(4), ev.Seq)
		require.Equal(t, []byte{2}, ev.Body)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("event timeout")
	}
}

func TestClientExpire(t *testing.T) {
	c := NewClient(&testSender{}, 32)
	now := time.Now()
	cmd1 := c.DoAt(0x01, nil, now)
	cmd2 := c.DoAt(0x01, nil, now.Add(time.Second))
	require.NoError(t, c.Flush())
	c.Expire(now.Add(c.Expiration))
	require.Equal(t, context.DeadlineExceeded, nextResult(t, cmd1).Err)
	select {
	case <-cmd2.ResultChan():
		t.Fatal("unexpected result")
	default:
	}
}

func TestClientSendFailure(t *testing.T) {
	sender := &testSender{err: errors.New("broken")}
	c := NewClient(sender, 4)
	cmd := c.Do(0x01, nil)
	tooLarge := c.Do(0x01, make([]byte, 4))
	require.NoError(t, c.Flush())
	require.Equal(t, sender.err, nextResult(t, cmd).Err)
	require.Error(t, nextResult(t, tooLarge).Err)
}

// loopback connects two transports back to back.
type loopback struct {
	in  *[]byte
	out *[]byte
}

func (l loopback) Available() int { return len(*l.in) }

func (l loopback) Read(p []byte) (int, error) {
	n := copy(p, *l.in)
	*l.in = (*l.in)[n:]
	return n, nil
}

func (l loopback) Write(p []byte) (int, error) {
	*l.out = append(*l.out, p...)
	return len(p), nil
}

func TestSessionOverLink(t *testing.T) {
	var a2b, b2a []byte
	opts := link.Options{MaxFrame: 32}
	host := link.NewManager(loopback{in: &b2a, out: &a2b}, opts).Register(protocols.NewSum8())
	device := link.NewManager(loopback{in: &a2b, out: &b2a}, opts).Register(protocols.NewSum8())

	client := NewClient(host, 32)
	host.Handler = client
	handler := NewHandler(HandlePacketFunc(func(ctx context.Context, pkt *Packet) bool {
		for _, b := range pkt.Body {
			pkt.Response.AppendByte(b + 1)
		}
		return true
	}), device, 32)
	device.Handler = handler

	ctx, now := context.Background(), time.Now()
	cmd := client.Do(0x21, []byte{1, 2})
	require.NoError(t, client.Flush())
	require.NoError(t, host.Pump(ctx, now))
	require.NoError(t, handler.Push(0x07, []byte{9}))
	require.NoError(t, device.Pump(ctx, now))
	require.NoError(t, handler.Flush())
	require.NoError(t, device.Flush())
	require.NoError(t, host.Pump(ctx, now))

	r := nextResult(t, cmd)
	require.NoError(t, r.Err)
	require.Equal(t, byte(0x21), r.ID)
	require.Equal(t, []byte{2, 3}, r.Body)

	ev := <-client.EventChan()
	require.Equal(t, byte(0x07), ev.ID)
	require.Equal(t, []byte{9}, ev.Body)
}
