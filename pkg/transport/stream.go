package transport

import (
	"context"
	"io"
	"net"

	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/framework"
)

// DefaultQueueSize is the receive queue size of stream transports.
const DefaultQueueSize = 4096

// Stream adapts a blocking io.ReadWriteCloser, like a net.Conn or a serial
// port, to link.Transport. Run must be running for bytes to arrive.
type Stream struct {
	Name string

	conn io.ReadWriteCloser
	rx   *Queue
}

// NewStream creates a Stream over conn.
func NewStream(name string, conn io.ReadWriteCloser) *Stream {
	return &Stream{Name: name, conn: conn, rx: NewQueue(DefaultQueueSize)}
}

// Dial connects a TCP stream.
func Dial(ctx context.Context, address string) (*Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewStream("tcp://"+address, conn), nil
}

// Available implements link.Transport.
func (s *Stream) Available() int {
	return s.rx.Available()
}

// Read implements link.Transport.
func (s *Stream) Read(p []byte) (int, error) {
	return s.rx.Read(p)
}

// Write implements link.Transport.
func (s *Stream) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	s.rx.Close()
	return s.conn.Close()
}

// Run implements framework.Runnable.
func (s *Stream) Run(ctx context.Context) error {
	return framework.RunWithContextCloser(ctx, s.conn, func() error {
		return s.readLoop(ctx)
	})
}

func (s *Stream) readLoop(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			glog.V(4).Infof("%s: RCV %d bytes", s.Name, n)
			if perr := s.rx.Put(ctx, buf[:n]); perr != nil {
				return perr
			}
		}
		if err != nil {
			return err
		}
	}
}

// AddToLoop implements framework.LoopAdder.
func (s *Stream) AddToLoop(l *framework.Loop) {
	l.AddRunnable(framework.NamedRun(s.Name, s))
}
