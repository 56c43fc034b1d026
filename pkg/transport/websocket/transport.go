// Package websocket carries link bytes over binary websocket messages.
package websocket

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/transport"
)

// Transport is a link.Transport over a websocket connection. Each Write is
// sent as one binary message.
type Transport struct {
	Conn *websocket.Conn

	rx *transport.Queue
}

// New wraps conn.
func New(conn *websocket.Conn) *Transport {
	return &Transport{Conn: conn, rx: transport.NewQueue(transport.DefaultQueueSize)}
}

// Dial connects to a websocket server.
func Dial(url, origin string) (*Transport, error) {
	if origin == "" {
		origin = "http://localhost/"
	}
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Handler accepts websocket connections and hands each over as a Transport.
// serve runs until the connection should be closed.
func Handler(serve func(*Transport)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		serve(New(conn))
	})
}

// Available implements link.Transport.
func (t *Transport) Available() int {
	return t.rx.Available()
}

// Read implements link.Transport.
func (t *Transport) Read(p []byte) (int, error) {
	return t.rx.Read(p)
}

// Write implements link.Transport.
func (t *Transport) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(t.Conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (t *Transport) Close() error {
	t.rx.Close()
	return t.Conn.Close()
}

// Run implements framework.Runnable.
func (t *Transport) Run(ctx context.Context) error {
	return framework.RunWithContextCloser(ctx, t.Conn, func() error {
		for {
			var msg []byte
			if err := websocket.Message.Receive(t.Conn, &msg); err != nil {
				return err
			}
			glog.V(4).Infof("websocket: RCV %d bytes", len(msg))
			if err := t.rx.Put(ctx, msg); err != nil {
				return err
			}
		}
	})
}

// AddToLoop implements framework.LoopAdder.
func (t *Transport) AddToLoop(l *framework.Loop) {
	l.AddRunnable(framework.NamedRun("websocket", t))
}
