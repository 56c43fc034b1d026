package mqtt

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/transport"
)

// Topic suffixes
const (
	TopicUp   = "up"   // device to host
	TopicDown = "down" // host to device
)

// Transport is a link.Transport over a topic pair. Each Write is one MQTT
// message.
type Transport struct {
	Client   *Client
	SubTopic string
	PubTopic string

	rx *transport.Queue
}

// NewTransport creates a Transport.
func NewTransport(c *Client, sub, pub string) *Transport {
	return &Transport{
		Client:   c,
		SubTopic: sub,
		PubTopic: pub,
		rx:       transport.NewQueue(transport.DefaultQueueSize),
	}
}

// ForHost uses the convention of the host side of a named link:
// subscribe name/up, publish name/down.
func ForHost(c *Client, name string) *Transport {
	return NewTransport(c, name+"/"+TopicUp, name+"/"+TopicDown)
}

// ForDevice uses the convention of the device side of a named link:
// subscribe name/down, publish name/up.
func ForDevice(c *Client, name string) *Transport {
	return NewTransport(c, name+"/"+TopicDown, name+"/"+TopicUp)
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
	token := t.Client.Pub(t.PubTopic, append([]byte(nil), p...))
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Run implements framework.Runnable.
func (t *Transport) Run(ctx context.Context) error {
	token := t.Client.Sub(t.SubTopic, t.handleMsg)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer t.Client.Unsub(t.SubTopic)
	<-ctx.Done()
	return ctx.Err()
}

// AddToLoop implements framework.LoopAdder.
func (t *Transport) AddToLoop(l *framework.Loop) {
	l.AddRunnable(framework.NamedRun("mqtt:"+t.SubTopic, t))
}

func (t *Transport) handleMsg(topic string, payload []byte) {
	if n := t.rx.Offer(payload); n < len(payload) {
		glog.Warningf("mqtt %s: dropped %d bytes", topic, len(payload)-n)
	}
}
