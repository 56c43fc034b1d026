// Package device simulates the device side of a link: it answers pings,
// accepts rate changes, streams status messages and serves session
// requests.
package device

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/codec"
	fx "github.com/robotalks/linkstack/pkg/framework"
	"github.com/robotalks/linkstack/pkg/link"
	"github.com/robotalks/linkstack/pkg/msgs"
	"github.com/robotalks/linkstack/pkg/session"
)

// Session request identifiers.
const (
	RequestEcho   byte = 0x01
	RequestUptime byte = 0x02
	RequestArm    byte = 0x03
	// EventArmed is sent when the armed state changes.
	EventArmed byte = 0x10
)

// Volts lost per second while armed.
const drainRate = 0.01

// Device is a simulated peripheral.
type Device struct {
	Link     *link.Manager
	Registry *codec.Registry
	Session  *session.Handler
	// CodecID is the frame identifier of status messages.
	CodecID byte

	status     msgs.Status
	rate       uint16
	started    time.Time
	updated    time.Time
	lastStatus time.Time
	frame      *link.Frame
}

// New creates a Device and installs it as the frame handler of m.
func New(m *link.Manager, r *codec.Registry, codecID byte, rate uint16, voltage float32) *Device {
	d := &Device{
		Link:     m,
		Registry: r,
		CodecID:  codecID,
		rate:     rate,
		frame:    link.NewOwnedFrame(0, m.Options().MaxFrame),
	}
	d.status.Voltage = voltage
	d.status.Temp = 25
	d.Session = session.NewHandler(session.HandlePacketFunc(d.HandlePacket), m, m.Options().MaxFrame)
	mux := link.NewFrameMux().Handle(link.HandleFrameFunc(d.handleMessage), r.FrameIDs()...)
	mux.Default = d.Session
	m.Handler = mux
	return d
}

// Status returns the current status.
func (d *Device) Status() msgs.Status {
	return d.status
}

// Rate returns the status rate in Hz.
func (d *Device) Rate() uint16 {
	return d.rate
}

// AddToLoop implements fx.LoopAdder.
func (d *Device) AddToLoop(l *fx.Loop) {
	l.Add(d.Link, d.Session)
	l.AddController(fx.PrLvControl, fx.ControlFunc(d.Control))
}

// Control advances the simulation and sends status when due.
func (d *Device) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if d.started.IsZero() {
		d.started, d.updated = now, now
	}
	if d.status.Armed {
		d.status.Voltage -= float32(now.Sub(d.updated).Seconds() * drainRate)
	}
	d.updated = now
	d.status.UptimeMs = uint32(now.Sub(d.started) / time.Millisecond)
	if d.rate == 0 || now.Sub(d.lastStatus) < time.Second/time.Duration(d.rate) {
		return nil
	}
	d.lastStatus = now
	d.frame.Reset()
	if err := d.Registry.Encode(&d.status, d.CodecID, d.frame); err != nil {
		return err
	}
	return d.Link.Send(d.frame)
}

func (d *Device) handleMessage(ctx context.Context, f *link.Frame, reply *link.Frame) bool {
	msg, err := d.Registry.Decode(f)
	if err != nil {
		glog.Warningf("device: %s: %v", f, err)
		return false
	}
	switch m := msg.(type) {
	case *msgs.Ping:
	case *msgs.Rate:
		d.rate = m.Hz
		glog.Infof("device: status rate %d Hz", m.Hz)
	default:
		return false
	}
	// acknowledge with the same message using the codec of the request
	if err := d.Registry.Encode(msg, f.ID, reply); err != nil {
		glog.Warningf("device: reply %s: %v", msg.Name(), err)
		return false
	}
	return true
}

// HandlePacket implements session.PacketHandler.
func (d *Device) HandlePacket(ctx context.Context, pkt *session.Packet) bool {
	switch pkt.ID {
	case RequestEcho:
		_, err := pkt.Response.Append(pkt.Body, false)
		return err == nil
	case RequestUptime:
		return pkt.Response.AppendUint32(d.status.UptimeMs, buffer.BigEndian, false) == nil
	case RequestArm:
		armed := len(pkt.Body) > 0 && pkt.Body[0] != 0
		if armed != d.status.Armed {
			d.status.Armed = armed
			var body [1]byte
			if armed {
				body[0] = 1
			}
			if err := d.Session.Push(EventArmed, body[:]); err != nil {
				glog.Warningf("device: armed event: %v", err)
			}
		}
		return pkt.Response.AppendBool(d.status.Armed, false) == nil
	}
	return false
}
