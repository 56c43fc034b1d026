package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/linkstack/pkg/buffer"
	"github.com/robotalks/linkstack/pkg/codec"
)

// Message groups
const (
	GroupSystem  byte = 0x00
	GroupControl byte = 0x01
)

// Message IDs
const (
	PingID   byte = 0x01
	RateID   byte = 0x01
	StatusID byte = 0x02
)

var (
	pingParams   = codec.NewParamTable("NONCE")
	rateParams   = codec.NewParamTable("RATE_HZ")
	statusParams = codec.NewParamTable("UPTIME", "VOLTAGE", "ARMED", "TEMP")
)

// Register adds all messages of this package to r.
func Register(r *codec.Registry) *codec.Registry {
	return r.Register(
		func() codec.Message { return &Ping{} },
		func() codec.Message { return &Rate{} },
		func() codec.Message { return &Status{} },
	)
}

// Ping asks the peer to echo the nonce.
type Ping struct {
	PingPB
}

// Group implements codec.Message.
func (m *Ping) Group() byte { return GroupSystem }

// ID implements codec.Message.
func (m *Ping) ID() byte { return PingID }

// Name implements codec.Message.
func (m *Ping) Name() string { return "PING" }

// MarshalBinaryFields implements codec.BinaryAdapter.
func (m *Ping) MarshalBinaryFields(b *buffer.Buffer, order buffer.Endian) error {
	return b.AppendUint32(m.Nonce, order, false)
}

// UnmarshalBinaryFields implements codec.BinaryAdapter.
func (m *Ping) UnmarshalBinaryFields(c *buffer.Cursor) error {
	v, ok := c.Uint32()
	if !ok {
		return codec.ErrShortPayload
	}
	m.Nonce = v
	return nil
}

// Params implements codec.TextAdapter.
func (m *Ping) Params() *codec.ParamTable { return pingParams }

// RenderParams implements codec.TextAdapter.
func (m *Ping) RenderParams(p *codec.Params) error {
	return p.SetUint("NONCE", uint64(m.Nonce))
}

// ApplyParams implements codec.TextAdapter.
func (m *Ping) ApplyParams(p *codec.Params) error {
	v := uint64(m.Nonce)
	if err := p.Uint("NONCE", &v, 32); err != nil {
		return err
	}
	m.Nonce = uint32(v)
	return nil
}

// Serializable implements codec.ProtoAdapter.
func (m *Ping) Serializable() proto.Message { return &m.PingPB }

// Rate sets the reporting rate of the peer.
type Rate struct {
	Hz uint16
}

// Group implements codec.Message.
func (m *Rate) Group() byte { return GroupControl }

// ID implements codec.Message.
func (m *Rate) ID() byte { return RateID }

// Name implements codec.Message.
func (m *Rate) Name() string { return "RATE" }

// MarshalBinaryFields implements codec.BinaryAdapter.
func (m *Rate) MarshalBinaryFields(b *buffer.Buffer, order buffer.Endian) error {
	return b.AppendUint16(m.Hz, order, false)
}

// UnmarshalBinaryFields implements codec.BinaryAdapter.
func (m *Rate) UnmarshalBinaryFields(c *buffer.Cursor) error {
	v, ok := c.Uint16()
	if !ok {
		return codec.ErrShortPayload
	}
	m.Hz = v
	return nil
}

// Params implements codec.TextAdapter.
func (m *Rate) Params() *codec.ParamTable { return rateParams }

// RenderParams implements codec.TextAdapter.
func (m *Rate) RenderParams(p *codec.Params) error {
	return p.SetUint("RATE_HZ", uint64(m.Hz))
}

// ApplyParams implements codec.TextAdapter.
func (m *Rate) ApplyParams(p *codec.Params) error {
	v := uint64(m.Hz)
	if err := p.Uint("RATE_HZ", &v, 16); err != nil {
		return err
	}
	m.Hz = uint16(v)
	return nil
}

// Serializable implements codec.ProtoAdapter.
func (m *Rate) Serializable() proto.Message { return &rateProto{m} }

// rateProto keeps the 16-bit field of Rate in sync with RatePB.
type rateProto struct {
	m *Rate
}

func (p *rateProto) Reset()         { p.m.Hz = 0 }
func (p *rateProto) String() string { return proto.CompactTextString(&RatePB{Hz: uint32(p.m.Hz)}) }
func (p *rateProto) ProtoMessage()  {}

// Marshal implements proto.Marshaler.
func (p *rateProto) Marshal() ([]byte, error) {
	return proto.Marshal(&RatePB{Hz: uint32(p.m.Hz)})
}

// Unmarshal implements proto.Unmarshaler.
func (p *rateProto) Unmarshal(data []byte) error {
	var pb RatePB
	if err := proto.Unmarshal(data, &pb); err != nil {
		return err
	}
	p.m.Hz = uint16(pb.Hz)
	return nil
}

// Status reports the state of the peer.
type Status struct {
	StatusPB
}

// Group implements codec.Message.
func (m *Status) Group() byte { return GroupControl }

// ID implements codec.Message.
func (m *Status) ID() byte { return StatusID }

// Name implements codec.Message.
func (m *Status) Name() string { return "STATUS" }

// MarshalBinaryFields implements codec.BinaryAdapter.
func (m *Status) MarshalBinaryFields(b *buffer.Buffer, order buffer.Endian) error {
	if 4+4+1+4 > b.Free() {
		return buffer.ErrCapacityExceeded
	}
	b.AppendUint32(m.UptimeMs, order, false)
	b.AppendFloat32(m.Voltage, order, false)
	b.AppendBool(m.Armed, false)
	return b.AppendInt32(m.Temp, order, false)
}

// UnmarshalBinaryFields implements codec.BinaryAdapter.
func (m *Status) UnmarshalBinaryFields(c *buffer.Cursor) error {
	if c.Remaining() < 4+4+1+4 {
		return codec.ErrShortPayload
	}
	m.UptimeMs, _ = c.Uint32()
	m.Voltage, _ = c.Float32()
	m.Armed, _ = c.Bool()
	m.Temp, _ = c.Int32()
	return nil
}

// Params implements codec.TextAdapter.
func (m *Status) Params() *codec.ParamTable { return statusParams }

// RenderParams implements codec.TextAdapter.
func (m *Status) RenderParams(p *codec.Params) error {
	p.SetUint("UPTIME", uint64(m.UptimeMs))
	p.SetFloat("VOLTAGE", float64(m.Voltage), 32)
	p.SetBool("ARMED", m.Armed)
	return p.SetInt("TEMP", int64(m.Temp))
}

// ApplyParams implements codec.TextAdapter.
func (m *Status) ApplyParams(p *codec.Params) error {
	uptime, voltage, temp := uint64(m.UptimeMs), float64(m.Voltage), int64(m.Temp)
	if err := p.Uint("UPTIME", &uptime, 32); err != nil {
		return err
	}
	if err := p.Float("VOLTAGE", &voltage, 32); err != nil {
		return err
	}
	if err := p.Bool("ARMED", &m.Armed); err != nil {
		return err
	}
	if err := p.Int("TEMP", &temp, 32); err != nil {
		return err
	}
	m.UptimeMs, m.Voltage, m.Temp = uint32(uptime), float32(voltage), int32(temp)
	return nil
}

// Serializable implements codec.ProtoAdapter.
func (m *Status) Serializable() proto.Message { return &m.StatusPB }
