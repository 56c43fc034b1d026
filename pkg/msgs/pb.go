package msgs

import "github.com/golang/protobuf/proto"

// PingPB is the protobuf form of Ping.
type PingPB struct {
	Nonce uint32 `protobuf:"varint,1,opt,name=nonce,proto3" json:"nonce,omitempty"`
}

// Reset implements proto.Message.
func (m *PingPB) Reset() { *m = PingPB{} }

// String implements proto.Message.
func (m *PingPB) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*PingPB) ProtoMessage() {}

// RatePB is the protobuf form of Rate.
type RatePB struct {
	Hz uint32 `protobuf:"varint,1,opt,name=hz,proto3" json:"hz,omitempty"`
}

// Reset implements proto.Message.
func (m *RatePB) Reset() { *m = RatePB{} }

// String implements proto.Message.
func (m *RatePB) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*RatePB) ProtoMessage() {}

// StatusPB is the protobuf form of Status.
type StatusPB struct {
	UptimeMs uint32  `protobuf:"varint,1,opt,name=uptime_ms,json=uptimeMs,proto3" json:"uptime_ms,omitempty"`
	Voltage  float32 `protobuf:"fixed32,2,opt,name=voltage,proto3" json:"voltage,omitempty"`
	Armed    bool    `protobuf:"varint,3,opt,name=armed,proto3" json:"armed,omitempty"`
	Temp     int32   `protobuf:"zigzag32,4,opt,name=temp,proto3" json:"temp,omitempty"`
}

// Reset implements proto.Message.
func (m *StatusPB) Reset() { *m = StatusPB{} }

// String implements proto.Message.
func (m *StatusPB) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*StatusPB) ProtoMessage() {}
