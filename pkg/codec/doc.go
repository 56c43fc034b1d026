// Package codec converts typed application messages to and from frame
// payloads.
//
// A message type implements Message plus one adapter per codec family it
// can travel over: BinaryAdapter for Binary, TextAdapter for Text and
// ProtoAdapter for Proto. CBOR needs no adapter, it encodes exported
// fields. The same struct can be sent over any of them.
//
// Binary payload:
//
//	[group][id][field1]...[fieldN]
//
// Text payload:
//
//	NAME PARAM1=val1 PARAM2=val2
//
// Proto payload:
//
//	[group][id][protobuf encoded message]
//
// CBOR payload:
//
//	[group][id][CBOR map of exported fields]
package codec
