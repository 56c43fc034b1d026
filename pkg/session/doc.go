// Package session correlates request and reply frames with sequence numbers.
package session

// Every session frame carries the sequence number as its first payload byte:
//
//	[seq][body...]
//
// A reply keeps the frame identifier of the request and carries the
// request's sequence number, so the requester can match it against the
// commands it has in flight. Frames sent without being asked for (events)
// set EventFlag on the identifier and carry the sender's own sequence.
//
// Handler is the responder side, wrapping a PacketHandler. Client is the
// requester side.
