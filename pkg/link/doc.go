// Package link provides frame extraction and protocol auto-detection over
// point-to-point byte channels.
package link

// A Manager owns one Transport, an ordered list of Protocols and two bounded
// buffers. It never blocks and spawns no goroutines: the owner calls Pump
// periodically (directly or via AddToLoop) and each call drains what the
// transport has, runs the probe/match state machine over the RX buffer,
// dispatches complete frames to the FrameHandler and flushes replies.
//
// Protocols are probed in registration order. The first one which recognizes
// a prefix of the RX buffer becomes sticky until it produces a frame, reports
// the frame invalid, or stays incomplete for longer than its timeout.
