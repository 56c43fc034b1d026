package session

import "errors"

var (
	// ErrNoReply indicates no reply received from peer.
	// This happens when a reply is received for a latter command, and all
	// previous commands fail with this error.
	ErrNoReply = errors.New("session: no reply")
	// ErrOutboxFull indicates a deferred message is already waiting.
	ErrOutboxFull = errors.New("session: outbox full")
	// ErrEmptyFrame indicates a frame without the sequence byte.
	ErrEmptyFrame = errors.New("session: empty frame")
	// ErrNoSender indicates a deferred message can't be flushed without a
	// Sender.
	ErrNoSender = errors.New("session: no sender")
)
