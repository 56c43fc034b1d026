package transport

import "errors"

var (
	// ErrClosed indicates the transport is closed.
	ErrClosed = errors.New("transport: closed")
	// ErrUnsupportedScheme indicates an unknown URL scheme.
	ErrUnsupportedScheme = errors.New("transport: unsupported scheme")
)
