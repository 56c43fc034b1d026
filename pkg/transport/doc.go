// Package transport provides link.Transport implementations.
//
// A link.Manager never blocks, so transports backed by blocking I/O read in
// a background Runnable into a bounded Queue which the Manager drains.
package transport
