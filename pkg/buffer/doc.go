// Package buffer provides bounded byte storage for the link stack.
package buffer

// A Buffer never grows: its storage is handed over at construction, either
// borrowed from the caller or allocated once by NewSized, and every write
// that doesn't fit is either truncated (greedy) or rejected without touching
// the contents (non-greedy).
//
// Cursor decodes typed values out of a Buffer, front to back or back to front.
