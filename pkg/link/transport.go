package link

import "io"

// Transport is the byte channel a Manager runs on.
// Read must not block: it returns what is already available, possibly 0
// bytes. Write may accept fewer bytes than given, the rest is retried.
type Transport interface {
	io.Writer
	// Available returns the number of bytes which can be read right away.
	Available() int
	// Read copies at most len(p) available bytes into p.
	Read(p []byte) (int, error)
}
