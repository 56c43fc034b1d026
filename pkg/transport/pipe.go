package transport

// PipeEnd is one side of an in-memory Pipe.
type PipeEnd struct {
	in  *Queue
	out *Queue
}

// NewPipe creates two connected ends, each direction buffering size bytes.
func NewPipe(size int) (*PipeEnd, *PipeEnd) {
	a, b := NewQueue(size), NewQueue(size)
	return &PipeEnd{in: a, out: b}, &PipeEnd{in: b, out: a}
}

// Available implements link.Transport.
func (p *PipeEnd) Available() int {
	return p.in.Available()
}

// Read implements link.Transport.
func (p *PipeEnd) Read(b []byte) (int, error) {
	return p.in.Read(b)
}

// Write implements link.Transport. It accepts what fits in the peer's queue.
func (p *PipeEnd) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	n := p.out.Offer(b)
	if n == 0 {
		p.out.lock.Lock()
		closed := p.out.closed
		p.out.lock.Unlock()
		if closed {
			return 0, ErrClosed
		}
	}
	return n, nil
}

// Close closes both directions.
func (p *PipeEnd) Close() error {
	p.in.Close()
	return p.out.Close()
}
