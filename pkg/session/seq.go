package session

import "time"

// Seq is the sequence number correlating a request and its reply.
type Seq byte

// MaxSeq is the largest valid sequence number.
const MaxSeq Seq = 0xEF

// NewSeq creates a random sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n > byte(MaxSeq) {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	return s > 0 && s <= MaxSeq
}
