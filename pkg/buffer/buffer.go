package buffer

import "math"

// Buffer is a fixed-capacity byte container.
type Buffer struct {
	storage []byte
	used    int
}

// New creates a Buffer over caller-owned storage. The capacity is len(storage)
// and the buffer starts empty. The storage must outlive the Buffer.
func New(storage []byte) *Buffer {
	return &Buffer{storage: storage}
}

// NewSized creates a Buffer owning n bytes of storage.
func NewSized(n int) *Buffer {
	return New(make([]byte, n))
}

// Wrap creates a Buffer over storage whose first used bytes are valid content.
func Wrap(storage []byte, used int) *Buffer {
	if used < 0 || used > len(storage) {
		used = len(storage)
	}
	return &Buffer{storage: storage, used: used}
}

// Len returns the number of used bytes.
func (b *Buffer) Len() int {
	return b.used
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return len(b.storage)
}

// Free returns the number of bytes which can still be written.
func (b *Buffer) Free() int {
	return len(b.storage) - b.used
}

// Bytes returns the used content. The slice aliases the storage and is only
// valid until the next mutation.
func (b *Buffer) Bytes() []byte {
	return b.storage[:b.used]
}

// At returns the byte at index i of the used content.
func (b *Buffer) At(i int) (byte, bool) {
	if i < 0 || i >= b.used {
		return 0, false
	}
	return b.storage[i], true
}

// Tail returns the free region for writing in place, see Commit.
func (b *Buffer) Tail() []byte {
	return b.storage[b.used:]
}

// Commit marks n bytes written into Tail as used.
func (b *Buffer) Commit(n int) error {
	if n < 0 || n > b.Free() {
		return ErrCapacityExceeded
	}
	b.used += n
	return nil
}

// Append copies p to the end. When p doesn't fit, a greedy append stores
// the prefix which fits and returns ErrTruncated, while a non-greedy append
// stores nothing and returns ErrCapacityExceeded.
func (b *Buffer) Append(p []byte, greedy bool) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > b.Free() {
		if !greedy {
			return 0, ErrCapacityExceeded
		}
		n := copy(b.storage[b.used:], p)
		b.used += n
		return n, ErrTruncated
	}
	n := copy(b.storage[b.used:], p)
	b.used += n
	return n, nil
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(v byte) error {
	if b.used >= len(b.storage) {
		return ErrCapacityExceeded
	}
	b.storage[b.used] = v
	b.used++
	return nil
}

// Insert copies p into the content at index, shifting the tail right.
func (b *Buffer) Insert(p []byte, index int) error {
	if index < 0 || index > b.used {
		return ErrInvalidIndex
	}
	if len(p) == 0 {
		return nil
	}
	if len(p) > b.Free() {
		return ErrCapacityExceeded
	}
	copy(b.storage[index+len(p):], b.storage[index:b.used])
	copy(b.storage[index:], p)
	b.used += len(p)
	return nil
}

// Prepend inserts p at the front.
func (b *Buffer) Prepend(p []byte) error {
	return b.Insert(p, 0)
}

// Discard drops the first n bytes of content and returns how many were
// dropped.
func (b *Buffer) Discard(n int) int {
	if n <= 0 {
		return 0
	}
	if n >= b.used {
		n = b.used
		b.used = 0
		return n
	}
	copy(b.storage, b.storage[n:b.used])
	b.used -= n
	return n
}

// Truncate keeps only the first n bytes of content.
func (b *Buffer) Truncate(n int) {
	if n >= 0 && n < b.used {
		b.used = n
	}
}

// Clear empties the buffer, optionally zeroing the whole storage.
func (b *Buffer) Clear(zero bool) {
	if zero {
		for i := range b.storage {
			b.storage[i] = 0
		}
	}
	b.used = 0
}

// SetAll fills the whole storage with v and marks it used.
func (b *Buffer) SetAll(v byte) {
	for i := range b.storage {
		b.storage[i] = v
	}
	b.used = len(b.storage)
}

// AppendUint8 appends v.
func (b *Buffer) AppendUint8(v uint8, greedy bool) error {
	_, err := b.Append([]byte{v}, greedy)
	return err
}

// AppendUint16 appends v in the given byte order.
func (b *Buffer) AppendUint16(v uint16, order Endian, greedy bool) error {
	var tmp [2]byte
	order.ByteOrder().PutUint16(tmp[:], v)
	_, err := b.Append(tmp[:], greedy)
	return err
}

// AppendUint32 appends v in the given byte order.
func (b *Buffer) AppendUint32(v uint32, order Endian, greedy bool) error {
	var tmp [4]byte
	order.ByteOrder().PutUint32(tmp[:], v)
	_, err := b.Append(tmp[:], greedy)
	return err
}

// AppendUint64 appends v in the given byte order.
func (b *Buffer) AppendUint64(v uint64, order Endian, greedy bool) error {
	var tmp [8]byte
	order.ByteOrder().PutUint64(tmp[:], v)
	_, err := b.Append(tmp[:], greedy)
	return err
}

// AppendInt8 appends v.
func (b *Buffer) AppendInt8(v int8, greedy bool) error {
	return b.AppendUint8(uint8(v), greedy)
}

// AppendInt16 appends v in the given byte order.
func (b *Buffer) AppendInt16(v int16, order Endian, greedy bool) error {
	return b.AppendUint16(uint16(v), order, greedy)
}

// AppendInt32 appends v in the given byte order.
func (b *Buffer) AppendInt32(v int32, order Endian, greedy bool) error {
	return b.AppendUint32(uint32(v), order, greedy)
}

// AppendInt64 appends v in the given byte order.
func (b *Buffer) AppendInt64(v int64, order Endian, greedy bool) error {
	return b.AppendUint64(uint64(v), order, greedy)
}

// AppendFloat32 appends the IEEE 754 bits of v in the given byte order.
func (b *Buffer) AppendFloat32(v float32, order Endian, greedy bool) error {
	return b.AppendUint32(math.Float32bits(v), order, greedy)
}

// AppendFloat64 appends the IEEE 754 bits of v in the given byte order.
func (b *Buffer) AppendFloat64(v float64, order Endian, greedy bool) error {
	return b.AppendUint64(math.Float64bits(v), order, greedy)
}

// AppendBool appends v as a single 0/1 byte.
func (b *Buffer) AppendBool(v bool, greedy bool) error {
	if v {
		return b.AppendUint8(1, greedy)
	}
	return b.AppendUint8(0, greedy)
}
