package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	testCases := []struct {
		name    string
		cap     int
		initial []byte
		input   []byte
		greedy  bool
		expect  []byte
		n       int
		err     error
	}{
		{"empty input", 4, []byte{1}, nil, false, []byte{1}, 0, nil},
		{"fits", 4, []byte{1}, []byte{2, 3}, false, []byte{1, 2, 3}, 2, nil},
		{"exact fit", 3, []byte{1}, []byte{2, 3}, false, []byte{1, 2, 3}, 2, nil},
		{"non-greedy overflow", 3, []byte{1, 2}, []byte{3, 4}, false, []byte{1, 2}, 0, ErrCapacityExceeded},
		{"greedy overflow", 3, []byte{1, 2}, []byte{3, 4}, true, []byte{1, 2, 3}, 1, ErrTruncated},
		{"greedy full", 2, []byte{1, 2}, []byte{3}, true, []byte{1, 2}, 0, ErrTruncated},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewSized(tc.cap)
			_, err := b.Append(tc.initial, false)
			require.NoError(t, err)
			n, err := b.Append(tc.input, tc.greedy)
			require.Equalf(t, tc.err, err, "%s error mismatch", tc.name)
			require.Equalf(t, tc.n, n, "%s count mismatch", tc.name)
			require.Equalf(t, tc.expect, b.Bytes(), "%s content mismatch", tc.name)
		})
	}
}

func TestTruncatedIsCapacityExceeded(t *testing.T) {
	require.True(t, errors.Is(ErrTruncated, ErrCapacityExceeded))
	require.False(t, errors.Is(ErrCapacityExceeded, ErrTruncated))
}

func TestBorrowedStorage(t *testing.T) {
	storage := make([]byte, 4)
	b := New(storage)
	require.Equal(t, 4, b.Cap())
	require.Equal(t, 0, b.Len())
	require.NoError(t, b.AppendUint8(9, false))
	require.Equal(t, byte(9), storage[0])
}

func TestInsert(t *testing.T) {
	testCases := []struct {
		name   string
		cap    int
		index  int
		input  []byte
		expect []byte
		err    error
	}{
		{"front", 6, 0, []byte{9, 8}, []byte{9, 8, 1, 2, 3}, nil},
		{"middle", 6, 1, []byte{9}, []byte{1, 9, 2, 3}, nil},
		{"end", 6, 3, []byte{9}, []byte{1, 2, 3, 9}, nil},
		{"overlapping shift", 8, 1, []byte{9, 9, 9, 9}, []byte{1, 9, 9, 9, 9, 2, 3}, nil},
		{"bad index", 6, 4, []byte{9}, []byte{1, 2, 3}, ErrInvalidIndex},
		{"negative index", 6, -1, []byte{9}, []byte{1, 2, 3}, ErrInvalidIndex},
		{"overflow", 4, 0, []byte{9, 8}, []byte{1, 2, 3}, ErrCapacityExceeded},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewSized(tc.cap)
			_, err := b.Append([]byte{1, 2, 3}, false)
			require.NoError(t, err)
			err = b.Insert(tc.input, tc.index)
			require.Equalf(t, tc.err, err, "%s error mismatch", tc.name)
			require.Equalf(t, tc.expect, b.Bytes(), "%s content mismatch", tc.name)
		})
	}
}

func TestPrepend(t *testing.T) {
	b := NewSized(4)
	require.NoError(t, b.AppendByte(3))
	require.NoError(t, b.Prepend([]byte{1, 2}))
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
	require.Equal(t, ErrCapacityExceeded, b.Prepend([]byte{7, 7}))
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
}

func TestClearAndSetAll(t *testing.T) {
	storage := []byte{1, 2, 3}
	b := Wrap(storage, 2)
	require.Equal(t, 2, b.Len())
	b.Clear(false)
	require.Equal(t, 0, b.Len())
	require.Equal(t, []byte{1, 2, 3}, storage)
	b.Clear(true)
	require.Equal(t, []byte{0, 0, 0}, storage)

	b.SetAll(0xaa)
	require.Equal(t, 3, b.Len())
	require.Equal(t, []byte{0xaa, 0xaa, 0xaa}, b.Bytes())
	require.Equal(t, 0, b.Free())
}

func TestDiscardTruncate(t *testing.T) {
	b := NewSized(8)
	_, err := b.Append([]byte{1, 2, 3, 4, 5}, false)
	require.NoError(t, err)
	require.Equal(t, 2, b.Discard(2))
	require.Equal(t, []byte{3, 4, 5}, b.Bytes())
	b.Truncate(2)
	require.Equal(t, []byte{3, 4}, b.Bytes())
	b.Truncate(5)
	require.Equal(t, []byte{3, 4}, b.Bytes())
	require.Equal(t, 2, b.Discard(10))
	require.Equal(t, 0, b.Len())
	require.Equal(t, 0, b.Discard(1))
}

func TestTailCommit(t *testing.T) {
	b := NewSized(4)
	require.NoError(t, b.AppendByte(1))
	n := copy(b.Tail(), []byte{2, 3})
	require.NoError(t, b.Commit(n))
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
	require.Equal(t, ErrCapacityExceeded, b.Commit(2))
	require.Equal(t, 3, b.Len())
}

func TestTypedAppend(t *testing.T) {
	testCases := []struct {
		name   string
		append func(*Buffer, Endian) error
		big    []byte
		little []byte
	}{
		{"uint8", func(b *Buffer, e Endian) error { return b.AppendUint8(0x7f, false) }, []byte{0x7f}, []byte{0x7f}},
		{"uint16", func(b *Buffer, e Endian) error { return b.AppendUint16(0x0102, e, false) }, []byte{1, 2}, []byte{2, 1}},
		{"uint32", func(b *Buffer, e Endian) error { return b.AppendUint32(0x01020304, e, false) }, []byte{1, 2, 3, 4}, []byte{4, 3, 2, 1}},
		{"uint64", func(b *Buffer, e Endian) error { return b.AppendUint64(0x0102030405060708, e, false) },
			[]byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
		{"int8", func(b *Buffer, e Endian) error { return b.AppendInt8(-1, false) }, []byte{0xff}, []byte{0xff}},
		{"int16", func(b *Buffer, e Endian) error { return b.AppendInt16(-2, e, false) }, []byte{0xff, 0xfe}, []byte{0xfe, 0xff}},
		{"int32", func(b *Buffer, e Endian) error { return b.AppendInt32(-2, e, false) },
			[]byte{0xff, 0xff, 0xff, 0xfe}, []byte{0xfe, 0xff, 0xff, 0xff}},
		{"int64", func(b *Buffer, e Endian) error { return b.AppendInt64(1, e, false) },
			[]byte{0, 0, 0, 0, 0, 0, 0, 1}, []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"float32", func(b *Buffer, e Endian) error { return b.AppendFloat32(1, e, false) },
			[]byte{0x3f, 0x80, 0, 0}, []byte{0, 0, 0x80, 0x3f}},
		{"float64", func(b *Buffer, e Endian) error { return b.AppendFloat64(2, e, false) },
			[]byte{0x40, 0, 0, 0, 0, 0, 0, 0}, []byte{0, 0, 0, 0, 0, 0, 0, 0x40}},
		{"bool", func(b *Buffer, e Endian) error { return b.AppendBool(true, false) }, []byte{1}, []byte{1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewSized(8)
			require.NoError(t, tc.append(b, BigEndian))
			require.Equalf(t, tc.big, b.Bytes(), "%s big endian mismatch", tc.name)
			b.Clear(false)
			require.NoError(t, tc.append(b, LittleEndian))
			require.Equalf(t, tc.little, b.Bytes(), "%s little endian mismatch", tc.name)
		})
	}
}

func TestTypedAppendOverflow(t *testing.T) {
	b := NewSized(3)
	require.Equal(t, ErrCapacityExceeded, b.AppendUint32(0x01020304, BigEndian, false))
	require.Equal(t, 0, b.Len())
	require.Equal(t, ErrTruncated, b.AppendUint32(0x01020304, BigEndian, true))
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
}
