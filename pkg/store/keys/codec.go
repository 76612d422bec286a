package keys

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrMalformedKey = errors.New("malformed key")

const (
	U32Len = 4
	U64Len = 8
)

// EncodeU32 returns n as 4 big-endian bytes.
func EncodeU32(n uint32) []byte {
	b := make([]byte, U32Len)
	binary.BigEndian.PutUint32(b, n)
	return b
}

// DecodeU32 reads exactly 4 big-endian bytes.
func DecodeU32(b []byte) (uint32, error) {
	if len(b) != U32Len {
		return 0, fmt.Errorf("%w: want %d bytes for u32, got %d", ErrMalformedKey, U32Len, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// EncodeU64 returns n as 8 big-endian bytes.
func EncodeU64(n uint64) []byte {
	b := make([]byte, U64Len)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// DecodeU64 reads exactly 8 big-endian bytes.
func DecodeU64(b []byte) (uint64, error) {
	if len(b) != U64Len {
		return 0, fmt.Errorf("%w: want %d bytes for u64, got %d", ErrMalformedKey, U64Len, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodeI64 flips the sign bit so byte order matches numeric order for
// negative values too.
func EncodeI64(n int64) []byte {
	return EncodeU64(uint64(n) ^ (1 << 63))
}

func DecodeI64(b []byte) (int64, error) {
	u, err := DecodeU64(b)
	if err != nil {
		return 0, err
	}
	return int64(u ^ (1 << 63)), nil
}

// Concat joins key parts without separators.
func Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
