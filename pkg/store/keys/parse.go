package keys

import (
	"encoding/binary"
	"fmt"
)

type PairParts struct {
	Owner uint32
	ID    uint32
}

type TripleParts struct {
	First  uint32
	Second uint32
	Third  uint32
}

type TagParts struct {
	Tag string
	ID  uint32
}

type TimelineParts struct {
	Timestamp uint64
	Owner     uint32
	ID        uint32
}

func ParsePair(k []byte) (*PairParts, error) {
	if len(k) != PairLen {
		return nil, fmt.Errorf("%w: pair key has %d bytes", ErrMalformedKey, len(k))
	}
	return &PairParts{
		Owner: binary.BigEndian.Uint32(k[:4]),
		ID:    binary.BigEndian.Uint32(k[4:]),
	}, nil
}

func ParseTriple(k []byte) (*TripleParts, error) {
	if len(k) != TripleLen {
		return nil, fmt.Errorf("%w: triple key has %d bytes", ErrMalformedKey, len(k))
	}
	return &TripleParts{
		First:  binary.BigEndian.Uint32(k[:4]),
		Second: binary.BigEndian.Uint32(k[4:8]),
		Third:  binary.BigEndian.Uint32(k[8:]),
	}, nil
}

// ParseTag splits tag#id, requiring the separator right before the id.
func ParseTag(k []byte) (*TagParts, error) {
	if len(k) < minTagKeyLen {
		return nil, fmt.Errorf("%w: tag key has %d bytes", ErrMalformedKey, len(k))
	}
	sep := len(k) - U32Len - 1
	if k[sep] != TagSep {
		return nil, fmt.Errorf("%w: tag key missing separator", ErrMalformedKey)
	}
	return &TagParts{
		Tag: string(k[:sep]),
		ID:  binary.BigEndian.Uint32(k[sep+1:]),
	}, nil
}

func ParseTimeline(k []byte) (*TimelineParts, error) {
	if len(k) != TimelineLen {
		return nil, fmt.Errorf("%w: timeline key has %d bytes", ErrMalformedKey, len(k))
	}
	return &TimelineParts{
		Timestamp: binary.BigEndian.Uint64(k[:8]),
		Owner:     binary.BigEndian.Uint32(k[8:12]),
		ID:        binary.BigEndian.Uint32(k[12:]),
	}, nil
}

// TrailingID returns the id that follows a prefix of prefixLen bytes. The
// remainder must be exactly one u32.
func TrailingID(k []byte, prefixLen int) (uint32, error) {
	if prefixLen < 0 || len(k)-prefixLen != U32Len {
		return 0, fmt.Errorf("%w: %d bytes after %d byte prefix", ErrMalformedKey, len(k)-prefixLen, prefixLen)
	}
	return binary.BigEndian.Uint32(k[prefixLen:]), nil
}
