package keys

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTag = errors.New("invalid tag")

// Pair builds a#b from two ids.
func Pair(a, b uint32) []byte {
	return Concat(EncodeU32(a), EncodeU32(b))
}

// Triple builds a#b#c from three ids.
func Triple(a, b, c uint32) []byte {
	return Concat(EncodeU32(a), EncodeU32(b), EncodeU32(c))
}

// Tag builds tag#id. The separator keeps "cat" and "category" apart.
func Tag(tag string, id uint32) ([]byte, error) {
	pfx, err := TagPrefix(tag)
	if err != nil {
		return nil, err
	}
	return Concat(pfx, EncodeU32(id)), nil
}

// TagPrefix is the scan prefix covering every id indexed under tag.
func TagPrefix(tag string) ([]byte, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTag)
	}
	if strings.IndexByte(tag, TagSep) >= 0 {
		return nil, fmt.Errorf("%w: %q contains %q", ErrInvalidTag, tag, string(TagSep))
	}
	out := make([]byte, 0, len(tag)+1)
	out = append(out, tag...)
	return append(out, TagSep), nil
}

// Timeline builds ts#owner#id.
func Timeline(ts uint64, owner, id uint32) []byte {
	return Concat(EncodeU64(ts), EncodeU32(owner), EncodeU32(id))
}
