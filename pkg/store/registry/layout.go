package registry

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode/utf8"

	"forumdb/pkg/models"
	"forumdb/pkg/store/keys"
	"forumdb/pkg/store/records"
)

type KeyFormat func(key []byte) (string, error)

type ValueFormat func(value []byte) (any, error)

// Layout renders a namespace whose key and value follow fixed formats.
type Layout struct {
	Key   KeyFormat
	Value ValueFormat
}

func (l Layout) Render(key, value []byte) (Row, error) {
	k, err := l.Key(key)
	if err != nil {
		return Row{}, err
	}
	v, err := l.Value(value)
	if err != nil {
		return Row{}, fmt.Errorf("value of %s: %w", k, err)
	}
	return Row{Key: k, Value: v}, nil
}

// Record decodes values as T; keys use the given format.
func Record[T any](key KeyFormat) Renderer {
	return RendererFunc(func(k, v []byte) (Row, error) {
		ks, err := key(k)
		if err != nil {
			return Row{}, err
		}
		var out T
		if err := records.Decode(v, &out); err != nil {
			return Row{}, fmt.Errorf("decode %s: %w", ks, err)
		}
		return Row{Key: ks, Value: out}, nil
	})
}

func U32Key(k []byte) (string, error) {
	n, err := keys.DecodeU32(k)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(n), 10), nil
}

func PairKey(k []byte) (string, error) {
	p, err := keys.ParsePair(k)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d#%d", p.Owner, p.ID), nil
}

func TripleKey(k []byte) (string, error) {
	p, err := keys.ParseTriple(k)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d#%d#%d", p.First, p.Second, p.Third), nil
}

func TagKey(k []byte) (string, error) {
	p, err := keys.ParseTag(k)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s#%d", p.Tag, p.ID), nil
}

func TimelineKey(k []byte) (string, error) {
	p, err := keys.ParseTimeline(k)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d#%d#%d", p.Timestamp, p.Owner, p.ID), nil
}

// StringKey shows UTF-8 keys verbatim and anything else as hex.
func StringKey(k []byte) (string, error) {
	if utf8.Valid(k) {
		return string(k), nil
	}
	return hex.EncodeToString(k), nil
}

// ExpiringKey checks the hex-expiry layout before showing the key.
func ExpiringKey(k []byte) (string, error) {
	if _, err := keys.ParseExpiring(k); err != nil {
		return "", err
	}
	return string(k), nil
}

func EmptyValue(v []byte) (any, error) {
	if len(v) != 0 {
		return nil, fmt.Errorf("expected empty value, got %d bytes", len(v))
	}
	return "", nil
}

func U32Value(v []byte) (any, error) { return keys.DecodeU32(v) }

func U64Value(v []byte) (any, error) { return keys.DecodeU64(v) }

func HexValue(v []byte) (any, error) { return hex.EncodeToString(v), nil }

func StringValue(v []byte) (any, error) {
	if !utf8.Valid(v) {
		return nil, fmt.Errorf("value is not utf-8")
	}
	return string(v), nil
}

// VisibilityValue reads the single inn-type byte stored with post index
// entries.
func VisibilityValue(v []byte) (any, error) {
	if len(v) != 1 {
		return nil, fmt.Errorf("visibility has %d bytes", len(v))
	}
	t, err := models.InnTypeFromByte(v[0])
	if err != nil {
		return nil, err
	}
	return t.String(), nil
}

// InnVisibilityValue reads iid(4) + inn-type byte.
func InnVisibilityValue(v []byte) (any, error) {
	if len(v) != keys.U32Len+1 {
		return nil, fmt.Errorf("inn visibility has %d bytes", len(v))
	}
	iid, err := keys.DecodeU32(v[:keys.U32Len])
	if err != nil {
		return nil, err
	}
	vis, err := VisibilityValue(v[keys.U32Len:])
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%d#%s", iid, vis), nil
}

// InnRoleValue reads the role byte of an inn_users entry.
func InnRoleValue(v []byte) (any, error) {
	if len(v) != 1 {
		return nil, fmt.Errorf("inn role has %d bytes", len(v))
	}
	r, err := models.InnRoleFromByte(v[0])
	if err != nil {
		return nil, err
	}
	return r.String(), nil
}
