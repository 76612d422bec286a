package records

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion prefixes every stored record. Bump it when a record layout
// changes incompatibly; old bytes then fail to decode instead of misreading.
const FormatVersion byte = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor dec mode: %v", err))
	}
}

// Encode writes the version byte followed by deterministic CBOR.
func Encode[T any](v *T) ([]byte, error) {
	body, err := encMode.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, FormatVersion)
	return append(out, body...), nil
}

// Decode checks the version byte and decodes the rest into out. Unknown
// fields are rejected.
func Decode[T any](b []byte, out *T) error {
	if len(b) == 0 {
		return fmt.Errorf("empty record")
	}
	if b[0] != FormatVersion {
		return fmt.Errorf("format version %d, want %d", b[0], FormatVersion)
	}
	return decMode.Unmarshal(b[1:], out)
}
