// Package codec provides the canonical, field-keyed encoding used for ledger
// state values, action parameters and blocks.
//
// Encoding is deterministic CBOR: map keys are sorted canonically, so the
// same logical value always produces the same bytes regardless of how it
// was built. Decoding is strict: duplicate keys and unknown struct fields
// are rejected, and UnmarshalStrict additionally requires a set of keys to
// be present.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	cbor "github.com/fxamacker/cbor/v2"
)

// ErrStructural is returned for malformed encodings: invalid CBOR, unknown
// fields, duplicate keys or missing required fields.
var ErrStructural = errors.New("structural decode error")

// Null is the encoding of an absent/placeholder value.
var Null = []byte{0xf6}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build dec mode: %v", err))
	}
}

// Marshal returns the canonical encoding of v.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v. Any failure wraps ErrStructural.
func Unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrStructural, err)
	}
	return nil
}

// UnmarshalStrict decodes data into v after checking that data is a map
// containing every key in required.
func UnmarshalStrict(data []byte, v any, required ...string) error {
	if err := RequireFields(data, required...); err != nil {
		return err
	}
	return Unmarshal(data, v)
}

// RequireFields reports ErrStructural unless data is a map holding all of
// the given keys.
func RequireFields(data []byte, required ...string) error {
	var fields map[string]cbor.RawMessage
	if err := decMode.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrStructural, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: expected a map", ErrStructural)
	}
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("%w: missing field %q", ErrStructural, name)
		}
	}
	return nil
}

// IsNull reports whether data is the encoded placeholder value.
func IsNull(data []byte) bool {
	return bytes.Equal(data, Null)
}
