package core

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	cbor "github.com/fxamacker/cbor/v2"
)

// AddressLength is the byte width of an Address.
const AddressLength = 20

// Address identifies a ledger location: an account, or a record namespaced
// under one via Derive.
type Address [AddressLength]byte

// ParseAddress decodes a hex address with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address hex: %w", err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress for constants; it panics on bad input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies b into an Address. b must be AddressLength long.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Derive returns a new address namespaced under a by salt. The layout is
// part of the storage contract: the first 20 bytes of HMAC-SHA1 keyed by
// the UTF-8 salt over the parent address bytes.
func (a Address) Derive(salt string) Address {
	mac := hmac.New(sha1.New, []byte(salt))
	mac.Write(a[:])
	var out Address
	copy(out[:], mac.Sum(nil))
	return out
}

// Hex returns the 0x-prefixed lowercase hex form.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Less orders addresses bytewise.
func (a Address) Less(b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalCBOR encodes the address as a 20-byte byte string.
func (a Address) MarshalCBOR() ([]byte, error) { return cbor.Marshal(a[:]) }

func (a *Address) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	parsed, err := AddressFromBytes(b)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
