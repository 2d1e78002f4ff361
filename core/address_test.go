package core

import (
	"encoding/json"
	"testing"

	cbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x00000000000000000000000000000000000000Ab")
	require.NoError(t, err)
	require.Equal(t, byte(0xab), a[19])
	require.Equal(t, "0x00000000000000000000000000000000000000ab", a.Hex())

	b, err := ParseAddress("00000000000000000000000000000000000000ab")
	require.NoError(t, err)
	require.Equal(t, a, b)

	_, err = ParseAddress("0x1234")
	require.Error(t, err)
	_, err = ParseAddress("zz")
	require.Error(t, err)
}

func TestDeriveIsStableAndSaltSensitive(t *testing.T) {
	base := MustParseAddress("0x1111111111111111111111111111111111111111")

	r0 := base.Derive("monster-collection-0")
	require.Equal(t, r0, base.Derive("monster-collection-0"))
	require.NotEqual(t, r0, base.Derive("monster-collection-1"))
	require.NotEqual(t, r0, base)

	other := MustParseAddress("0x2222222222222222222222222222222222222222")
	require.NotEqual(t, r0, other.Derive("monster-collection-0"))
}

func TestAddressEncodings(t *testing.T) {
	a := MustParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")

	data, err := json.Marshal(map[string]Address{"who": a})
	require.NoError(t, err)
	require.JSONEq(t, `{"who":"0x0102030405060708090a0b0c0d0e0f1011121314"}`, string(data))

	enc, err := cbor.Marshal(a)
	require.NoError(t, err)
	// major type 2 (byte string), length 20
	require.Equal(t, byte(0x54), enc[0])
	require.Len(t, enc, 21)

	var back Address
	require.NoError(t, cbor.Unmarshal(enc, &back))
	require.Equal(t, a, back)
}

func TestAddressLess(t *testing.T) {
	lo := MustParseAddress("0x0000000000000000000000000000000000000001")
	hi := MustParseAddress("0x0000000000000000000000000000000000000002")
	require.True(t, lo.Less(hi))
	require.False(t, hi.Less(lo))
	require.False(t, lo.Less(lo))
}

func TestCurrencyUnits(t *testing.T) {
	gold := Currency{Ticker: "NCG", DecimalPlaces: 2}
	require.Equal(t, uint64(50000), gold.Units(500).Uint64())
	require.True(t, Currency{Ticker: "X"}.Units(7).Eq(Currency{Ticker: "Y"}.Units(7)))

	minter := MustParseAddress("0x0000000000000000000000000000000000000009")
	gold.Minters = []Address{minter}
	require.True(t, gold.IsMinter(minter))
	require.False(t, gold.IsMinter(Address{}))
}
