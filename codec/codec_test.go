package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type params struct {
	Level int    `cbor:"level"`
	Round int64  `cbor:"round"`
	Note  string `cbor:"note,omitempty"`
}

func TestMarshalIsOrderIndependent(t *testing.T) {
	a := map[string]int{}
	a["zeta"] = 1
	a["alpha"] = 2
	a["mid"] = 3

	b := map[string]int{}
	b["mid"] = 3
	b["alpha"] = 2
	b["zeta"] = 1

	ea, err := Marshal(a)
	require.NoError(t, err)
	eb, err := Marshal(b)
	require.NoError(t, err)
	require.Equal(t, ea, eb)

	// A struct and the equivalent map encode identically.
	es, err := Marshal(params{Level: 2, Round: 7})
	require.NoError(t, err)
	em, err := Marshal(map[string]int64{"round": 7, "level": 2})
	require.NoError(t, err)
	require.Equal(t, em, es)
}

func TestUnmarshalStrictMissingField(t *testing.T) {
	data, err := Marshal(map[string]int{"level": 3})
	require.NoError(t, err)

	var p params
	err = UnmarshalStrict(data, &p, "level", "round")
	require.True(t, errors.Is(err, ErrStructural), "got %v", err)

	require.NoError(t, UnmarshalStrict(data, &p, "level"))
	require.Equal(t, 3, p.Level)
}

func TestUnmarshalRejectsUnknownField(t *testing.T) {
	data, err := Marshal(map[string]int{"level": 1, "round": 0, "bogus": 9})
	require.NoError(t, err)

	var p params
	err = Unmarshal(data, &p)
	require.ErrorIs(t, err, ErrStructural)
}

func TestUnmarshalRejectsNonMap(t *testing.T) {
	data, err := Marshal([]int{1, 2})
	require.NoError(t, err)
	require.ErrorIs(t, RequireFields(data, "level"), ErrStructural)
	require.ErrorIs(t, RequireFields([]byte{0xff, 0x00}), ErrStructural)
}

func TestNull(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	require.True(t, IsNull(data))
	require.False(t, IsNull([]byte{0x01}))
}
