package core

import (
	"slices"

	"github.com/holiman/uint256"
)

// Currency describes a fungible asset. Balances are keyed by Ticker.
type Currency struct {
	Ticker        string    `cbor:"ticker" json:"ticker"`
	DecimalPlaces uint8     `cbor:"decimal_places" json:"decimal_places"`
	Minters       []Address `cbor:"minters,omitempty" json:"minters,omitempty"`
}

// MaxDecimalPlaces bounds Currency.DecimalPlaces so that any uint64 count
// of whole units fits a uint256 balance.
const MaxDecimalPlaces = 18

// Units converts n whole units into minor units. DecimalPlaces must not
// exceed MaxDecimalPlaces.
func (c Currency) Units(n uint64) *uint256.Int {
	v := uint256.NewInt(n)
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(c.DecimalPlaces)))
	return v.Mul(v, scale)
}

// IsMinter reports whether addr may issue new units.
func (c Currency) IsMinter(addr Address) bool {
	return slices.Contains(c.Minters, addr)
}

func (c Currency) String() string { return c.Ticker }
