package vm

import (
	"slices"

	"github.com/tolelom/stakeledger/codec"
	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/state"
)

// MarkChanged is the placeholder value rehearsal writes in place of a real
// record.
var MarkChanged = codec.Null

// Footprint lists the ledger locations an action writes, computed from its
// parameters and the signer alone. Both the rehearsal and the real path of
// an action are built from the same footprint.
type Footprint struct {
	States   []core.Address
	Balances []core.Address
}

// Rehearse marks every location of f as touched on top of d.
func (f Footprint) Rehearse(d *state.Delta, c core.Currency) *state.Delta {
	for _, a := range f.States {
		d = d.SetState(a, MarkChanged)
	}
	if len(f.Balances) > 0 {
		d = d.MarkBalanceChanged(c, f.Balances...)
	}
	return d
}

// Addresses returns the sorted, de-duplicated union of f's locations.
func (f Footprint) Addresses() []core.Address {
	out := append(slices.Clone(f.States), f.Balances...)
	state.SortAddresses(out)
	return slices.Compact(out)
}

// Prediction is the rehearsal-derived write set of a transaction.
type Prediction struct {
	TxID      string         `json:"tx_id"`
	Addresses []core.Address `json:"addresses"`
}

// Contains reports whether addr is in the predicted write set.
func (p Prediction) Contains(addr core.Address) bool {
	_, found := slices.BinarySearchFunc(p.Addresses, addr, compareAddress)
	return found
}

// Conflicts reports whether p and o write any common address.
func (p Prediction) Conflicts(o Prediction) bool {
	i, j := 0, 0
	for i < len(p.Addresses) && j < len(o.Addresses) {
		switch c := compareAddress(p.Addresses[i], o.Addresses[j]); {
		case c == 0:
			return true
		case c < 0:
			i++
		default:
			j++
		}
	}
	return false
}

func compareAddress(a, b core.Address) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}
