// Package state implements the layered, immutable ledger view that actions
// read from and write to.
//
// A Delta is a single write layer over a base core.View. Every write returns
// a new Delta; the receiver and the base are never mutated. Reads prefer the
// layer's own writes and fall through to the base for everything else.
package state

import (
	"fmt"
	"slices"

	"github.com/holiman/uint256"

	"github.com/tolelom/stakeledger/core"
)

type balanceKey struct {
	addr   core.Address
	ticker string
}

// Delta is an immutable write layer over a base view.
type Delta struct {
	base     core.View
	states   map[core.Address][]byte
	balances map[balanceKey]*uint256.Int
}

// New returns an empty layer over base.
func New(base core.View) *Delta {
	return &Delta{
		base:     base,
		states:   map[core.Address][]byte{},
		balances: map[balanceKey]*uint256.Int{},
	}
}

// Base returns the view this layer falls through to.
func (d *Delta) Base() core.View { return d.base }

func (d *Delta) clone() *Delta {
	next := &Delta{
		base:     d.base,
		states:   make(map[core.Address][]byte, len(d.states)+1),
		balances: make(map[balanceKey]*uint256.Int, len(d.balances)+2),
	}
	for k, v := range d.states {
		next.states[k] = v
	}
	for k, v := range d.balances {
		next.balances[k] = v
	}
	return next
}

// GetState returns the newest value stored at addr.
func (d *Delta) GetState(addr core.Address) ([]byte, bool, error) {
	if v, ok := d.states[addr]; ok {
		return slices.Clone(v), true, nil
	}
	return d.base.GetState(addr)
}

// SetState returns a new view with value stored at addr.
func (d *Delta) SetState(addr core.Address, value []byte) *Delta {
	next := d.clone()
	next.states[addr] = slices.Clone(value)
	return next
}

// GetBalance returns the balance of addr in c. Unknown pairs are zero.
func (d *Delta) GetBalance(addr core.Address, c core.Currency) (*uint256.Int, error) {
	if v, ok := d.balances[balanceKey{addr, c.Ticker}]; ok {
		return v.Clone(), nil
	}
	return d.base.GetBalance(addr, c)
}

// TransferAsset moves amount of c from sender to recipient. Both pairs are
// recorded as touched even when amount is zero.
func (d *Delta) TransferAsset(sender, recipient core.Address, c core.Currency, amount *uint256.Int) (*Delta, error) {
	from, err := d.GetBalance(sender, c)
	if err != nil {
		return nil, err
	}
	if from.Lt(amount) {
		return nil, fmt.Errorf("%w: %s holds %s %s, needs %s", core.ErrInsufficientBalance,
			sender, from.Dec(), c.Ticker, amount.Dec())
	}
	next := d.clone()
	if sender == recipient {
		next.balances[balanceKey{sender, c.Ticker}] = from
		return next, nil
	}
	to, err := d.GetBalance(recipient, c)
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(to, amount)
	if overflow {
		return nil, fmt.Errorf("%w: balance overflow for %s", core.ErrInvalidAmount, recipient)
	}
	next.balances[balanceKey{sender, c.Ticker}] = new(uint256.Int).Sub(from, amount)
	next.balances[balanceKey{recipient, c.Ticker}] = sum
	return next, nil
}

// MintAsset credits recipient with newly issued units of c. Minter
// restrictions are enforced by the caller.
func (d *Delta) MintAsset(recipient core.Address, c core.Currency, amount *uint256.Int) (*Delta, error) {
	to, err := d.GetBalance(recipient, c)
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(to, amount)
	if overflow {
		return nil, fmt.Errorf("%w: balance overflow for %s", core.ErrInvalidAmount, recipient)
	}
	next := d.clone()
	next.balances[balanceKey{recipient, c.Ticker}] = sum
	return next, nil
}

// MarkBalanceChanged records the (addr, c) pairs as touched without reading
// the base. Used by rehearsal, where prior balances are unknown.
func (d *Delta) MarkBalanceChanged(c core.Currency, addrs ...core.Address) *Delta {
	next := d.clone()
	for _, a := range addrs {
		k := balanceKey{a, c.Ticker}
		if _, ok := next.balances[k]; !ok {
			next.balances[k] = new(uint256.Int)
		}
	}
	return next
}

// UpdatedAddresses returns the addresses written by this layer, sorted.
// Ancestors' writes are not included.
func (d *Delta) UpdatedAddresses() []core.Address {
	seen := make(map[core.Address]struct{}, len(d.states)+len(d.balances))
	for a := range d.states {
		seen[a] = struct{}{}
	}
	for k := range d.balances {
		seen[k.addr] = struct{}{}
	}
	out := make([]core.Address, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	SortAddresses(out)
	return out
}

// UpdatedFungibleAssets maps each balance-touched address to its sorted
// tickers.
func (d *Delta) UpdatedFungibleAssets() map[core.Address][]string {
	out := make(map[core.Address][]string)
	for k := range d.balances {
		out[k.addr] = append(out[k.addr], k.ticker)
	}
	for a := range out {
		slices.Sort(out[a])
	}
	return out
}

// Merge returns a new layer over d's base holding d's writes overlaid by
// child's. child must be a layer built on top of d.
func (d *Delta) Merge(child *Delta) *Delta {
	next := d.clone()
	for k, v := range child.states {
		next.states[k] = v
	}
	for k, v := range child.balances {
		next.balances[k] = v
	}
	return next
}

// StateEntries returns this layer's record writes ordered by address.
func (d *Delta) StateEntries() []core.StateEntry {
	out := make([]core.StateEntry, 0, len(d.states))
	for a, v := range d.states {
		out = append(out, core.StateEntry{Address: a, Value: slices.Clone(v)})
	}
	slices.SortFunc(out, func(x, y core.StateEntry) int { return compareAddr(x.Address, y.Address) })
	return out
}

// BalanceEntries returns this layer's resulting balances ordered by
// address, then ticker.
func (d *Delta) BalanceEntries() []core.BalanceEntry {
	out := make([]core.BalanceEntry, 0, len(d.balances))
	for k, v := range d.balances {
		out = append(out, core.BalanceEntry{Address: k.addr, Ticker: k.ticker, Amount: v.Clone()})
	}
	slices.SortFunc(out, func(x, y core.BalanceEntry) int {
		if c := compareAddr(x.Address, y.Address); c != 0 {
			return c
		}
		switch {
		case x.Ticker < y.Ticker:
			return -1
		case x.Ticker > y.Ticker:
			return 1
		}
		return 0
	})
	return out
}

func compareAddr(a, b core.Address) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// SortAddresses orders addrs bytewise in place.
func SortAddresses(addrs []core.Address) {
	slices.SortFunc(addrs, compareAddr)
}
