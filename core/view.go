package core

import "github.com/holiman/uint256"

// View is read access to a ledger snapshot. GetState reports absent
// records with ok=false; err is reserved for storage failures.
type View interface {
	GetState(addr Address) (value []byte, ok bool, err error)
	GetBalance(addr Address, c Currency) (*uint256.Int, error)
}

// StateEntry is a single serialized record write.
type StateEntry struct {
	Address Address
	Value   []byte
}

// BalanceEntry is the resulting balance of one (address, ticker) pair.
type BalanceEntry struct {
	Address Address
	Ticker  string
	Amount  *uint256.Int
}

// ChangeSet is a pending write layer that storage can hash and persist.
// Entries are returned in a deterministic order.
type ChangeSet interface {
	StateEntries() []StateEntry
	BalanceEntries() []BalanceEntry
}
