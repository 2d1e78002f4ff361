package state

import (
	"github.com/holiman/uint256"

	"github.com/tolelom/stakeledger/core"
)

// Empty is a view with no records and all balances zero.
type Empty struct{}

func (Empty) GetState(core.Address) ([]byte, bool, error) { return nil, false, nil }

func (Empty) GetBalance(core.Address, core.Currency) (*uint256.Int, error) {
	return new(uint256.Int), nil
}
