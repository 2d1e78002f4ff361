package economy

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/vm"
)

// MintAsset issues Amount minor units of gold to Recipient. Only a minter
// of the gold currency may sign it.
type MintAsset struct {
	Recipient core.Address `cbor:"recipient" json:"recipient"`
	Amount    uint64       `cbor:"amount" json:"amount"`
}

func (a *MintAsset) Type() core.ActionType { return TypeMintAsset }

func (a *MintAsset) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		fp := vm.Footprint{Balances: []core.Address{a.Recipient}}
		return fp.Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	if a.Amount == 0 {
		return nil, fmt.Errorf("%w: mint amount must be > 0", core.ErrInvalidAmount)
	}
	gold, err := ctx.GoldCurrency()
	if err != nil {
		return nil, err
	}
	if !gold.IsMinter(ctx.Signer) {
		return nil, fmt.Errorf("%w: %s may not mint %s", core.ErrUnauthorizedMinter, ctx.Signer, gold.Ticker)
	}
	return ctx.PreviousStates.MintAsset(a.Recipient, gold, uint256.NewInt(a.Amount))
}
