// Package economy moves and issues gold between accounts.
package economy

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/vm"
)

const (
	TypeTransferAsset core.ActionType = "transfer-asset"
	TypeMintAsset     core.ActionType = "mint-asset"
)

func init() {
	vm.Register(vm.Definition{Type: TypeTransferAsset, New: func() vm.Action { return &TransferAsset{} }, Required: []string{"recipient", "amount"}})
	vm.Register(vm.Definition{Type: TypeMintAsset, New: func() vm.Action { return &MintAsset{} }, Required: []string{"recipient", "amount"}})
}

// TransferAsset sends Amount minor units of gold from the signer to
// Recipient.
type TransferAsset struct {
	Recipient core.Address `cbor:"recipient" json:"recipient"`
	Amount    uint64       `cbor:"amount" json:"amount"`
}

func (a *TransferAsset) Type() core.ActionType { return TypeTransferAsset }

func (a *TransferAsset) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		fp := vm.Footprint{Balances: []core.Address{ctx.Signer, a.Recipient}}
		return fp.Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	if a.Amount == 0 {
		return nil, fmt.Errorf("%w: transfer amount must be > 0", core.ErrInvalidAmount)
	}
	gold, err := ctx.GoldCurrency()
	if err != nil {
		return nil, err
	}
	return ctx.PreviousStates.TransferAsset(ctx.Signer, a.Recipient, gold, uint256.NewInt(a.Amount))
}
