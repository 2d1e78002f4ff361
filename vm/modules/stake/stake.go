// Package stake implements the monster collection staking actions: opening
// or raising a commitment, cancelling it, and claiming its reward tiers.
package stake

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
	"github.com/tolelom/stakeledger/vm"
)

const (
	TypeStake       core.ActionType = "stake"
	TypeCancelStake core.ActionType = "cancel-stake"
	TypeClaimReward core.ActionType = "claim-stake-reward"
)

func init() {
	vm.Register(vm.Definition{Type: TypeStake, New: func() vm.Action { return &Stake{} }, Required: []string{"level", "round"}})
	vm.Register(vm.Definition{Type: TypeCancelStake, New: func() vm.Action { return &CancelStake{} }, Required: []string{"level", "round"}})
	vm.Register(vm.Definition{Type: TypeClaimReward, New: func() vm.Action { return &ClaimReward{} }, Required: []string{"avatar_address", "round"}})
}

// custody is the footprint shared by stake and cancel: the agent record
// and the commitment record, plus the gold balances of both.
func custody(signer core.Address, round int64) vm.Footprint {
	coll := model.MonsterCollectionAddress(signer, round)
	return vm.Footprint{
		States:   []core.Address{signer, coll},
		Balances: []core.Address{signer, coll},
	}
}

// Stake opens a commitment at Level for Round, or raises an existing one.
type Stake struct {
	Level int   `cbor:"level" json:"level"`
	Round int64 `cbor:"round" json:"round"`
}

func (a *Stake) Type() core.ActionType { return TypeStake }

func (a *Stake) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		return custody(ctx.Signer, a.Round).Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	states := ctx.PreviousStates

	agent, err := model.GetAgentState(states, ctx.Signer)
	if err != nil {
		return nil, err
	}
	if a.Round != agent.MonsterCollectionRound {
		return nil, fmt.Errorf("%w: expected %d, got %d", core.ErrInvalidRound, agent.MonsterCollectionRound, a.Round)
	}

	collAddr := model.MonsterCollectionAddress(ctx.Signer, a.Round)
	coll, err := model.GetMonsterCollectionState(states, collAddr)
	switch {
	case errors.Is(err, core.ErrNotFound):
		coll = nil
	case err != nil:
		return nil, err
	}
	if coll != nil {
		if ctx.BlockIndex > coll.ExpiredBlockIndex {
			return nil, fmt.Errorf("%w: %s expired at block %d", core.ErrExpired, collAddr, coll.ExpiredBlockIndex)
		}
		// Every tier is paid out; the balance can only leave through cancel,
		// which refuses ended commitments.
		if coll.End {
			return nil, fmt.Errorf("%w: %s has paid out every tier", core.ErrExpired, collAddr)
		}
	}

	costs, err := tables.Get[tables.MonsterCollectionSheet](ctx.Tables)
	if err != nil {
		return nil, err
	}
	rewards, err := tables.Get[tables.MonsterCollectionRewardSheet](ctx.Tables)
	if err != nil {
		return nil, err
	}
	if a.Level < 1 || a.Level > costs.MaxLevel() {
		return nil, fmt.Errorf("%w: %d outside [1, %d]", core.ErrInvalidLevel, a.Level, costs.MaxLevel())
	}

	prevLevel := 0
	if coll != nil {
		if a.Level <= coll.Level {
			return nil, fmt.Errorf("%w: %d does not raise current level %d", core.ErrInvalidLevel, a.Level, coll.Level)
		}
		prevLevel = coll.Level
	}

	gold, err := ctx.GoldCurrency()
	if err != nil {
		return nil, err
	}
	cost, err := RequiredGold(costs, gold, prevLevel, a.Level)
	if err != nil {
		return nil, err
	}
	// TransferAsset enforces the balance check.
	states, err = states.TransferAsset(ctx.Signer, collAddr, gold, cost)
	if err != nil {
		return nil, err
	}

	if coll == nil {
		coll, err = model.NewMonsterCollectionState(collAddr, a.Level, ctx.BlockIndex, rewards)
	} else {
		err = coll.Update(a.Level, coll.GetRewardLevel(ctx.BlockIndex), rewards)
	}
	if err != nil {
		return nil, err
	}

	if states, err = model.Put(states, collAddr, coll); err != nil {
		return nil, err
	}
	return model.Put(states, ctx.Signer, agent)
}

// RequiredGold sums the per-level cost of every level in (from, to].
func RequiredGold(costs tables.MonsterCollectionSheet, gold core.Currency, from, to int) (*uint256.Int, error) {
	var units uint64
	for lvl := from + 1; lvl <= to; lvl++ {
		row, err := costs.Row(lvl)
		if err != nil {
			return nil, err
		}
		units += row.RequiredGold
	}
	return gold.Units(units), nil
}
