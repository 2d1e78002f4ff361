package stake

import (
	"fmt"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
	"github.com/tolelom/stakeledger/vm"
)

// CancelStake refunds the whole balance of the Round commitment to the
// signer, resets the record to Level and opens the next round.
type CancelStake struct {
	Level int   `cbor:"level" json:"level"`
	Round int64 `cbor:"round" json:"round"`
}

func (a *CancelStake) Type() core.ActionType { return TypeCancelStake }

func (a *CancelStake) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		return custody(ctx.Signer, a.Round).Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	states := ctx.PreviousStates

	agent, err := model.GetAgentState(states, ctx.Signer)
	if err != nil {
		return nil, err
	}
	collAddr := model.MonsterCollectionAddress(ctx.Signer, a.Round)
	coll, err := model.GetMonsterCollectionState(states, collAddr)
	if err != nil {
		return nil, err
	}

	if a.Level < 1 || a.Level > model.RewardCapacity || a.Level >= coll.Level {
		return nil, fmt.Errorf("%w: %d must be in [1, %d] and below current level %d",
			core.ErrInvalidLevel, a.Level, model.RewardCapacity, coll.Level)
	}
	rewards, err := tables.Get[tables.MonsterCollectionRewardSheet](ctx.Tables)
	if err != nil {
		return nil, err
	}
	if _, err := rewards.Row(a.Level); err != nil {
		return nil, err
	}

	if coll.End {
		return nil, fmt.Errorf("%w: %s has claimed every tier", core.ErrExpired, collAddr)
	}

	gold, err := ctx.GoldCurrency()
	if err != nil {
		return nil, err
	}
	balance, err := states.GetBalance(collAddr, gold)
	if err != nil {
		return nil, err
	}
	if balance.IsZero() {
		return nil, fmt.Errorf("%w: %s holds no %s", core.ErrInsufficientBalance, collAddr, gold.Ticker)
	}
	if states, err = states.TransferAsset(collAddr, ctx.Signer, gold, balance); err != nil {
		return nil, err
	}

	if err := coll.Update(a.Level, coll.GetRewardLevel(ctx.BlockIndex), rewards); err != nil {
		return nil, err
	}
	agent.MonsterCollectionRound++

	if states, err = model.Put(states, collAddr, coll); err != nil {
		return nil, err
	}
	return model.Put(states, ctx.Signer, agent)
}
