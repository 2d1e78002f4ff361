package stake

import (
	"fmt"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/vm"
)

// ClaimReward delivers every reward tier reached since the last claim to
// the avatar's inventory.
type ClaimReward struct {
	AvatarAddress core.Address `cbor:"avatar_address" json:"avatar_address"`
	Round         int64        `cbor:"round" json:"round"`
}

func (a *ClaimReward) Type() core.ActionType { return TypeClaimReward }

func (a *ClaimReward) footprint(signer core.Address) vm.Footprint {
	return vm.Footprint{States: []core.Address{a.AvatarAddress, model.MonsterCollectionAddress(signer, a.Round)}}
}

func (a *ClaimReward) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		return a.footprint(ctx.Signer).Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	states := ctx.PreviousStates

	agent, err := model.GetAgentState(states, ctx.Signer)
	if err != nil {
		return nil, err
	}
	if !agent.OwnsAvatar(a.AvatarAddress) {
		return nil, fmt.Errorf("%w: avatar %s of agent %s", core.ErrNotFound, a.AvatarAddress, ctx.Signer)
	}
	avatar, err := model.GetAvatarState(states, a.AvatarAddress)
	if err != nil {
		return nil, err
	}
	collAddr := model.MonsterCollectionAddress(ctx.Signer, a.Round)
	coll, err := model.GetMonsterCollectionState(states, collAddr)
	if err != nil {
		return nil, err
	}

	target := coll.GetRewardLevel(ctx.BlockIndex)
	if target <= coll.RewardLevel {
		if _, claimed := coll.RewardMap[target]; claimed && target > 0 {
			return nil, fmt.Errorf("%w: tier %d of %s", core.ErrAlreadyReceived, target, collAddr)
		}
		return nil, fmt.Errorf("%w: next tier of %s unlocks at block %d", core.ErrRewardNotReady,
			collAddr, coll.StartedBlockIndex+int64(coll.RewardLevel+1)*model.RewardInterval)
	}

	for tier := coll.RewardLevel + 1; tier <= target; tier++ {
		rewards := coll.RewardLevelMap[tier]
		for _, r := range rewards {
			avatar.Inventory.AddMaterial(r.ItemID, r.Quantity)
		}
		result := model.ClaimResult{ID: ctx.Random.UUID(), AvatarAddress: a.AvatarAddress, Rewards: rewards}
		if err := coll.UpdateRewardMap(tier, result, ctx.BlockIndex); err != nil {
			return nil, err
		}
	}

	if states, err = model.Put(states, a.AvatarAddress, avatar); err != nil {
		return nil, err
	}
	return model.Put(states, collAddr, coll)
}
