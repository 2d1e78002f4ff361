package stake

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/internal/testutil"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/vm"
)

var alice = core.MustParseAddress("0xa11ce00000000000000000000000000000000001")

// unit converts whole gold to minor units.
func unit(n uint64) uint64 { return n * 100 }

func genesis(t *testing.T, gold uint64) *state.Delta {
	t.Helper()
	g := testutil.Genesis(t, map[core.Address]uint64{alice: gold})
	return testutil.WithAgent(t, g, alice, 1)
}

func execErr(t *testing.T, a vm.Action, prev core.View, bi int64) error {
	t.Helper()
	_, err := a.Execute(testutil.Context(t, state.New(prev), alice, bi))
	require.Error(t, err)
	return err
}

func collection(t *testing.T, v core.View, round int64) *model.MonsterCollectionState {
	t.Helper()
	c, err := model.GetMonsterCollectionState(v, model.MonsterCollectionAddress(alice, round))
	require.NoError(t, err)
	return c
}

func TestStakeOpensCommitment(t *testing.T) {
	g := genesis(t, 10000)
	d := testutil.Execute(t, &Stake{Level: 2, Round: 0}, g, alice, 10)

	coll := collection(t, d, 0)
	require.Equal(t, 2, coll.Level)
	require.Equal(t, int64(10), coll.StartedBlockIndex)
	require.Equal(t, int64(10)+model.ExpirationWindow, coll.ExpiredBlockIndex)
	require.Len(t, coll.RewardLevelMap, model.RewardCapacity)
	require.Empty(t, coll.RewardMap)

	collAddr := model.MonsterCollectionAddress(alice, 0)
	require.Equal(t, unit(10000-500-1800), testutil.Balance(t, d, alice))
	require.Equal(t, unit(500+1800), testutil.Balance(t, d, collAddr))
	require.ElementsMatch(t, []core.Address{alice, collAddr}, d.UpdatedAddresses())
}

func TestStakeRaiseChargesOnlyTheDifference(t *testing.T) {
	g := genesis(t, 10000)

	direct := testutil.Execute(t, &Stake{Level: 3, Round: 0}, g, alice, 1)

	step := testutil.Execute(t, &Stake{Level: 1, Round: 0}, g, alice, 1)
	step = testutil.Execute(t, &Stake{Level: 2, Round: 0}, step, alice, 2)
	step = testutil.Execute(t, &Stake{Level: 3, Round: 0}, step, alice, 3)

	require.Equal(t, testutil.Balance(t, direct, alice), testutil.Balance(t, step, alice))
	require.Equal(t, unit(10000-500-1800-7200), testutil.Balance(t, step, alice))
	require.Equal(t, 3, collection(t, step, 0).Level)
	require.Equal(t, int64(1), collection(t, step, 0).StartedBlockIndex)
}

func TestStakeRaiseKeepsClaimedTiers(t *testing.T) {
	g := genesis(t, 100000)
	d := testutil.Execute(t, &Stake{Level: 1, Round: 0}, g, alice, 0)
	d = testutil.Execute(t, &ClaimReward{AvatarAddress: model.AvatarAddress(alice, 0), Round: 0}, d, alice, model.RewardInterval)
	before := collection(t, d, 0).RewardLevelMap[1]

	d = testutil.Execute(t, &Stake{Level: 4, Round: 0}, d, alice, model.RewardInterval+1)
	coll := collection(t, d, 0)
	require.Equal(t, before, coll.RewardLevelMap[1])
	require.NotEqual(t, before, coll.RewardLevelMap[2])
	require.Equal(t, coll.RewardLevelMap[2], coll.RewardLevelMap[4])
}

func TestStakeErrors(t *testing.T) {
	g := genesis(t, 1000)

	t.Run("no agent", func(t *testing.T) {
		bare := testutil.Genesis(t, map[core.Address]uint64{alice: 1000})
		require.ErrorIs(t, execErr(t, &Stake{Level: 1}, bare, 1), core.ErrNotFound)
	})
	t.Run("round mismatch", func(t *testing.T) {
		require.ErrorIs(t, execErr(t, &Stake{Level: 1, Round: 1}, g, 1), core.ErrInvalidRound)
	})
	t.Run("level out of range", func(t *testing.T) {
		require.ErrorIs(t, execErr(t, &Stake{Level: 0}, g, 1), core.ErrInvalidLevel)
		require.ErrorIs(t, execErr(t, &Stake{Level: 8}, g, 1), core.ErrInvalidLevel)
	})
	t.Run("insufficient balance", func(t *testing.T) {
		require.ErrorIs(t, execErr(t, &Stake{Level: 2}, g, 1), core.ErrInsufficientBalance)
	})
	t.Run("not a raise", func(t *testing.T) {
		d := testutil.Execute(t, &Stake{Level: 1}, g, alice, 1)
		require.ErrorIs(t, execErr(t, &Stake{Level: 1}, d, 2), core.ErrInvalidLevel)
	})
	t.Run("expired", func(t *testing.T) {
		rich := genesis(t, 100000)
		d := testutil.Execute(t, &Stake{Level: 1}, rich, alice, 1)
		require.ErrorIs(t, execErr(t, &Stake{Level: 2}, d, 2+model.ExpirationWindow), core.ErrExpired)
		testutil.Execute(t, &Stake{Level: 2}, d, alice, 1+model.ExpirationWindow)
	})
	t.Run("expired before level range", func(t *testing.T) {
		rich := genesis(t, 100000)
		d := testutil.Execute(t, &Stake{Level: 1}, rich, alice, 1)
		for _, level := range []int{0, 1, 8} {
			require.ErrorIs(t, execErr(t, &Stake{Level: level}, d, 2+model.ExpirationWindow), core.ErrExpired)
		}
	})
	t.Run("every tier claimed", func(t *testing.T) {
		rich := genesis(t, 100000)
		d := testutil.Execute(t, &Stake{Level: 1}, rich, alice, 0)
		d = testutil.Execute(t, &ClaimReward{AvatarAddress: model.AvatarAddress(alice, 0)}, d, alice, model.ExpirationWindow)
		require.True(t, collection(t, d, 0).End)
		require.ErrorIs(t, execErr(t, &Stake{Level: 2}, d, model.ExpirationWindow), core.ErrExpired)
	})
}

func TestCancelRefundsAndAdvancesRound(t *testing.T) {
	g := genesis(t, 10000)
	d := testutil.Execute(t, &Stake{Level: 3, Round: 0}, g, alice, 0)
	require.Equal(t, unit(10000-9500), testutil.Balance(t, d, alice))

	d = testutil.Execute(t, &CancelStake{Level: 1, Round: 0}, d, alice, 50)
	collAddr := model.MonsterCollectionAddress(alice, 0)
	require.Equal(t, unit(10000), testutil.Balance(t, d, alice))
	require.Zero(t, testutil.Balance(t, d, collAddr))
	require.Equal(t, 1, collection(t, d, 0).Level)

	agent, err := model.GetAgentState(d, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1), agent.MonsterCollectionRound)

	// the next round opens at a fresh address
	d = testutil.Execute(t, &Stake{Level: 1, Round: 1}, d, alice, 60)
	require.Equal(t, int64(60), collection(t, d, 1).StartedBlockIndex)
	require.ErrorIs(t, execErr(t, &Stake{Level: 1, Round: 0}, d, 61), core.ErrInvalidRound)
}

func TestCancelErrors(t *testing.T) {
	g := genesis(t, 10000)
	staked := testutil.Execute(t, &Stake{Level: 2}, g, alice, 0)

	t.Run("no commitment", func(t *testing.T) {
		require.ErrorIs(t, execErr(t, &CancelStake{Level: 1}, g, 1), core.ErrNotFound)
	})
	t.Run("level not below current", func(t *testing.T) {
		require.ErrorIs(t, execErr(t, &CancelStake{Level: 2}, staked, 1), core.ErrInvalidLevel)
		require.ErrorIs(t, execErr(t, &CancelStake{Level: 0}, staked, 1), core.ErrInvalidLevel)
	})
	t.Run("already refunded", func(t *testing.T) {
		d := testutil.Execute(t, &Stake{Level: 3}, g, alice, 0)
		d = testutil.Execute(t, &CancelStake{Level: 2}, d, alice, 1)
		require.ErrorIs(t, execErr(t, &CancelStake{Level: 1}, d, 2), core.ErrInsufficientBalance)
	})
	t.Run("fully claimed", func(t *testing.T) {
		d := testutil.Execute(t, &Stake{Level: 3}, g, alice, 0)
		d = testutil.Execute(t, &ClaimReward{AvatarAddress: model.AvatarAddress(alice, 0)}, d, alice, model.ExpirationWindow)
		require.ErrorIs(t, execErr(t, &CancelStake{Level: 1}, d, model.ExpirationWindow+1), core.ErrExpired)
	})
}

func TestClaimDeliversEveryReachedTier(t *testing.T) {
	g := genesis(t, 10000)
	avatar := model.AvatarAddress(alice, 0)
	d := testutil.Execute(t, &Stake{Level: 1}, g, alice, 0)

	d = testutil.Execute(t, &ClaimReward{AvatarAddress: avatar}, d, alice, 2*model.RewardInterval+5)
	coll := collection(t, d, 0)
	require.Equal(t, 2, coll.RewardLevel)
	require.Len(t, coll.RewardMap, 2)
	require.NotEqual(t, coll.RewardMap[1].ID, coll.RewardMap[2].ID)
	require.Equal(t, int64(2*model.RewardInterval+5), coll.ReceivedBlockIndex)
	require.False(t, coll.End)

	av, err := model.GetAvatarState(d, avatar)
	require.NoError(t, err)
	require.Equal(t, 2*80, av.Inventory.Materials[400000])
	require.Equal(t, 2, av.Inventory.Materials[500000])

	require.ErrorIs(t, execErr(t, &ClaimReward{AvatarAddress: avatar}, d, 2*model.RewardInterval+6), core.ErrAlreadyReceived)

	d = testutil.Execute(t, &ClaimReward{AvatarAddress: avatar}, d, alice, 10*model.RewardInterval)
	coll = collection(t, d, 0)
	require.True(t, coll.End)
	require.Equal(t, model.RewardCapacity, coll.RewardLevel)
}

func TestClaimErrors(t *testing.T) {
	g := genesis(t, 10000)
	avatar := model.AvatarAddress(alice, 0)
	d := testutil.Execute(t, &Stake{Level: 1}, g, alice, 0)

	err := execErr(t, &ClaimReward{AvatarAddress: avatar}, d, model.RewardInterval-1)
	require.ErrorIs(t, err, core.ErrRewardNotReady)
	require.ErrorContains(t, err, "unlocks at block 40000")
	require.ErrorIs(t, execErr(t, &ClaimReward{AvatarAddress: model.AvatarAddress(alice, 2)}, d, model.RewardInterval), core.ErrNotFound)
	require.ErrorIs(t, execErr(t, &ClaimReward{AvatarAddress: avatar, Round: 3}, d, model.RewardInterval), core.ErrNotFound)
}

func TestRehearsalCoversExecution(t *testing.T) {
	avatar := model.AvatarAddress(alice, 0)
	for level := 1; level <= 7; level++ {
		for _, bi := range []int64{0, 1, model.RewardInterval, model.ExpirationWindow} {
			g := genesis(t, 10_000_000)
			stake := &Stake{Level: level}
			d := testutil.Execute(t, stake, g, alice, bi)
			testutil.RequireRehearsalMatches(t, stake, d, alice, bi)

			claimAt := bi + model.RewardInterval
			claim := &ClaimReward{AvatarAddress: avatar}
			c := testutil.Execute(t, claim, d, alice, claimAt)
			testutil.RequireRehearsalMatches(t, claim, c, alice, claimAt)

			if level > 1 {
				cancel := &CancelStake{Level: 1}
				x := testutil.Execute(t, cancel, d, alice, bi+1)
				testutil.RequireRehearsalMatches(t, cancel, x, alice, bi+1)
			}
		}
	}
}

func TestRehearsalMarksStatesAndBalances(t *testing.T) {
	d, err := (&Stake{Level: 3, Round: 2}).Execute(testutil.Rehearsal(t, alice, 0))
	require.NoError(t, err)
	collAddr := model.MonsterCollectionAddress(alice, 2)
	require.ElementsMatch(t, []core.Address{alice, collAddr}, d.UpdatedAddresses())
	require.Equal(t, map[core.Address][]string{alice: {"NCG"}, collAddr: {"NCG"}}, d.UpdatedFungibleAssets())
}

func TestDecodeRequiresFields(t *testing.T) {
	r := vm.DefaultRegistry()
	env, err := r.Encode(&Stake{Level: 2, Round: 1})
	require.NoError(t, err)
	a, err := r.Decode(env)
	require.NoError(t, err)
	require.Equal(t, &Stake{Level: 2, Round: 1}, a)

	_, err = r.DecodeJSON(TypeStake, []byte(`{"level":2}`))
	require.ErrorIs(t, err, core.ErrStructural)
	_, err = r.DecodeJSON(TypeClaimReward, []byte(`{"avatar_address":"0x00000000000000000000000000000000000000aa","round":0}`))
	require.NoError(t, err)
}
