package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
	"github.com/tolelom/stakeledger/vm"
)

// Minter is the only address allowed to mint Gold.
var Minter = core.MustParseAddress("0x00000000000000000000000000000000000000aa")

// Gold is the gold currency written by Genesis.
var Gold = core.Currency{Ticker: "NCG", DecimalPlaces: 2, Minters: []core.Address{Minter}}

// Tables loads the embedded default tables.
func Tables(t testing.TB) *tables.Set {
	t.Helper()
	set, err := tables.Default()
	require.NoError(t, err)
	return set
}

// Genesis returns a view holding the gold currency record and the given
// allocations, expressed in whole Gold units.
func Genesis(t testing.TB, alloc map[core.Address]uint64) *state.Delta {
	t.Helper()
	d, err := model.Put(state.New(state.Empty{}), model.GoldCurrencyAddress, model.GoldCurrencyState{Currency: Gold})
	require.NoError(t, err)
	for addr, units := range alloc {
		d, err = d.MintAsset(addr, Gold, Gold.Units(units))
		require.NoError(t, err)
	}
	return d
}

// Balance returns addr's Gold balance in minor units.
func Balance(t testing.TB, v core.View, addr core.Address) uint64 {
	t.Helper()
	b, err := v.GetBalance(addr, Gold)
	require.NoError(t, err)
	return b.Uint64()
}

// Context builds an action context for a real execution at blockIndex.
func Context(t testing.TB, prev *state.Delta, signer core.Address, blockIndex int64) *vm.Context {
	t.Helper()
	return &vm.Context{
		PreviousStates: prev,
		Signer:         signer,
		TxID:           "test-tx",
		BlockIndex:     blockIndex,
		Random:         vm.NewRandom(vm.SeedFor("test-tx", 0)),
		Tables:         Tables(t),
	}
}

// Rehearsal builds a rehearsal context over an empty view.
func Rehearsal(t testing.TB, signer core.Address, blockIndex int64) *vm.Context {
	t.Helper()
	ctx := Context(t, state.New(state.Empty{}), signer, blockIndex)
	ctx.Rehearsal = true
	return ctx
}

// Execute runs a in a fresh layer over prev and fails the test on error.
// The returned layer holds only a's writes.
func Execute(t testing.TB, a vm.Action, prev core.View, signer core.Address, blockIndex int64) *state.Delta {
	t.Helper()
	next, err := a.Execute(Context(t, state.New(prev), signer, blockIndex))
	require.NoError(t, err)
	return next
}

// RequireRehearsalMatches checks that the rehearsal of a touches exactly
// the addresses and balances the real execution touched.
func RequireRehearsalMatches(t testing.TB, a vm.Action, real *state.Delta, signer core.Address, blockIndex int64) {
	t.Helper()
	predicted, err := a.Execute(Rehearsal(t, signer, blockIndex))
	require.NoError(t, err)
	require.ElementsMatch(t, predicted.UpdatedAddresses(), real.UpdatedAddresses(), "updated addresses")
	require.Equal(t, predicted.UpdatedFungibleAssets(), real.UpdatedFungibleAssets(), "updated balances")
}

// WithAgent stores an agent for signer owning avatars fresh avatars at
// indexes 0..avatars-1, each with DailyActionPoint, an empty inventory and
// idle combination slots.
func WithAgent(t testing.TB, d *state.Delta, signer core.Address, avatars int) *state.Delta {
	t.Helper()
	agent := model.NewAgentState(signer)
	var err error
	for i := 0; i < avatars; i++ {
		addr := model.AvatarAddress(signer, i)
		agent.AvatarAddresses[i] = addr
		d, err = model.Put(d, addr, &model.AvatarState{
			Address:      addr,
			AgentAddress: signer,
			Name:         "tester",
			Index:        i,
			ActionPoint:  model.DailyActionPoint,
			Inventory:    model.Inventory{Materials: map[int]int{}},
		})
		require.NoError(t, err)
		for j := 0; j < model.CombinationSlotCount; j++ {
			slot := model.CombinationSlotAddress(addr, j)
			d, err = model.Put(d, slot, model.NewCombinationSlotState(slot, j))
			require.NoError(t, err)
		}
	}
	d, err = model.Put(d, signer, agent)
	require.NoError(t, err)
	return d
}
