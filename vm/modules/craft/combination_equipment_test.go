package craft

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/internal/testutil"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
	"github.com/tolelom/stakeledger/vm"
)

var (
	alice  = core.MustParseAddress("0xa11ce00000000000000000000000000000000001")
	avatar = model.AvatarAddress(alice, 0)
)

func intPtr(i int) *int { return &i }

// setup returns a ledger where alice holds gold and one avatar carrying
// the given materials.
func setup(t *testing.T, gold uint64, materials map[int]int) *state.Delta {
	t.Helper()
	d := testutil.Genesis(t, map[core.Address]uint64{alice: gold})
	d = testutil.WithAgent(t, d, alice, 1)
	av, err := model.GetAvatarState(d, avatar)
	require.NoError(t, err)
	for id, n := range materials {
		av.Inventory.AddMaterial(id, n)
	}
	d, err = model.Put(d, avatar, av)
	require.NoError(t, err)
	return d
}

func craftErr(t *testing.T, a vm.Action, prev core.View, bi int64) error {
	t.Helper()
	_, err := a.Execute(testutil.Context(t, state.New(prev), alice, bi))
	require.Error(t, err)
	return err
}

func TestCraftBaseRecipe(t *testing.T) {
	d := setup(t, 0, map[int]int{303000: 3})
	a := &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1, SlotIndex: 0}
	next := testutil.Execute(t, a, d, alice, 100)

	av, err := model.GetAvatarState(next, avatar)
	require.NoError(t, err)
	require.Equal(t, 1, av.Inventory.Materials[303000])
	require.Equal(t, model.DailyActionPoint-5, av.ActionPoint)
	require.Len(t, av.Inventory.Equipments, 1)
	eq := av.Inventory.Equipments[0]
	require.Equal(t, 10100000, eq.EquipmentID)
	require.Equal(t, model.StatModifier{Type: "ATK", Value: 11}, eq.BaseStat)
	require.Empty(t, eq.Stats)
	require.Equal(t, int64(105), eq.RequiredBlockIndex)

	slot, err := model.GetCombinationSlotState(next, model.CombinationSlotAddress(avatar, 0))
	require.NoError(t, err)
	require.Equal(t, int64(105), slot.UnlockBlockIndex)
	require.Equal(t, map[int]int{303000: 2}, slot.Result.Materials)
	require.Nil(t, slot.Result.SubRecipeID)

	// a zero gold cost still moves (and touches) both balances
	require.Equal(t, map[core.Address][]string{alice: {"NCG"}, model.BlacksmithAddress: {"NCG"}}, next.UpdatedFungibleAssets())
	testutil.RequireRehearsalMatches(t, a, next, alice, 100)
}

func TestCraftWithSubRecipe(t *testing.T) {
	d := setup(t, 100, map[int]int{303000: 2, 306023: 1})
	a := &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1, SlotIndex: 1, SubRecipeID: intPtr(1)}
	next := testutil.Execute(t, a, d, alice, 7)

	require.Equal(t, uint64(90*100), testutil.Balance(t, next, alice))
	require.Equal(t, uint64(10*100), testutil.Balance(t, next, model.BlacksmithAddress))

	slot, err := model.GetCombinationSlotState(next, model.CombinationSlotAddress(avatar, 1))
	require.NoError(t, err)
	require.Equal(t, int64(7+15), slot.UnlockBlockIndex)
	require.Len(t, slot.Result.OptionIDs, 2)
	require.Equal(t, map[int]int{303000: 2, 306023: 1}, slot.Result.Materials)

	eq := slot.Result.Equipment
	require.Equal(t, 2, len(eq.Stats)+len(eq.Skills))
	for _, s := range eq.Stats {
		switch s.Type {
		case "ATK":
			require.GreaterOrEqual(t, s.Value, 4)
			require.LessOrEqual(t, s.Value, 6)
		case "HIT":
			require.GreaterOrEqual(t, s.Value, 10)
			require.LessOrEqual(t, s.Value, 20)
		default:
			t.Fatalf("unexpected stat %s", s.Type)
		}
	}
	for _, s := range eq.Skills {
		require.Equal(t, 100001, s.ID)
		require.GreaterOrEqual(t, s.Damage, 20)
		require.LessOrEqual(t, s.Chance, 10)
	}

	agent, err := model.GetAgentState(next, alice)
	require.NoError(t, err)
	require.Equal(t, slot.Result.OptionIDs, agent.UnlockedOptions)
	testutil.RequireRehearsalMatches(t, a, next, alice, 7)

	// identical inputs replay identically
	again := testutil.Execute(t, a, d, alice, 7)
	require.Equal(t, next.StateEntries(), again.StateEntries())
}

func TestCraftErrors(t *testing.T) {
	d := setup(t, 5, map[int]int{303000: 2, 306023: 2})

	cases := []struct {
		name   string
		action *CombinationEquipment
		want   error
	}{
		{"foreign avatar", &CombinationEquipment{AvatarAddress: model.AvatarAddress(alice, 1), RecipeID: 1}, core.ErrNotFound},
		{"missing slot", &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1, SlotIndex: 9}, core.ErrNotFound},
		{"unknown recipe", &CombinationEquipment{AvatarAddress: avatar, RecipeID: 99}, core.ErrRowNotFound},
		{"foreign sub-recipe", &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1, SubRecipeID: intPtr(3)}, core.ErrInvalidRecipe},
		{"missing material", &CombinationEquipment{AvatarAddress: avatar, RecipeID: 2, SubRecipeID: intPtr(3)}, core.ErrInsufficientMaterial},
		{"gold", &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1, SubRecipeID: intPtr(1)}, core.ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, craftErr(t, tc.action, d, 1), tc.want)
		})
	}

	t.Run("busy slot", func(t *testing.T) {
		a := &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1}
		rich := setup(t, 0, map[int]int{303000: 4})
		next := testutil.Execute(t, a, rich, alice, 1)
		require.ErrorIs(t, craftErr(t, a, next, 5), core.ErrSlotUnavailable)
		testutil.Execute(t, a, next, alice, 6)
	})

	t.Run("action points", func(t *testing.T) {
		tired := setup(t, 0, map[int]int{303000: 2})
		av, err := model.GetAvatarState(tired, avatar)
		require.NoError(t, err)
		av.ActionPoint = 4
		tired, err = model.Put(tired, avatar, av)
		require.NoError(t, err)
		require.ErrorIs(t, craftErr(t, &CombinationEquipment{AvatarAddress: avatar, RecipeID: 1}, tired, 1), core.ErrNotEnoughActionPoint)
	})
}

func TestSelectOptions(t *testing.T) {
	candidates := []tables.OptionInfo{{ID: 3, Ratio: 1}, {ID: 1, Ratio: 5}, {ID: 2, Ratio: 0}}

	got := SelectOptions(vm.NewRandom(1), candidates, 5)
	require.Equal(t, []int{1, 3}, got)

	require.Empty(t, SelectOptions(vm.NewRandom(1), candidates, 0))
	require.Empty(t, SelectOptions(vm.NewRandom(1), nil, 3))

	for seed := uint64(0); seed < 50; seed++ {
		a := SelectOptions(vm.NewRandom(seed), candidates, 1)
		b := SelectOptions(vm.NewRandom(seed), candidates, 1)
		require.Equal(t, a, b)
		require.Len(t, a, 1)
		require.NotEqual(t, 2, a[0])
	}
}
