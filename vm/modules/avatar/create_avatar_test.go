package avatar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/internal/testutil"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
)

var alice = core.MustParseAddress("0xa11ce00000000000000000000000000000000001")

func TestCreateAvatar(t *testing.T) {
	a := &CreateAvatar{Index: 1, Name: "Alice01", Hair: 2, Lens: -3}
	d := testutil.Execute(t, a, state.Empty{}, alice, 12)

	agent, err := model.GetAgentState(d, alice)
	require.NoError(t, err)
	addr := model.AvatarAddress(alice, 1)
	require.Equal(t, map[int]core.Address{1: addr}, agent.AvatarAddresses)

	av, err := model.GetAvatarState(d, addr)
	require.NoError(t, err)
	require.Equal(t, "Alice01", av.Name)
	require.Equal(t, 2, av.Hair)
	require.Zero(t, av.Lens)
	require.Equal(t, model.DailyActionPoint, av.ActionPoint)
	require.Equal(t, int64(12), av.BlockIndex)

	for i := 0; i < model.CombinationSlotCount; i++ {
		slot, err := model.GetCombinationSlotState(d, model.CombinationSlotAddress(addr, i))
		require.NoError(t, err)
		require.Equal(t, i, slot.Index)
		require.NoError(t, slot.Validate(0))
	}
	require.Len(t, d.UpdatedAddresses(), 2+model.CombinationSlotCount)
	testutil.RequireRehearsalMatches(t, a, d, alice, 12)

	// a second avatar joins the existing agent
	d2 := testutil.Execute(t, &CreateAvatar{Index: 0, Name: "Second"}, d, alice, 13)
	agent, err = model.GetAgentState(d2, alice)
	require.NoError(t, err)
	require.Len(t, agent.AvatarAddresses, 2)
}

func TestCreateAvatarErrors(t *testing.T) {
	d := testutil.Execute(t, &CreateAvatar{Index: 0, Name: "first"}, state.Empty{}, alice, 1)

	cases := []struct {
		name   string
		action *CreateAvatar
		want   error
	}{
		{"short name", &CreateAvatar{Index: 1, Name: "a"}, core.ErrInvalidName},
		{"symbol in name", &CreateAvatar{Index: 1, Name: "bad name"}, core.ErrInvalidName},
		{"index too high", &CreateAvatar{Index: model.AvatarSlotCount, Name: "ok"}, core.ErrAvatarIndex},
		{"negative index", &CreateAvatar{Index: -1, Name: "ok"}, core.ErrAvatarIndex},
		{"existing avatar", &CreateAvatar{Index: 0, Name: "again"}, core.ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.action.Execute(testutil.Context(t, state.New(d), alice, 2))
			require.ErrorIs(t, err, tc.want)
		})
	}
}
