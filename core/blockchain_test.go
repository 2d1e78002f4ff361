package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/internal/testutil"
	"github.com/tolelom/stakeledger/storage"
)

const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

func TestBlockchainLinkage(t *testing.T) {
	store := storage.NewBlockStore(testutil.NewMemDB())
	bc := core.NewBlockchain(store)
	require.NoError(t, bc.Init())
	require.Nil(t, bc.Tip())

	idx, prev := bc.Next(genesisHash)
	require.Equal(t, int64(0), idx)
	require.Equal(t, genesisHash, prev)

	b0 := core.NewBlock(idx, prev, core.Address{}, 1, nil)
	b0.Seal()
	require.NoError(t, bc.AddBlock(b0))

	// Wrong index is rejected.
	bad := core.NewBlock(5, b0.Hash, core.Address{}, 2, nil)
	bad.Seal()
	require.Error(t, bc.AddBlock(bad))

	// Wrong parent is rejected.
	bad = core.NewBlock(1, "deadbeef", core.Address{}, 2, nil)
	bad.Seal()
	require.Error(t, bc.AddBlock(bad))

	idx, prev = bc.Next(genesisHash)
	b1 := core.NewBlock(idx, prev, core.Address{}, 2, nil)
	b1.Seal()
	require.NoError(t, bc.AddBlock(b1))
	require.Equal(t, int64(1), bc.Index())

	// A fresh Blockchain over the same store resumes from the tip.
	again := core.NewBlockchain(store)
	require.NoError(t, again.Init())
	require.Equal(t, b1.Hash, again.Tip().Hash)

	got, err := again.GetBlockByIndex(0)
	require.NoError(t, err)
	require.Equal(t, b0.Hash, got.Hash)
}

func TestTransactionIDIsDeterministic(t *testing.T) {
	signer := core.MustParseAddress("0x1111111111111111111111111111111111111111")
	env := core.ActionEnvelope{Type: "stake", Params: []byte{0xa0}}

	a := core.NewTransaction(signer, 1, 100, env)
	b := core.NewTransaction(signer, 1, 100, env)
	require.NotEmpty(t, a.ID)
	require.Equal(t, a.ID, b.ID)

	c := core.NewTransaction(signer, 2, 100, env)
	require.NotEqual(t, a.ID, c.ID)
}
