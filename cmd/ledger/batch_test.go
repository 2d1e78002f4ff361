package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/vm"
	"github.com/tolelom/stakeledger/vm/modules/avatar"
	"github.com/tolelom/stakeledger/vm/modules/stake"
	"github.com/tolelom/stakeledger/wallet"
)

const goodBatch = `{
	"transactions": [
		{"nonce": 0, "actions": [
			{"type": "create-avatar", "params": {"index": 0, "name": "alice"}},
			{"type": "stake", "params": {"level": 2, "round": 0}}
		]},
		{"nonce": 1, "actions": [
			{"type": "cancel-stake", "params": {"level": 1, "round": 0}}
		]}
	]
}`

func TestParseBatch(t *testing.T) {
	actions, nonces, err := parseBatch([]byte(goodBatch), vm.DefaultRegistry())
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1}, nonces)
	require.Equal(t, []vm.Action{&avatar.CreateAvatar{Index: 0, Name: "alice"}, &stake.Stake{Level: 2}}, actions[0])
	require.Equal(t, []vm.Action{&stake.CancelStake{Level: 1}}, actions[1])
}

func TestParseBatchRejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"no transactions": `{}`,
		"extra key":       `{"transactions": [], "fee": 1}`,
		"empty actions":   `{"transactions": [{"nonce": 0, "actions": []}]}`,
		"unknown action":  `{"transactions": [{"nonce": 0, "actions": [{"type": "burn", "params": {}}]}]}`,
		"missing field":   `{"transactions": [{"nonce": 0, "actions": [{"type": "stake", "params": {"level": 1}}]}]}`,
		"unknown field":   `{"transactions": [{"nonce": 0, "actions": [{"type": "stake", "params": {"level": 1, "round": 0, "x": 1}}]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseBatch([]byte(raw), vm.DefaultRegistry())
			require.Error(t, err)
		})
	}
}

func TestLoadBatchSignsWithWallet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(goodBatch), 0o644))
	w, err := wallet.Generate()
	require.NoError(t, err)

	txs, err := loadBatch(path, w, 42)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		require.Equal(t, w.Address(), tx.Signer)
		require.Equal(t, int64(42), tx.Timestamp)
	}
	require.Equal(t, core.ActionType("stake"), txs[0].Actions[1].Type)
}

func TestPredictReportFlagsConflicts(t *testing.T) {
	a := core.MustParseAddress("0x0000000000000000000000000000000000000001")
	b := core.MustParseAddress("0x0000000000000000000000000000000000000002")
	r := predictReport([]vm.Prediction{
		{TxID: "t1", Addresses: []core.Address{a}},
		{TxID: "t2", Addresses: []core.Address{b}},
		{TxID: "t3", Addresses: []core.Address{a, b}},
	})
	require.Equal(t, [][2]string{{"t1", "t3"}, {"t2", "t3"}}, r.Conflicts)
}
