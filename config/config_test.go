package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/internal/testutil"
	"github.com/tolelom/stakeledger/model"
)

const holder = "0xa11ce00000000000000000000000000000000001"

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.toml")
	cfg := DefaultConfig()
	cfg.Genesis.Alloc[holder] = 1000
	cfg.Genesis.Minters = []string{holder}
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.toml")
	require.NoError(t, os.WriteFile(path, []byte("DataDir = \"x\"\nRPCPort = 8545\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "RPCPort")
}

func TestLoadRejectsEmptyTicker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Genesis]\nTicker = \"\"\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "Ticker")
}

func TestCreateGenesisBlock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Genesis.Alloc[holder] = 15
	cfg.Genesis.Minters = []string{holder}
	sdb := testutil.NewStateDB()

	block, err := CreateGenesisBlock(cfg, sdb, core.Address{})
	require.NoError(t, err)
	require.Equal(t, int64(0), block.Header.Index)
	require.Equal(t, GenesisHash, block.Header.PrevHash)
	require.Equal(t, sdb.ComputeRoot(nil), block.Header.StateRoot)
	require.Equal(t, block.ComputeHash(), block.Hash)

	gold, err := model.GetGoldCurrency(sdb)
	require.NoError(t, err)
	require.Equal(t, "NCG", gold.Ticker)
	require.True(t, gold.IsMinter(core.MustParseAddress(holder)))

	bal, err := sdb.GetBalance(core.MustParseAddress(holder), gold)
	require.NoError(t, err)
	require.Equal(t, uint64(1500), bal.Uint64())
}

func TestGenesisRejectsBadAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Genesis.Alloc["nope"] = 1
	_, err := CreateGenesisBlock(cfg, testutil.NewStateDB(), core.Address{})
	require.Error(t, err)
}

func TestValidateBoundsGenesisCurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Genesis.DecimalPlaces = core.MaxDecimalPlaces
	require.NoError(t, cfg.Validate())

	cfg.Genesis.DecimalPlaces = 78
	require.ErrorContains(t, cfg.Validate(), "DecimalPlaces")

	cfg = DefaultConfig()
	cfg.Genesis.Minters = []string{"not-an-address"}
	require.ErrorContains(t, cfg.Validate(), "genesis minter")
}
