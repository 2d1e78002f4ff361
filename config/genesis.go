package config

import (
	"fmt"
	"sort"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/storage"
)

// GenesisHash is a canonical all-zeros previous hash for the genesis block.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Currency returns the gold currency described by the genesis section.
func (g GenesisConfig) Currency() (core.Currency, error) {
	c := core.Currency{Ticker: g.Ticker, DecimalPlaces: g.DecimalPlaces}
	for _, m := range g.Minters {
		addr, err := core.ParseAddress(m)
		if err != nil {
			return core.Currency{}, fmt.Errorf("genesis minter: %w", err)
		}
		c.Minters = append(c.Minters, addr)
	}
	return c, nil
}

// GenesisState builds the view written at genesis over base: the gold
// currency record and every allocation.
func GenesisState(g GenesisConfig, base core.View) (*state.Delta, error) {
	gold, err := g.Currency()
	if err != nil {
		return nil, err
	}
	d, err := model.Put(state.New(base), model.GoldCurrencyAddress, model.GoldCurrencyState{Currency: gold})
	if err != nil {
		return nil, err
	}

	holders := make([]string, 0, len(g.Alloc))
	for h := range g.Alloc {
		holders = append(holders, h)
	}
	sort.Strings(holders)
	for _, h := range holders {
		addr, err := core.ParseAddress(h)
		if err != nil {
			return nil, fmt.Errorf("genesis alloc: %w", err)
		}
		if d, err = d.MintAsset(addr, gold, gold.Units(g.Alloc[h])); err != nil {
			return nil, fmt.Errorf("genesis alloc %s: %w", addr, err)
		}
	}
	return d, nil
}

// CreateGenesisBlock writes the genesis state into sdb and returns block #0
// carrying its state root.
func CreateGenesisBlock(cfg *Config, sdb *storage.StateDB, miner core.Address) (*core.Block, error) {
	d, err := GenesisState(cfg.Genesis, sdb)
	if err != nil {
		return nil, err
	}
	root := sdb.ComputeRoot(d)
	if err := sdb.Commit(d); err != nil {
		return nil, err
	}
	block := core.NewBlock(0, GenesisHash, miner, cfg.Genesis.Timestamp, nil)
	block.Header.StateRoot = root
	block.Seal()
	return block, nil
}
