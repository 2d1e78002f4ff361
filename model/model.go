// Package model defines the domain records stored in the ledger and the
// address layout used to find them.
package model

import (
	"fmt"

	"github.com/tolelom/stakeledger/codec"
	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/state"
)

// Well-known addresses.
var (
	GoldCurrencyAddress = core.MustParseAddress("0x0000000000000000000000000000000000000001")
	BlacksmithAddress   = core.MustParseAddress("0x0000000000000000000000000000000000000002")
)

const (
	// AvatarSlotCount is the number of avatars an agent may own.
	AvatarSlotCount = 3
	// CombinationSlotCount is the number of crafting slots per avatar.
	CombinationSlotCount = 4
	// DailyActionPoint is the action point pool of a fresh avatar.
	DailyActionPoint = 120
)

// AvatarAddress returns the address of the agent's avatar at index.
func AvatarAddress(agent core.Address, index int) core.Address {
	return agent.Derive(fmt.Sprintf("avatar-state-%d", index))
}

// CombinationSlotAddress returns the address of an avatar's crafting slot.
func CombinationSlotAddress(avatar core.Address, index int) core.Address {
	return avatar.Derive(fmt.Sprintf("combination-slot-%d", index))
}

// MonsterCollectionAddress returns the commitment address of agent's round.
func MonsterCollectionAddress(agent core.Address, round int64) core.Address {
	return agent.Derive(fmt.Sprintf("monster-collection-%d", round))
}

// Put encodes rec and stores it at addr in a new view.
func Put(d *state.Delta, addr core.Address, rec any) (*state.Delta, error) {
	data, err := codec.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record at %s: %w", addr, err)
	}
	return d.SetState(addr, data), nil
}

func load[T any](v core.View, addr core.Address, kind string) (*T, error) {
	data, ok, err := v.GetState(addr)
	if err != nil {
		return nil, err
	}
	if !ok || codec.IsNull(data) {
		return nil, fmt.Errorf("%w: %s %s", core.ErrNotFound, kind, addr)
	}
	rec := new(T)
	if err := codec.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, addr, err)
	}
	return rec, nil
}

// GoldCurrencyState records the ledger's gold currency. It is written once
// at genesis.
type GoldCurrencyState struct {
	Currency core.Currency `cbor:"currency"`
}

// GetGoldCurrency returns the gold currency definition stored at genesis.
func GetGoldCurrency(v core.View) (core.Currency, error) {
	s, err := load[GoldCurrencyState](v, GoldCurrencyAddress, "gold currency")
	if err != nil {
		return core.Currency{}, err
	}
	return s.Currency, nil
}
