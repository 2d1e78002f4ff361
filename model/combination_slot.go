package model

import (
	"fmt"

	"github.com/tolelom/stakeledger/core"
)

// CombinationResult describes what a crafting slot is producing.
type CombinationResult struct {
	Equipment   Equipment   `cbor:"equipment" json:"equipment"`
	RecipeID    int         `cbor:"recipe_id" json:"recipe_id"`
	SubRecipeID *int        `cbor:"sub_recipe_id,omitempty" json:"sub_recipe_id,omitempty"`
	Materials   map[int]int `cbor:"materials" json:"materials"`
	Gold        uint64      `cbor:"gold" json:"gold"`
	ActionPoint int         `cbor:"action_point" json:"action_point"`
	OptionIDs   []int       `cbor:"option_ids,omitempty" json:"option_ids,omitempty"`
}

// CombinationSlotState is one crafting slot of an avatar.
type CombinationSlotState struct {
	Address          core.Address       `cbor:"address" json:"address"`
	Index            int                `cbor:"index" json:"index"`
	StartBlockIndex  int64              `cbor:"start_block_index" json:"start_block_index"`
	UnlockBlockIndex int64              `cbor:"unlock_block_index" json:"unlock_block_index"`
	Result           *CombinationResult `cbor:"result,omitempty" json:"result,omitempty"`
}

// NewCombinationSlotState returns an idle slot.
func NewCombinationSlotState(addr core.Address, index int) *CombinationSlotState {
	return &CombinationSlotState{Address: addr, Index: index}
}

// GetCombinationSlotState loads the slot stored at addr.
func GetCombinationSlotState(v core.View, addr core.Address) (*CombinationSlotState, error) {
	return load[CombinationSlotState](v, addr, "combination slot")
}

// Validate fails with ErrSlotUnavailable while a previous result is still
// in progress at blockIndex.
func (s *CombinationSlotState) Validate(blockIndex int64) error {
	if blockIndex < s.UnlockBlockIndex {
		return fmt.Errorf("%w: slot %d busy until block %d", core.ErrSlotUnavailable, s.Index, s.UnlockBlockIndex)
	}
	return nil
}

// Update occupies the slot with result until unlockBlockIndex.
func (s *CombinationSlotState) Update(result *CombinationResult, blockIndex, unlockBlockIndex int64) {
	s.Result = result
	s.StartBlockIndex = blockIndex
	s.UnlockBlockIndex = unlockBlockIndex
}
