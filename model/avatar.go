package model

import (
	"fmt"
	"sort"

	"github.com/tolelom/stakeledger/core"
)

// AvatarState is a playable character owned by an agent.
type AvatarState struct {
	Address      core.Address `cbor:"address" json:"address"`
	AgentAddress core.Address `cbor:"agent_address" json:"agent_address"`
	Name         string       `cbor:"name" json:"name"`
	Index        int          `cbor:"index" json:"index"`
	Hair         int          `cbor:"hair" json:"hair"`
	Lens         int          `cbor:"lens" json:"lens"`
	Ear          int          `cbor:"ear" json:"ear"`
	Tail         int          `cbor:"tail" json:"tail"`
	ActionPoint  int          `cbor:"action_point" json:"action_point"`
	BlockIndex   int64        `cbor:"block_index" json:"block_index"`
	Inventory    Inventory    `cbor:"inventory" json:"inventory"`
}

// GetAvatarState loads the avatar stored at addr.
func GetAvatarState(v core.View, addr core.Address) (*AvatarState, error) {
	a, err := load[AvatarState](v, addr, "avatar")
	if err != nil {
		return nil, err
	}
	if a.Inventory.Materials == nil {
		a.Inventory.Materials = map[int]int{}
	}
	return a, nil
}

// Inventory holds stackable materials and crafted equipment.
type Inventory struct {
	Materials  map[int]int `cbor:"materials" json:"materials"` // item id → count
	Equipments []Equipment `cbor:"equipments,omitempty" json:"equipments,omitempty"`
}

// AddMaterial adds count units of item id.
func (inv *Inventory) AddMaterial(id, count int) {
	if inv.Materials == nil {
		inv.Materials = map[int]int{}
	}
	inv.Materials[id] += count
}

// RemoveMaterial takes count units of item id, failing with
// ErrInsufficientMaterial when fewer are held.
func (inv *Inventory) RemoveMaterial(id, count int) error {
	have := inv.Materials[id]
	if have < count {
		return fmt.Errorf("%w: item %d have %d need %d", core.ErrInsufficientMaterial, id, have, count)
	}
	if have == count {
		delete(inv.Materials, id)
	} else {
		inv.Materials[id] = have - count
	}
	return nil
}

// AddEquipment stores e, keeping equipment ordered by item id.
func (inv *Inventory) AddEquipment(e Equipment) {
	inv.Equipments = append(inv.Equipments, e)
	sort.SliceStable(inv.Equipments, func(i, j int) bool { return inv.Equipments[i].ItemID < inv.Equipments[j].ItemID })
}

// StatModifier is a rolled additional stat.
type StatModifier struct {
	Type  string `cbor:"type" json:"type"`
	Value int    `cbor:"value" json:"value"`
}

// Skill is a rolled skill attached to equipment.
type Skill struct {
	ID     int `cbor:"id" json:"id"`
	Damage int `cbor:"damage" json:"damage"`
	Chance int `cbor:"chance" json:"chance"`
}

// Equipment is a crafted item instance.
type Equipment struct {
	ItemID             string         `cbor:"item_id" json:"item_id"`
	EquipmentID        int            `cbor:"equipment_id" json:"equipment_id"`
	Grade              int            `cbor:"grade" json:"grade"`
	ElementalType      string         `cbor:"elemental_type" json:"elemental_type"`
	BaseStat           StatModifier   `cbor:"base_stat" json:"base_stat"`
	Stats              []StatModifier `cbor:"stats,omitempty" json:"stats,omitempty"`
	Skills             []Skill        `cbor:"skills,omitempty" json:"skills,omitempty"`
	RequiredBlockIndex int64          `cbor:"required_block_index" json:"required_block_index"`
}
