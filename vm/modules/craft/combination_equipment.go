// Package craft implements equipment crafting from recipes.
package craft

import (
	"fmt"
	"slices"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
	"github.com/tolelom/stakeledger/vm"
)

const TypeCombinationEquipment core.ActionType = "combination-equipment"

func init() {
	vm.Register(vm.Definition{
		Type:     TypeCombinationEquipment,
		New:      func() vm.Action { return &CombinationEquipment{} },
		Required: []string{"avatar_address", "recipe_id", "slot_index"},
	})
}

// CombinationEquipment crafts the recipe's equipment into one of the
// avatar's combination slots. With a sub-recipe it costs more and rolls
// random options onto the item.
type CombinationEquipment struct {
	AvatarAddress core.Address `cbor:"avatar_address" json:"avatar_address"`
	RecipeID      int          `cbor:"recipe_id" json:"recipe_id"`
	SlotIndex     int          `cbor:"slot_index" json:"slot_index"`
	SubRecipeID   *int         `cbor:"sub_recipe_id,omitempty" json:"sub_recipe_id,omitempty"`
}

func (a *CombinationEquipment) Type() core.ActionType { return TypeCombinationEquipment }

func (a *CombinationEquipment) slotAddress() core.Address {
	return model.CombinationSlotAddress(a.AvatarAddress, a.SlotIndex)
}

func (a *CombinationEquipment) footprint(signer core.Address) vm.Footprint {
	return vm.Footprint{
		States:   []core.Address{a.AvatarAddress, a.slotAddress(), signer},
		Balances: []core.Address{signer, model.BlacksmithAddress},
	}
}

func (a *CombinationEquipment) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		return a.footprint(ctx.Signer).Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	states := ctx.PreviousStates

	agent, err := model.GetAgentState(states, ctx.Signer)
	if err != nil {
		return nil, err
	}
	if !agent.OwnsAvatar(a.AvatarAddress) {
		return nil, fmt.Errorf("%w: avatar %s of agent %s", core.ErrNotFound, a.AvatarAddress, ctx.Signer)
	}
	avatar, err := model.GetAvatarState(states, a.AvatarAddress)
	if err != nil {
		return nil, err
	}

	slotAddr := a.slotAddress()
	slot, err := model.GetCombinationSlotState(states, slotAddr)
	if err != nil {
		return nil, err
	}
	if err := slot.Validate(ctx.BlockIndex); err != nil {
		return nil, err
	}

	sheets, err := loadSheets(ctx.Tables)
	if err != nil {
		return nil, err
	}
	recipe, err := sheets.recipes.Row(a.RecipeID)
	if err != nil {
		return nil, err
	}
	if a.SubRecipeID != nil && !recipe.HasSubRecipe(*a.SubRecipeID) {
		return nil, fmt.Errorf("%w: sub-recipe %d is not part of recipe %d", core.ErrInvalidRecipe, *a.SubRecipeID, a.RecipeID)
	}

	consumed := map[int]int{}
	if _, err := sheets.materials.Row(recipe.MaterialID); err != nil {
		return nil, err
	}
	if err := avatar.Inventory.RemoveMaterial(recipe.MaterialID, recipe.MaterialCount); err != nil {
		return nil, err
	}
	consumed[recipe.MaterialID] += recipe.MaterialCount

	row, err := sheets.equipments.Row(recipe.ResultEquipmentID)
	if err != nil {
		return nil, err
	}
	equipment := model.Equipment{
		ItemID:        ctx.Random.UUID(),
		EquipmentID:   row.ID,
		Grade:         row.Grade,
		ElementalType: row.ElementalType,
		BaseStat:      model.StatModifier{Type: row.Stat.Type, Value: row.Stat.Value},
	}

	actionPoint := recipe.RequiredActionPoint
	gold := recipe.RequiredGold
	requiredBlocks := recipe.RequiredBlockIndex
	var optionIDs []int

	if a.SubRecipeID != nil {
		sub, err := sheets.subRecipes.Row(*a.SubRecipeID)
		if err != nil {
			return nil, err
		}
		actionPoint += sub.RequiredActionPoint
		gold += sub.RequiredGold
		requiredBlocks += sub.RequiredBlockIndex
		for _, m := range sub.Materials {
			if _, err := sheets.materials.Row(m.ID); err != nil {
				return nil, err
			}
			if err := avatar.Inventory.RemoveMaterial(m.ID, m.Count); err != nil {
				return nil, err
			}
			consumed[m.ID] += m.Count
		}
		optionIDs, err = applyOptions(ctx.Random, &equipment, sub, sheets.options)
		if err != nil {
			return nil, err
		}
	}
	equipment.RequiredBlockIndex = ctx.BlockIndex + requiredBlocks

	currency, err := ctx.GoldCurrency()
	if err != nil {
		return nil, err
	}
	cost := currency.Units(gold)
	balance, err := states.GetBalance(ctx.Signer, currency)
	if err != nil {
		return nil, err
	}
	if balance.Lt(cost) {
		return nil, fmt.Errorf("%w: need %s %s, have %s", core.ErrInsufficientBalance, cost.Dec(), currency.Ticker, balance.Dec())
	}
	if avatar.ActionPoint < actionPoint {
		return nil, fmt.Errorf("%w: need %d, have %d", core.ErrNotEnoughActionPoint, actionPoint, avatar.ActionPoint)
	}

	avatar.ActionPoint -= actionPoint
	agent.UnlockOptions(optionIDs...)
	if states, err = states.TransferAsset(ctx.Signer, model.BlacksmithAddress, currency, cost); err != nil {
		return nil, err
	}

	slot.Update(&model.CombinationResult{
		Equipment:   equipment,
		RecipeID:    a.RecipeID,
		SubRecipeID: a.SubRecipeID,
		Materials:   consumed,
		Gold:        gold,
		ActionPoint: actionPoint,
		OptionIDs:   optionIDs,
	}, ctx.BlockIndex, equipment.RequiredBlockIndex)
	avatar.Inventory.AddEquipment(equipment)
	avatar.BlockIndex = ctx.BlockIndex

	if states, err = model.Put(states, a.AvatarAddress, avatar); err != nil {
		return nil, err
	}
	if states, err = model.Put(states, slotAddr, slot); err != nil {
		return nil, err
	}
	return model.Put(states, ctx.Signer, agent)
}

type sheets struct {
	recipes    tables.EquipmentItemRecipeSheet
	subRecipes tables.EquipmentItemSubRecipeSheet
	materials  tables.MaterialItemSheet
	equipments tables.EquipmentItemSheet
	options    tables.EquipmentItemOptionSheet
}

func loadSheets(set *tables.Set) (*sheets, error) {
	var (
		s   sheets
		err error
	)
	if s.recipes, err = tables.Get[tables.EquipmentItemRecipeSheet](set); err != nil {
		return nil, err
	}
	if s.subRecipes, err = tables.Get[tables.EquipmentItemSubRecipeSheet](set); err != nil {
		return nil, err
	}
	if s.materials, err = tables.Get[tables.MaterialItemSheet](set); err != nil {
		return nil, err
	}
	if s.equipments, err = tables.Get[tables.EquipmentItemSheet](set); err != nil {
		return nil, err
	}
	if s.options, err = tables.Get[tables.EquipmentItemOptionSheet](set); err != nil {
		return nil, err
	}
	return &s, nil
}

// SelectOptions draws up to limit option ids by weight, without
// replacement. Candidates are considered in id order so the draw depends
// only on the random source. The result is sorted.
func SelectOptions(rnd *vm.Random, candidates []tables.OptionInfo, limit int) []int {
	pool := slices.Clone(candidates)
	slices.SortFunc(pool, func(x, y tables.OptionInfo) int { return x.ID - y.ID })

	var picked []int
	for len(picked) < limit && len(pool) > 0 {
		total := 0
		for _, o := range pool {
			total += max(o.Ratio, 0)
		}
		if total == 0 {
			break
		}
		roll := rnd.Next(0, total)
		for i, o := range pool {
			w := max(o.Ratio, 0)
			if roll < w {
				picked = append(picked, o.ID)
				pool = slices.Delete(pool, i, i+1)
				break
			}
			roll -= w
		}
	}
	slices.Sort(picked)
	return picked
}

// applyOptions selects the sub-recipe's options and rolls each onto e in
// id order.
func applyOptions(rnd *vm.Random, e *model.Equipment, sub tables.EquipmentItemSubRecipeRow, options tables.EquipmentItemOptionSheet) ([]int, error) {
	ids := SelectOptions(rnd, sub.Options, sub.MaxOptionLimit)
	for _, id := range ids {
		opt, err := options.Row(id)
		if err != nil {
			return nil, err
		}
		if opt.IsStat() {
			e.Stats = append(e.Stats, model.StatModifier{
				Type:  opt.StatType,
				Value: rnd.Next(opt.StatMin, opt.StatMax+1),
			})
			continue
		}
		damage := rnd.Next(opt.SkillDamageMin, opt.SkillDamageMax+1)
		chance := rnd.Next(opt.SkillChanceMin, opt.SkillChanceMax+1)
		e.Skills = append(e.Skills, model.Skill{ID: opt.SkillID, Damage: damage, Chance: chance})
	}
	return ids, nil
}
