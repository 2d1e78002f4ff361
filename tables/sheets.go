package tables

// RewardInfo is one item grant of a staking reward tier.
type RewardInfo struct {
	ItemID   int `yaml:"item_id" cbor:"item_id" json:"item_id"`
	Quantity int `yaml:"quantity" cbor:"quantity" json:"quantity"`
}

// ---- staking ----

// MonsterCollectionRow is the cumulative-cost step of one staking level.
type MonsterCollectionRow struct {
	Level        int    `yaml:"level"`
	RequiredGold uint64 `yaml:"required_gold"` // whole units
}

// MonsterCollectionSheet maps level to its cost row.
type MonsterCollectionSheet map[int]MonsterCollectionRow

func (MonsterCollectionSheet) SheetName() string { return "monster_collection" }

func (s MonsterCollectionSheet) Row(level int) (MonsterCollectionRow, error) {
	return lookup(s.SheetName(), s, level)
}

// MaxLevel returns the highest defined level, or 0 for an empty sheet.
func (s MonsterCollectionSheet) MaxLevel() int {
	top := 0
	for lvl := range s {
		top = max(top, lvl)
	}
	return top
}

// MonsterCollectionRewardRow lists the rewards granted per tier at a level.
type MonsterCollectionRewardRow struct {
	Level   int          `yaml:"level"`
	Rewards []RewardInfo `yaml:"rewards"`
}

// MonsterCollectionRewardSheet maps level to its reward row.
type MonsterCollectionRewardSheet map[int]MonsterCollectionRewardRow

func (MonsterCollectionRewardSheet) SheetName() string { return "monster_collection_reward" }

func (s MonsterCollectionRewardSheet) Row(level int) (MonsterCollectionRewardRow, error) {
	return lookup(s.SheetName(), s, level)
}

// ---- items ----

// MaterialItemRow defines a stackable crafting material.
type MaterialItemRow struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Grade int    `yaml:"grade"`
}

type MaterialItemSheet map[int]MaterialItemRow

func (MaterialItemSheet) SheetName() string { return "material_item" }

func (s MaterialItemSheet) Row(id int) (MaterialItemRow, error) {
	return lookup(s.SheetName(), s, id)
}

// StatValue is a base stat carried by an equipment definition.
type StatValue struct {
	Type  string `yaml:"type"`
	Value int    `yaml:"value"`
}

// EquipmentItemRow defines a craftable equipment item.
type EquipmentItemRow struct {
	ID            int       `yaml:"id"`
	Name          string    `yaml:"name"`
	Grade         int       `yaml:"grade"`
	ItemSubType   string    `yaml:"item_sub_type"`
	ElementalType string    `yaml:"elemental_type"`
	Stat          StatValue `yaml:"stat"`
}

type EquipmentItemSheet map[int]EquipmentItemRow

func (EquipmentItemSheet) SheetName() string { return "equipment_item" }

func (s EquipmentItemSheet) Row(id int) (EquipmentItemRow, error) {
	return lookup(s.SheetName(), s, id)
}

// SkillRow defines a skill that crafting options may attach.
type SkillRow struct {
	ID            int    `yaml:"id"`
	Name          string `yaml:"name"`
	ElementalType string `yaml:"elemental_type"`
	SkillType     string `yaml:"skill_type"`
	Cooldown      int    `yaml:"cooldown"`
}

type SkillSheet map[int]SkillRow

func (SkillSheet) SheetName() string { return "skill" }

func (s SkillSheet) Row(id int) (SkillRow, error) {
	return lookup(s.SheetName(), s, id)
}

// ---- crafting ----

// MaterialInfo is a material requirement of a sub-recipe.
type MaterialInfo struct {
	ID    int `yaml:"id"`
	Count int `yaml:"count"`
}

// OptionInfo is a candidate option with its selection weight.
type OptionInfo struct {
	ID    int `yaml:"id"`
	Ratio int `yaml:"ratio"`
}

// EquipmentItemRecipeRow is the base recipe producing one equipment item.
type EquipmentItemRecipeRow struct {
	ID                  int    `yaml:"id"`
	ResultEquipmentID   int    `yaml:"result_equipment_id"`
	MaterialID          int    `yaml:"material_id"`
	MaterialCount       int    `yaml:"material_count"`
	RequiredActionPoint int    `yaml:"required_action_point"`
	RequiredGold        uint64 `yaml:"required_gold"`
	RequiredBlockIndex  int64  `yaml:"required_block_index"`
	SubRecipeIDs        []int  `yaml:"sub_recipe_ids"`
}

type EquipmentItemRecipeSheet map[int]EquipmentItemRecipeRow

func (EquipmentItemRecipeSheet) SheetName() string { return "equipment_item_recipe" }

func (s EquipmentItemRecipeSheet) Row(id int) (EquipmentItemRecipeRow, error) {
	return lookup(s.SheetName(), s, id)
}

// HasSubRecipe reports whether subID is one of the recipe's sub-recipes.
func (r EquipmentItemRecipeRow) HasSubRecipe(subID int) bool {
	for _, id := range r.SubRecipeIDs {
		if id == subID {
			return true
		}
	}
	return false
}

// EquipmentItemSubRecipeRow adds costs, materials and random options on top
// of a base recipe.
type EquipmentItemSubRecipeRow struct {
	ID                  int            `yaml:"id"`
	RequiredActionPoint int            `yaml:"required_action_point"`
	RequiredGold        uint64         `yaml:"required_gold"`
	RequiredBlockIndex  int64          `yaml:"required_block_index"`
	Materials           []MaterialInfo `yaml:"materials"`
	Options             []OptionInfo   `yaml:"options"`
	MaxOptionLimit      int            `yaml:"max_option_limit"`
}

type EquipmentItemSubRecipeSheet map[int]EquipmentItemSubRecipeRow

func (EquipmentItemSubRecipeSheet) SheetName() string { return "equipment_item_sub_recipe" }

func (s EquipmentItemSubRecipeSheet) Row(id int) (EquipmentItemSubRecipeRow, error) {
	return lookup(s.SheetName(), s, id)
}

// EquipmentItemOptionRow is either a stat option (StatType set) rolled in
// [StatMin, StatMax], or a skill option rolling damage and chance.
type EquipmentItemOptionRow struct {
	ID             int    `yaml:"id"`
	StatType       string `yaml:"stat_type"`
	StatMin        int    `yaml:"stat_min"`
	StatMax        int    `yaml:"stat_max"`
	SkillID        int    `yaml:"skill_id"`
	SkillDamageMin int    `yaml:"skill_damage_min"`
	SkillDamageMax int    `yaml:"skill_damage_max"`
	SkillChanceMin int    `yaml:"skill_chance_min"`
	SkillChanceMax int    `yaml:"skill_chance_max"`
}

// IsStat reports whether the option modifies a stat rather than adding a skill.
func (r EquipmentItemOptionRow) IsStat() bool { return r.StatType != "" }

type EquipmentItemOptionSheet map[int]EquipmentItemOptionRow

func (EquipmentItemOptionSheet) SheetName() string { return "equipment_item_option" }

func (s EquipmentItemOptionSheet) Row(id int) (EquipmentItemOptionRow, error) {
	return lookup(s.SheetName(), s, id)
}
