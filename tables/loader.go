package tables

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTables []byte

// document is the on-disk layout: one list of rows per sheet.
type document struct {
	MonsterCollection       []MonsterCollectionRow       `yaml:"monster_collection"`
	MonsterCollectionReward []MonsterCollectionRewardRow `yaml:"monster_collection_reward"`
	MaterialItem            []MaterialItemRow            `yaml:"material_item"`
	EquipmentItem           []EquipmentItemRow           `yaml:"equipment_item"`
	Skill                   []SkillRow                   `yaml:"skill"`
	EquipmentItemRecipe     []EquipmentItemRecipeRow     `yaml:"equipment_item_recipe"`
	EquipmentItemSubRecipe  []EquipmentItemSubRecipeRow  `yaml:"equipment_item_sub_recipe"`
	EquipmentItemOption     []EquipmentItemOptionRow     `yaml:"equipment_item_option"`
}

// Default returns the tables bundled with the binary.
func Default() (*Set, error) {
	return Load(bytes.NewReader(defaultTables))
}

// LoadFile reads a YAML table file from path.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load tables %s: %w", path, err)
	}
	return s, nil
}

// Load decodes and validates a YAML table document. Every problem found is
// reported, not just the first.
func Load(r io.Reader) (*Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	var errs *multierror.Error
	collect := func(err error) {
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	mc := MonsterCollectionSheet{}
	for _, row := range doc.MonsterCollection {
		collect(put(mc, row.Level, row, mc.SheetName()))
	}
	mcr := MonsterCollectionRewardSheet{}
	for _, row := range doc.MonsterCollectionReward {
		row.Rewards = append([]RewardInfo(nil), row.Rewards...)
		sort.SliceStable(row.Rewards, func(i, j int) bool { return row.Rewards[i].ItemID < row.Rewards[j].ItemID })
		collect(put(mcr, row.Level, row, mcr.SheetName()))
	}
	materials := MaterialItemSheet{}
	for _, row := range doc.MaterialItem {
		collect(put(materials, row.ID, row, materials.SheetName()))
	}
	equipment := EquipmentItemSheet{}
	for _, row := range doc.EquipmentItem {
		collect(put(equipment, row.ID, row, equipment.SheetName()))
	}
	skills := SkillSheet{}
	for _, row := range doc.Skill {
		collect(put(skills, row.ID, row, skills.SheetName()))
	}
	recipes := EquipmentItemRecipeSheet{}
	for _, row := range doc.EquipmentItemRecipe {
		collect(put(recipes, row.ID, row, recipes.SheetName()))
	}
	subRecipes := EquipmentItemSubRecipeSheet{}
	for _, row := range doc.EquipmentItemSubRecipe {
		collect(put(subRecipes, row.ID, row, subRecipes.SheetName()))
	}
	options := EquipmentItemOptionSheet{}
	for _, row := range doc.EquipmentItemOption {
		collect(put(options, row.ID, row, options.SheetName()))
	}

	set := NewSet(mc, mcr, materials, equipment, skills, recipes, subRecipes, options)
	collect(Validate(set))
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return set, nil
}

func put[R any](rows map[int]R, id int, row R, sheet string) error {
	if _, dup := rows[id]; dup {
		return fmt.Errorf("%s: duplicate id %d", sheet, id)
	}
	rows[id] = row
	return nil
}

// Validate checks cross-sheet references and value ranges of a Set. Sheets
// missing from s are treated as empty.
func Validate(s *Set) error {
	mc, _ := Get[MonsterCollectionSheet](s)
	mcr, _ := Get[MonsterCollectionRewardSheet](s)
	materials, _ := Get[MaterialItemSheet](s)
	equipment, _ := Get[EquipmentItemSheet](s)
	skills, _ := Get[SkillSheet](s)
	recipes, _ := Get[EquipmentItemRecipeSheet](s)
	subRecipes, _ := Get[EquipmentItemSubRecipeSheet](s)
	options, _ := Get[EquipmentItemOptionSheet](s)

	var errs *multierror.Error
	fail := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	for _, lvl := range sortedIDs(mc) {
		if lvl < 1 {
			fail("monster_collection: level %d must be >= 1", lvl)
		}
		if _, ok := mcr[lvl]; !ok {
			fail("monster_collection: level %d has no reward row", lvl)
		}
	}
	for _, lvl := range sortedIDs(mcr) {
		for _, r := range mcr[lvl].Rewards {
			if r.Quantity <= 0 {
				fail("monster_collection_reward: level %d item %d quantity must be > 0", lvl, r.ItemID)
			}
		}
	}
	for _, id := range sortedIDs(recipes) {
		r := recipes[id]
		if _, ok := equipment[r.ResultEquipmentID]; !ok {
			fail("equipment_item_recipe %d: unknown equipment %d", id, r.ResultEquipmentID)
		}
		if _, ok := materials[r.MaterialID]; !ok {
			fail("equipment_item_recipe %d: unknown material %d", id, r.MaterialID)
		}
		if r.MaterialCount <= 0 {
			fail("equipment_item_recipe %d: material_count must be > 0", id)
		}
		for _, sub := range r.SubRecipeIDs {
			if _, ok := subRecipes[sub]; !ok {
				fail("equipment_item_recipe %d: unknown sub recipe %d", id, sub)
			}
		}
	}
	for _, id := range sortedIDs(subRecipes) {
		r := subRecipes[id]
		for _, m := range r.Materials {
			if _, ok := materials[m.ID]; !ok {
				fail("equipment_item_sub_recipe %d: unknown material %d", id, m.ID)
			}
		}
		for _, o := range r.Options {
			if _, ok := options[o.ID]; !ok {
				fail("equipment_item_sub_recipe %d: unknown option %d", id, o.ID)
			}
			if o.Ratio < 0 {
				fail("equipment_item_sub_recipe %d: option %d ratio must be >= 0", id, o.ID)
			}
		}
		if r.MaxOptionLimit < 0 {
			fail("equipment_item_sub_recipe %d: max_option_limit must be >= 0", id)
		}
	}
	for _, id := range sortedIDs(options) {
		o := options[id]
		if o.IsStat() {
			if o.StatMin > o.StatMax {
				fail("equipment_item_option %d: stat_min > stat_max", id)
			}
			continue
		}
		if _, ok := skills[o.SkillID]; !ok {
			fail("equipment_item_option %d: unknown skill %d", id, o.SkillID)
		}
		if o.SkillDamageMin > o.SkillDamageMax || o.SkillChanceMin > o.SkillChanceMax {
			fail("equipment_item_option %d: skill roll range is inverted", id)
		}
	}
	return errs.ErrorOrNil()
}
