// Package avatar implements avatar creation.
package avatar

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/model"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/vm"
)

const TypeCreateAvatar core.ActionType = "create-avatar"

var namePattern = regexp.MustCompile(`^[0-9a-zA-Z]{2,20}$`)

func init() {
	vm.Register(vm.Definition{
		Type:     TypeCreateAvatar,
		New:      func() vm.Action { return &CreateAvatar{} },
		Required: []string{"index", "name"},
	})
}

// CreateAvatar creates the signer's avatar at Index together with its
// combination slots. The agent record is created on first use.
type CreateAvatar struct {
	Index int    `cbor:"index" json:"index"`
	Name  string `cbor:"name" json:"name"`
	Hair  int    `cbor:"hair" json:"hair"`
	Lens  int    `cbor:"lens" json:"lens"`
	Ear   int    `cbor:"ear" json:"ear"`
	Tail  int    `cbor:"tail" json:"tail"`
}

func (a *CreateAvatar) Type() core.ActionType { return TypeCreateAvatar }

func (a *CreateAvatar) footprint(signer core.Address) vm.Footprint {
	avatar := model.AvatarAddress(signer, a.Index)
	states := []core.Address{signer, avatar}
	for i := 0; i < model.CombinationSlotCount; i++ {
		states = append(states, model.CombinationSlotAddress(avatar, i))
	}
	return vm.Footprint{States: states}
}

func (a *CreateAvatar) Execute(ctx *vm.Context) (*state.Delta, error) {
	if ctx.Rehearsal {
		return a.footprint(ctx.Signer).Rehearse(ctx.PreviousStates, ctx.RehearsalGold()), nil
	}
	states := ctx.PreviousStates

	if !namePattern.MatchString(a.Name) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidName, a.Name)
	}
	if a.Index < 0 || a.Index >= model.AvatarSlotCount {
		return nil, fmt.Errorf("%w: %d outside [0, %d)", core.ErrAvatarIndex, a.Index, model.AvatarSlotCount)
	}

	avatarAddr := model.AvatarAddress(ctx.Signer, a.Index)
	if _, err := model.GetAvatarState(states, avatarAddr); err == nil {
		return nil, fmt.Errorf("%w: avatar %s", core.ErrDuplicate, avatarAddr)
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	agent, err := model.GetAgentState(states, ctx.Signer)
	switch {
	case errors.Is(err, core.ErrNotFound):
		agent = model.NewAgentState(ctx.Signer)
	case err != nil:
		return nil, err
	}
	if _, used := agent.AvatarAddresses[a.Index]; used {
		return nil, fmt.Errorf("%w: index %d already used", core.ErrAvatarIndex, a.Index)
	}
	agent.AvatarAddresses[a.Index] = avatarAddr

	avatar := &model.AvatarState{
		Address:      avatarAddr,
		AgentAddress: ctx.Signer,
		Name:         a.Name,
		Index:        a.Index,
		Hair:         max(a.Hair, 0),
		Lens:         max(a.Lens, 0),
		Ear:          max(a.Ear, 0),
		Tail:         max(a.Tail, 0),
		ActionPoint:  model.DailyActionPoint,
		BlockIndex:   ctx.BlockIndex,
		Inventory:    model.Inventory{Materials: map[int]int{}},
	}

	if states, err = model.Put(states, ctx.Signer, agent); err != nil {
		return nil, err
	}
	if states, err = model.Put(states, avatarAddr, avatar); err != nil {
		return nil, err
	}
	for i := 0; i < model.CombinationSlotCount; i++ {
		slot := model.CombinationSlotAddress(avatarAddr, i)
		if states, err = model.Put(states, slot, model.NewCombinationSlotState(slot, i)); err != nil {
			return nil, err
		}
	}
	return states, nil
}
