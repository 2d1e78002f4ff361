package model

import (
	"slices"

	"github.com/tolelom/stakeledger/core"
)

// AgentState is the per-signer root record, stored at the signer address.
type AgentState struct {
	Address                core.Address         `cbor:"address" json:"address"`
	AvatarAddresses        map[int]core.Address `cbor:"avatar_addresses" json:"avatar_addresses"`
	MonsterCollectionRound int64                `cbor:"monster_collection_round" json:"monster_collection_round"`
	UnlockedOptions        []int                `cbor:"unlocked_options,omitempty" json:"unlocked_options,omitempty"`
}

// NewAgentState returns an agent with no avatars at round 0.
func NewAgentState(addr core.Address) *AgentState {
	return &AgentState{Address: addr, AvatarAddresses: map[int]core.Address{}}
}

// GetAgentState loads the agent stored at addr.
func GetAgentState(v core.View, addr core.Address) (*AgentState, error) {
	a, err := load[AgentState](v, addr, "agent")
	if err != nil {
		return nil, err
	}
	if a.AvatarAddresses == nil {
		a.AvatarAddresses = map[int]core.Address{}
	}
	return a, nil
}

// OwnsAvatar reports whether avatar belongs to the agent.
func (a *AgentState) OwnsAvatar(avatar core.Address) bool {
	for _, addr := range a.AvatarAddresses {
		if addr == avatar {
			return true
		}
	}
	return false
}

// UnlockOptions records option ids as discovered, keeping the set sorted.
func (a *AgentState) UnlockOptions(ids ...int) {
	for _, id := range ids {
		if i, found := slices.BinarySearch(a.UnlockedOptions, id); !found {
			a.UnlockedOptions = slices.Insert(a.UnlockedOptions, i, id)
		}
	}
}
