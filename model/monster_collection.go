package model

import (
	"fmt"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/tables"
)

const (
	// RewardInterval is the number of blocks between reward tiers.
	RewardInterval int64 = 40000
	// RewardCapacity is the number of reward tiers of a commitment.
	RewardCapacity = 4
	// ExpirationWindow is how long a commitment accepts raises.
	ExpirationWindow = RewardInterval * RewardCapacity
)

// ClaimResult records one claimed reward tier.
type ClaimResult struct {
	ID            string              `cbor:"id" json:"id"`
	AvatarAddress core.Address        `cbor:"avatar_address" json:"avatar_address"`
	Rewards       []tables.RewardInfo `cbor:"rewards" json:"rewards"`
}

// MonsterCollectionState is a staking commitment of one agent for one
// round, stored at MonsterCollectionAddress(agent, round).
//
// Level only grows while the commitment is active (cancel resets it).
// RewardLevelMap entries for tiers up to RewardLevel are never rewritten,
// and End is set once the last tier is claimed.
type MonsterCollectionState struct {
	Address            core.Address                `cbor:"address" json:"address"`
	Level              int                         `cbor:"level" json:"level"`
	StartedBlockIndex  int64                       `cbor:"started_block_index" json:"started_block_index"`
	ExpiredBlockIndex  int64                       `cbor:"expired_block_index" json:"expired_block_index"`
	ReceivedBlockIndex int64                       `cbor:"received_block_index" json:"received_block_index"`
	RewardLevel        int                         `cbor:"reward_level" json:"reward_level"`
	RewardLevelMap     map[int][]tables.RewardInfo `cbor:"reward_level_map" json:"reward_level_map"`
	RewardMap          map[int]ClaimResult         `cbor:"reward_map" json:"reward_map"`
	End                bool                        `cbor:"end" json:"end"`
}

// NewMonsterCollectionState opens a commitment at level starting at
// blockIndex, filling every tier with the level's rewards.
func NewMonsterCollectionState(addr core.Address, level int, blockIndex int64, rewards tables.MonsterCollectionRewardSheet) (*MonsterCollectionState, error) {
	s := &MonsterCollectionState{
		Address:           addr,
		StartedBlockIndex: blockIndex,
		ExpiredBlockIndex: blockIndex + ExpirationWindow,
		RewardLevelMap:    map[int][]tables.RewardInfo{},
		RewardMap:         map[int]ClaimResult{},
	}
	if err := s.Update(level, 0, rewards); err != nil {
		return nil, err
	}
	return s, nil
}

// GetMonsterCollectionState loads the commitment stored at addr.
func GetMonsterCollectionState(v core.View, addr core.Address) (*MonsterCollectionState, error) {
	s, err := load[MonsterCollectionState](v, addr, "monster collection")
	if err != nil {
		return nil, err
	}
	if s.RewardLevelMap == nil {
		s.RewardLevelMap = map[int][]tables.RewardInfo{}
	}
	if s.RewardMap == nil {
		s.RewardMap = map[int]ClaimResult{}
	}
	return s, nil
}

// RewardTier returns the number of whole reward intervals elapsed between
// started and blockIndex, saturating at RewardCapacity.
func RewardTier(started, blockIndex int64) int {
	elapsed := max(0, blockIndex-started)
	return int(min(int64(RewardCapacity), elapsed/RewardInterval))
}

// GetRewardLevel returns the highest tier reachable at blockIndex.
func (s *MonsterCollectionState) GetRewardLevel(blockIndex int64) int {
	return RewardTier(s.StartedBlockIndex, blockIndex)
}

// Update sets the level and refreshes the reward lists of every tier after
// rewardLevel with the level's rewards.
func (s *MonsterCollectionState) Update(level, rewardLevel int, rewards tables.MonsterCollectionRewardSheet) error {
	row, err := rewards.Row(level)
	if err != nil {
		return err
	}
	s.Level = level
	for tier := max(rewardLevel, s.RewardLevel) + 1; tier <= RewardCapacity; tier++ {
		s.RewardLevelMap[tier] = append([]tables.RewardInfo(nil), row.Rewards...)
	}
	return nil
}

// UpdateRewardMap records the claim of tier at blockIndex.
func (s *MonsterCollectionState) UpdateRewardMap(tier int, result ClaimResult, blockIndex int64) error {
	if tier < 0 || tier > RewardCapacity {
		return fmt.Errorf("reward tier %d out of range [0, %d]", tier, RewardCapacity)
	}
	if _, ok := s.RewardMap[tier]; ok {
		return fmt.Errorf("%w: tier %d of %s", core.ErrAlreadyReceived, tier, s.Address)
	}
	s.RewardMap[tier] = result
	s.RewardLevel = tier
	s.ReceivedBlockIndex = blockIndex
	s.End = tier == RewardCapacity
	return nil
}
