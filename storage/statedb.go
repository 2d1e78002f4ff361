package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() and snapshot export always cover it.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

// statePrefixes is populated automatically by registerPrefix() below.
var statePrefixes []string

var (
	prefixState   = registerPrefix("state:")
	prefixBalance = registerPrefix("bal:")
)

func stateKey(addr core.Address) string { return prefixState + hex.EncodeToString(addr[:]) }

func balanceKey(addr core.Address, ticker string) string {
	return prefixBalance + hex.EncodeToString(addr[:]) + ":" + ticker
}

// StateDB is the committed ledger. It implements core.View for actions to
// read through, hashes pending change sets into a state root and persists
// them atomically.
type StateDB struct {
	mu sync.RWMutex
	db DB
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{db: db}
}

// GetState returns the committed record at addr.
func (s *StateDB) GetState(addr core.Address) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.db.Get([]byte(stateKey(addr)))
	if errors.Is(err, core.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read state %s: %w", addr, err)
	}
	return v, true, nil
}

// GetBalance returns the committed balance of addr in c.
func (s *StateDB) GetBalance(addr core.Address, c core.Currency) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.db.Get([]byte(balanceKey(addr, c.Ticker)))
	if errors.Is(err, core.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read balance %s/%s: %w", addr, c.Ticker, err)
	}
	return new(uint256.Int).SetBytes(v), nil
}

// pendingWrites flattens cs into raw key writes. A nil value is a delete;
// zero balances are not stored.
func pendingWrites(cs core.ChangeSet) map[string][]byte {
	writes := make(map[string][]byte)
	for _, e := range cs.StateEntries() {
		writes[stateKey(e.Address)] = e.Value
	}
	for _, e := range cs.BalanceEntries() {
		k := balanceKey(e.Address, e.Ticker)
		if e.Amount.IsZero() {
			writes[k] = nil
			continue
		}
		writes[k] = e.Amount.Bytes()
	}
	return writes
}

// ComputeRoot returns the deterministic hash of the committed state with
// pending applied on top. It does NOT write anything, so it is safe to call
// before the block is stored. pending may be nil.
func (s *StateDB) ComputeRoot(pending core.ChangeSet) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		it := s.db.NewIterator([]byte(prefix))
		for it.Next() {
			merged[string(it.Key())] = bytes.Clone(it.Value())
		}
		it.Release()
	}
	if pending != nil {
		for k, v := range pendingWrites(pending) {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Length-prefix encode each key-value pair and hash.
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
		buf.Write(lenBuf[:])
		buf.WriteString(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically writes cs to the underlying DB. Call ComputeRoot()
// first, then Commit() after the block is safely stored.
func (s *StateDB) Commit(cs core.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	for k, v := range pendingWrites(cs) {
		if v == nil {
			batch.Delete([]byte(k))
			continue
		}
		batch.Set([]byte(k), v)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}
