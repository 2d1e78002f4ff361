// Package node runs the commit pipeline: it assembles a block from
// transactions, executes it over the committed state, and persists the
// block and the resulting state together.
package node

import (
	"errors"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/tolelom/stakeledger/config"
	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/events"
	"github.com/tolelom/stakeledger/storage"
	"github.com/tolelom/stakeledger/vm"
)

var log = logging.Logger("node")

// ErrNoGenesis is returned by Produce before the genesis block exists.
var ErrNoGenesis = errors.New("chain has no genesis block")

// Producer appends blocks to a single local chain.
type Producer struct {
	mu      sync.Mutex
	bc      *core.Blockchain
	sdb     *storage.StateDB
	exec    *vm.Executor
	emitter *events.Emitter
	miner   core.Address
}

// NewProducer wires a producer. emitter may be nil.
func NewProducer(bc *core.Blockchain, sdb *storage.StateDB, exec *vm.Executor, emitter *events.Emitter, miner core.Address) *Producer {
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	return &Producer{bc: bc, sdb: sdb, exec: exec, emitter: emitter, miner: miner}
}

// InitGenesis writes the genesis state and block if the chain is empty
// and returns the genesis (or existing tip) block.
func (p *Producer) InitGenesis(cfg *config.Config) (*core.Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tip := p.bc.Tip(); tip != nil {
		return tip, nil
	}
	block, err := config.CreateGenesisBlock(cfg, p.sdb, p.miner)
	if err != nil {
		return nil, fmt.Errorf("create genesis: %w", err)
	}
	if err := p.bc.AddBlock(block); err != nil {
		return nil, fmt.Errorf("add genesis block: %w", err)
	}
	log.Infow("genesis committed", "hash", block.Hash, "state_root", block.Header.StateRoot)
	p.emitCommit(block)
	return block, nil
}

// Produce builds the block after the tip from txs, executes it and
// commits it. Failed transactions stay in the block but none of their
// writes are applied; their outcome is reported in the results.
func (p *Producer) Produce(timestamp int64, txs []*core.Transaction) (*core.Block, []*vm.TxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	index, prevHash := p.bc.Next(config.GenesisHash)
	if index == 0 {
		return nil, nil, ErrNoGenesis
	}
	block := core.NewBlock(index, prevHash, p.miner, timestamp, txs)

	delta, results := p.exec.ExecuteBlock(p.sdb, block)

	// Compute the root before persisting anything so a failed AddBlock
	// leaves both block store and state untouched.
	block.Header.StateRoot = p.sdb.ComputeRoot(delta)
	block.Seal()

	if err := p.bc.AddBlock(block); err != nil {
		return nil, nil, fmt.Errorf("add block: %w", err)
	}
	if err := p.sdb.Commit(delta); err != nil {
		log.Errorw("block stored but state commit failed", "block", block.Header.Index, "err", err)
		return nil, nil, fmt.Errorf("commit state of block %d: %w", block.Header.Index, err)
	}

	p.emitResults(block, results)
	p.emitCommit(block)
	log.Infow("block committed", "index", block.Header.Index, "hash", block.Hash, "txs", len(txs))
	return block, results, nil
}

func (p *Producer) emitResults(block *core.Block, results []*vm.TxResult) {
	for i, res := range results {
		tx := block.Transactions[i]
		if res.Err != nil {
			typ := ""
			if res.FailedAction >= 0 {
				typ = string(tx.Actions[res.FailedAction].Type)
			}
			p.emitter.Emit(events.Event{
				Type:       events.EventTxFailed,
				TxID:       res.TxID,
				BlockIndex: block.Header.Index,
				Data: map[string]any{
					"action_index": res.FailedAction,
					"type":         typ,
					"signer":       res.Signer.Hex(),
					"error":        res.Err.Error(),
				},
			})
			continue
		}
		for _, ar := range res.Actions {
			touched := make([]string, len(ar.Updated))
			for j, addr := range ar.Updated {
				touched[j] = addr.Hex()
			}
			p.emitter.Emit(events.Event{
				Type:       events.EventActionExecuted,
				TxID:       res.TxID,
				BlockIndex: block.Header.Index,
				Data: map[string]any{
					"action_index": ar.Index,
					"type":         string(ar.Type),
					"signer":       res.Signer.Hex(),
					"touched":      touched,
				},
			})
		}
	}
}

func (p *Producer) emitCommit(block *core.Block) {
	p.emitter.Emit(events.Event{
		Type:       events.EventBlockCommit,
		BlockIndex: block.Header.Index,
		Data: map[string]any{
			"hash":       block.Hash,
			"state_root": block.Header.StateRoot,
			"txs":        len(block.Transactions),
		},
	})
}
