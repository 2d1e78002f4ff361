package vm

import (
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/state"
	"github.com/tolelom/stakeledger/tables"
)

var log = logging.Logger("vm")

// ActionResult describes one successfully executed action.
type ActionResult struct {
	Index   int             `json:"index"`
	Type    core.ActionType `json:"type"`
	Updated []core.Address  `json:"updated"`
}

// TxResult is the outcome of one transaction. When Err is set, FailedAction
// holds the index of the failing action (or -1 if decoding failed) and none
// of the transaction's writes were kept.
type TxResult struct {
	TxID         string         `json:"tx_id"`
	Signer       core.Address   `json:"signer"`
	Actions      []ActionResult `json:"actions"`
	FailedAction int            `json:"failed_action"`
	Err          error          `json:"-"`
}

// Executor applies transactions to ledger views using a Registry.
type Executor struct {
	registry *Registry
	tables   *tables.Set
	metrics  *ExecutorMetrics

	rehearsalGold core.Currency
}

// NewExecutor creates an Executor. A nil registry selects the global one.
func NewExecutor(registry *Registry, tbl *tables.Set) *Executor {
	if registry == nil {
		registry = globalRegistry
	}
	return &Executor{registry: registry, tables: tbl, metrics: Metrics()}
}

// SetRehearsalCurrency makes Predict mark balances in c instead of
// GoldCurrencyMock. It should match the ledger's gold currency so predicted
// balance pairs equal the real ones.
func (e *Executor) SetRehearsalCurrency(c core.Currency) { e.rehearsalGold = c }

// Registry returns the registry the executor decodes with.
func (e *Executor) Registry() *Registry { return e.registry }

// ExecuteBlock applies all transactions in block sequentially on top of
// base. A failing transaction is discarded and the block continues; its
// failure is reported in the returned results.
func (e *Executor) ExecuteBlock(base core.View, block *core.Block) (*state.Delta, []*TxResult) {
	acc := state.New(base)
	results := make([]*TxResult, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		next, res, err := e.ExecuteTx(acc, block.Header, tx)
		results = append(results, res)
		if err != nil {
			log.Warnw("transaction discarded", "tx", tx.ID, "block", block.Header.Index,
				"action", res.FailedAction, "err", err)
			continue
		}
		acc = next
	}
	return acc, results
}

// ExecuteTx runs the actions of tx in order. Each action sees the writes of
// the actions before it. Any failure discards the whole transaction: the
// returned view is nil and prev is left as it was.
func (e *Executor) ExecuteTx(prev *state.Delta, header core.BlockHeader, tx *core.Transaction) (*state.Delta, *TxResult, error) {
	res := &TxResult{TxID: tx.ID, Signer: tx.Signer, FailedAction: -1}
	actions, err := e.decodeAll(tx)
	if err != nil {
		res.Err = err
		return nil, res, err
	}

	acc := prev
	for i, a := range actions {
		ctx := &Context{
			PreviousStates: state.New(acc),
			Signer:         tx.Signer,
			TxID:           tx.ID,
			BlockIndex:     header.Index,
			Miner:          header.Miner,
			Random:         NewRandom(SeedFor(tx.ID, i)),
			Tables:         e.tables,
		}
		start := time.Now()
		out, err := a.Execute(ctx)
		e.metrics.ObserveAction(string(a.Type()), err, time.Since(start))
		if err != nil {
			res.FailedAction = i
			res.Err = fmt.Errorf("action %d (%s): %w", i, a.Type(), err)
			return nil, res, res.Err
		}
		res.Actions = append(res.Actions, ActionResult{Index: i, Type: a.Type(), Updated: out.UpdatedAddresses()})
		acc = acc.Merge(out)
		log.Debugw("action executed", "tx", tx.ID, "index", i, "type", a.Type())
	}
	return acc, res, nil
}

// Predict rehearses every action of tx and returns the union of the
// addresses they would write. It never reads ledger content.
func (e *Executor) Predict(tx *core.Transaction) (Prediction, error) {
	actions, err := e.decodeAll(tx)
	if err != nil {
		return Prediction{}, err
	}
	seen := map[core.Address]struct{}{}
	for i, a := range actions {
		ctx := &Context{
			PreviousStates: state.New(state.Empty{}),
			Signer:         tx.Signer,
			TxID:           tx.ID,
			Random:         NewRandom(SeedFor(tx.ID, i)),
			Rehearsal:      true,
			Tables:         e.tables,

			RehearsalCurrency: e.rehearsalGold,
		}
		out, err := a.Execute(ctx)
		if err != nil {
			// Rehearsal is total; an error here is a bug in the action.
			return Prediction{}, fmt.Errorf("rehearse action %d (%s): %w", i, a.Type(), err)
		}
		e.metrics.ObserveRehearsal(string(a.Type()))
		for _, addr := range out.UpdatedAddresses() {
			seen[addr] = struct{}{}
		}
	}
	p := Prediction{TxID: tx.ID, Addresses: make([]core.Address, 0, len(seen))}
	for addr := range seen {
		p.Addresses = append(p.Addresses, addr)
	}
	state.SortAddresses(p.Addresses)
	return p, nil
}

func (e *Executor) decodeAll(tx *core.Transaction) ([]Action, error) {
	actions := make([]Action, 0, len(tx.Actions))
	for i, env := range tx.Actions {
		a, err := e.registry.Decode(env)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
