// Package events is a synchronous pub/sub broker for ledger notifications.
package events

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("events")

// EventType labels what happened.
type EventType string

const (
	// EventBlockCommit fires once a block and its state are committed.
	EventBlockCommit EventType = "block_commit"
	// EventActionExecuted fires per action of every applied transaction.
	EventActionExecuted EventType = "action_executed"
	// EventTxFailed fires for a transaction skipped from its block.
	EventTxFailed EventType = "tx_failed"
)

// Event carries a typed payload emitted after a state change.
//
// Data keys by type:
//   - block_commit: "hash", "state_root", "txs" (int)
//   - action_executed: "action_index" (int), "type", "signer", "touched" ([]string)
//   - tx_failed: "action_index" (int), "type", "signer", "error"
type Event struct {
	Type       EventType      `json:"type"`
	TxID       string         `json:"tx_id"`
	BlockIndex int64          `json:"block_index"`
	Data       map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously.
// A panicking handler is logged and skipped; the remaining handlers still run.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorw("event handler panicked", "type", ev.Type, "block", ev.BlockIndex, "panic", r)
				}
			}()
			h(ev)
		}()
	}
}
