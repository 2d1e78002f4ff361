package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/vm"
	"github.com/tolelom/stakeledger/wallet"
)

// batchSchema describes a batch file: transactions signed by the CLI key,
// each an ordered list of typed actions.
const batchSchema = `{
	"type": "object",
	"required": ["transactions"],
	"additionalProperties": false,
	"properties": {
		"transactions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["nonce", "actions"],
				"additionalProperties": false,
				"properties": {
					"nonce": {"type": "integer", "minimum": 0},
					"actions": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["type", "params"],
							"additionalProperties": false,
							"properties": {
								"type": {"type": "string", "minLength": 1},
								"params": {"type": "object"}
							}
						}
					}
				}
			}
		}
	}
}`

var compiledBatchSchema = jsonschema.MustCompileString("https://stakeledger.local/batch.json", batchSchema)

type batchFile struct {
	Transactions []batchTx `json:"transactions"`
}

type batchTx struct {
	Nonce   uint64        `json:"nonce"`
	Actions []batchAction `json:"actions"`
}

type batchAction struct {
	Type   core.ActionType `json:"type"`
	Params json.RawMessage `json:"params"`
}

// parseBatch validates raw against the batch schema and decodes every
// action with reg.
func parseBatch(raw []byte, reg *vm.Registry) ([][]vm.Action, []uint64, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("batch: %w", err)
	}
	if err := compiledBatchSchema.Validate(doc); err != nil {
		return nil, nil, fmt.Errorf("batch: %w", err)
	}
	var bf batchFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, nil, fmt.Errorf("batch: %w", err)
	}

	actions := make([][]vm.Action, len(bf.Transactions))
	nonces := make([]uint64, len(bf.Transactions))
	for i, btx := range bf.Transactions {
		nonces[i] = btx.Nonce
		for j, ba := range btx.Actions {
			a, err := reg.DecodeJSON(ba.Type, ba.Params)
			if err != nil {
				return nil, nil, fmt.Errorf("batch tx %d action %d: %w", i, j, err)
			}
			actions[i] = append(actions[i], a)
		}
	}
	return actions, nonces, nil
}

// loadBatch reads the batch at path and turns it into transactions signed
// by w.
func loadBatch(path string, w *wallet.Wallet, timestamp int64) ([]*core.Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	actions, nonces, err := parseBatch(raw, vm.DefaultRegistry())
	if err != nil {
		return nil, err
	}
	txs := make([]*core.Transaction, len(actions))
	for i := range actions {
		if txs[i], err = w.NewTx(nonces[i], timestamp, actions[i]...); err != nil {
			return nil, err
		}
	}
	return txs, nil
}
