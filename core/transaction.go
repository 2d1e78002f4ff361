package core

import (
	cbor "github.com/fxamacker/cbor/v2"

	"github.com/tolelom/stakeledger/codec"
	"github.com/tolelom/stakeledger/crypto"
)

// ActionType is the stable string tag of an action family.
type ActionType string

// ActionEnvelope carries one encoded action inside a transaction.
type ActionEnvelope struct {
	Type   ActionType      `cbor:"type" json:"type"`
	Params cbor.RawMessage `cbor:"params" json:"params"`
}

// Transaction is an ordered list of actions submitted by one signer.
// Signature checks happen before a transaction reaches the ledger, so only
// the signer identity is carried here.
type Transaction struct {
	ID        string           `cbor:"id" json:"id"`
	Signer    Address          `cbor:"signer" json:"signer"`
	Nonce     uint64           `cbor:"nonce" json:"nonce"`
	Timestamp int64            `cbor:"timestamp" json:"timestamp"`
	Actions   []ActionEnvelope `cbor:"actions" json:"actions"`
}

type txBody struct {
	Signer    Address          `cbor:"signer"`
	Nonce     uint64           `cbor:"nonce"`
	Timestamp int64            `cbor:"timestamp"`
	Actions   []ActionEnvelope `cbor:"actions"`
}

// Hash returns a deterministic hash of the transaction body (sans ID).
// Returns an empty string if encoding fails (which cannot happen in practice).
func (tx *Transaction) Hash() string {
	data, err := codec.Marshal(txBody{
		Signer:    tx.Signer,
		Nonce:     tx.Nonce,
		Timestamp: tx.Timestamp,
		Actions:   tx.Actions,
	})
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// NewTransaction builds a transaction and sets its ID.
func NewTransaction(signer Address, nonce uint64, timestamp int64, actions ...ActionEnvelope) *Transaction {
	tx := &Transaction{
		Signer:    signer,
		Nonce:     nonce,
		Timestamp: timestamp,
		Actions:   actions,
	}
	tx.ID = tx.Hash()
	return tx
}
