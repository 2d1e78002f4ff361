package core

import (
	"github.com/tolelom/stakeledger/codec"
	"github.com/tolelom/stakeledger/crypto"
)

// BlockHeader contains the block metadata that is hashed.
type BlockHeader struct {
	Index     int64   `cbor:"index" json:"index"`
	PrevHash  string  `cbor:"prev_hash" json:"prev_hash"`
	StateRoot string  `cbor:"state_root" json:"state_root"` // hash of state after executing this block
	TxRoot    string  `cbor:"tx_root" json:"tx_root"`       // hash of all transaction IDs
	Timestamp int64   `cbor:"timestamp" json:"timestamp"`
	Miner     Address `cbor:"miner" json:"miner"`
}

// Block is an ordered batch of transactions applied at one block index.
type Block struct {
	Header       BlockHeader    `cbor:"header" json:"header"`
	Transactions []*Transaction `cbor:"transactions" json:"transactions"`
	Hash         string         `cbor:"hash" json:"hash"`
}

// ComputeHash returns the SHA-256 hash of the encoded header.
// Returns an empty string if encoding fails (which cannot happen in practice).
func (b *Block) ComputeHash() string {
	data, err := codec.Marshal(b.Header)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Seal sets Hash from the current header. Call after StateRoot is final.
func (b *Block) Seal() {
	b.Hash = b.ComputeHash()
}

// ComputeTxRoot builds a deterministic root hash from all transaction IDs.
func ComputeTxRoot(txs []*Transaction) string {
	if len(txs) == 0 {
		return crypto.Hash([]byte("empty"))
	}
	var ids []byte
	for _, tx := range txs {
		ids = append(ids, []byte(tx.ID)...)
	}
	return crypto.Hash(ids)
}

// NewBlock creates an unsealed block with the given parameters.
func NewBlock(index int64, prevHash string, miner Address, timestamp int64, txs []*Transaction) *Block {
	return &Block{
		Header: BlockHeader{
			Index:     index,
			PrevHash:  prevHash,
			TxRoot:    ComputeTxRoot(txs),
			Timestamp: timestamp,
			Miner:     miner,
		},
		Transactions: txs,
	}
}
