package wallet

import (
	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/crypto"
	"github.com/tolelom/stakeledger/vm"
)

// Wallet holds a key pair and builds transactions for its address.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key.
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// Address returns the ledger address of the key.
func (w *Wallet) Address() core.Address {
	return core.Address(w.pub.Address())
}

// NewTx encodes actions with the default registry into a transaction
// signed by the wallet's address.
func (w *Wallet) NewTx(nonce uint64, timestamp int64, actions ...vm.Action) (*core.Transaction, error) {
	reg := vm.DefaultRegistry()
	envs := make([]core.ActionEnvelope, 0, len(actions))
	for _, a := range actions {
		env, err := reg.Encode(a)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return core.NewTransaction(w.Address(), nonce, timestamp, envs...), nil
}
