// Package wallet provides key management and transaction building helpers.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/crypto"
)

// KeystoreVersion is the keystore layout written by SaveKey and the only
// one LoadKey accepts.
const KeystoreVersion = 1

const (
	kdfPBKDF2SHA256   = "pbkdf2-sha256"
	defaultIterations = 210_000
)

var (
	ErrKeystoreVersion = errors.New("unsupported keystore version")
	ErrWrongPassword   = errors.New("wrong password or corrupted keystore")
)

type kdfParams struct {
	Name       string `json:"name"`
	Iterations int    `json:"iterations"`
	Salt       string `json:"salt"`
}

// keystoreFile is the on-disk form. The address is the ledger address of
// the key and is bound to the ciphertext as GCM additional data.
type keystoreFile struct {
	Version    int          `json:"version"`
	Address    core.Address `json:"address"`
	KDF        kdfParams    `json:"kdf"`
	Nonce      string       `json:"nonce"`
	CipherText string       `json:"cipher_text"`
}

// SaveKey encrypts priv with password and writes it to path.
func SaveKey(path, password string, priv crypto.PrivateKey) error {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	ks := keystoreFile{
		Version: KeystoreVersion,
		Address: core.Address(priv.Public().Address()),
		KDF:     kdfParams{Name: kdfPBKDF2SHA256, Iterations: defaultIterations, Salt: hex.EncodeToString(salt)},
	}
	gcm, err := ks.cipher(password)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	ks.Nonce = hex.EncodeToString(nonce)
	ks.CipherText = hex.EncodeToString(gcm.Seal(nil, nonce, priv, ks.Address.Bytes()))

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// KeystoreAddress returns the address recorded in the keystore at path
// without decrypting it.
func KeystoreAddress(path string) (core.Address, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return core.Address{}, err
	}
	return ks.Address, nil
}

// LoadKey decrypts the keystore at path using password.
func LoadKey(path, password string) (crypto.PrivateKey, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return nil, err
	}
	nonce, err := hex.DecodeString(ks.Nonce)
	if err != nil {
		return nil, fmt.Errorf("keystore nonce: %w", err)
	}
	cipherText, err := hex.DecodeString(ks.CipherText)
	if err != nil {
		return nil, fmt.Errorf("keystore cipher text: %w", err)
	}
	gcm, err := ks.cipher(password)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, ErrWrongPassword
	}
	privBytes, err := gcm.Open(nil, nonce, cipherText, ks.Address.Bytes())
	if err != nil {
		return nil, ErrWrongPassword
	}
	priv := crypto.PrivateKey(privBytes)
	if got := core.Address(priv.Public().Address()); got != ks.Address {
		return nil, fmt.Errorf("keystore address %s does not match key address %s", ks.Address, got)
	}
	return priv, nil
}

func readKeystore(path string) (*keystoreFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("keystore %s: %w", path, err)
	}
	if ks.Version != KeystoreVersion {
		return nil, fmt.Errorf("%w: %d", ErrKeystoreVersion, ks.Version)
	}
	return &ks, nil
}

func (ks *keystoreFile) cipher(password string) (cipher.AEAD, error) {
	if ks.KDF.Name != kdfPBKDF2SHA256 || ks.KDF.Iterations <= 0 {
		return nil, fmt.Errorf("keystore kdf %q with %d iterations", ks.KDF.Name, ks.KDF.Iterations)
	}
	salt, err := hex.DecodeString(ks.KDF.Salt)
	if err != nil {
		return nil, fmt.Errorf("keystore salt: %w", err)
	}
	block, err := aes.NewCipher(pbkdf2.Key([]byte(password), salt, ks.KDF.Iterations, 32, sha256.New))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
