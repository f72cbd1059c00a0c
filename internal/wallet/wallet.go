package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidAddress = errors.New("invalid solana address")
	ErrInvalidKeypair = errors.New("invalid solana keypair")
)

// ValidateAddress checks that address is a base58 encoded 32 byte public key
// (wallet, mint or token account).
func ValidateAddress(address string) error {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return errors.Wrap(ErrInvalidAddress, "address is empty")
	}
	if addr != address {
		return errors.Wrapf(ErrInvalidAddress, "%q has surrounding whitespace", address)
	}

	decoded, err := base58.Decode(addr)
	if err != nil {
		return errors.Wrapf(ErrInvalidAddress, "%q is not base58: %v", address, err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return errors.Wrapf(ErrInvalidAddress, "%q decodes to %d bytes, want %d", address, len(decoded), ed25519.PublicKeySize)
	}
	return nil
}

// LoadKeypair reads a solana-keygen keypair file ([u8;64] JSON array).
func LoadKeypair(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, errors.Wrapf(err, "read keypair %s", path)
	}

	keyBytes, err := DecodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, errors.Wrapf(err, "keypair %s", path)
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, errors.Wrapf(ErrInvalidKeypair, "keypair %s: %v", path, err)
	}
	return acc, nil
}

// DecodeKeypairJSON decodes the [int,int,...] format written by solana-keygen.
func DecodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, errors.Wrapf(ErrInvalidKeypair, "not a json int array: %v", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypair, "got %d bytes, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidKeypair, "byte out of range at %d: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}

// EncodeKeypairJSON is the inverse of DecodeKeypairJSON.
func EncodeKeypairJSON(key ed25519.PrivateKey) ([]byte, error) {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}
