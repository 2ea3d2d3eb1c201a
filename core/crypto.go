package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	PrivKeyFile = "node_ed25519.priv"
	PubKeyFile  = "node_ed25519.pub"
)

// GenerateAndSaveKeypair generates an Ed25519 keypair and saves it to
// disk as hex, reusing an existing pair if one is present.
func GenerateAndSaveKeypair(dir string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	privPath := filepath.Join(dir, PrivKeyFile)
	pubPath := filepath.Join(dir, PubKeyFile)
	if _, err := os.Stat(privPath); err == nil {
		return LoadKeypair(dir)
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating node keypair")
	}
	if err := os.WriteFile(privPath, []byte(hex.EncodeToString(priv)), 0600); err != nil {
		return nil, nil, errors.Wrap(err, "writing private key")
	}
	if err := os.WriteFile(pubPath, []byte(hex.EncodeToString(pub)), 0644); err != nil {
		return nil, nil, errors.Wrap(err, "writing public key")
	}
	return pub, priv, nil
}

// LoadKeypair loads the node's Ed25519 keypair from disk.
func LoadKeypair(dir string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	privHex, err := os.ReadFile(filepath.Join(dir, PrivKeyFile))
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading private key")
	}
	pubHex, err := os.ReadFile(filepath.Join(dir, PubKeyFile))
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading public key")
	}
	priv, err := hex.DecodeString(string(privHex))
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding private key")
	}
	pub, err := hex.DecodeString(string(pubHex))
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding public key")
	}
	return ed25519.PublicKey(pub), ed25519.PrivateKey(priv), nil
}
