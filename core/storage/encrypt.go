package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"os"

	"github.com/pkg/errors"
)

// getDEK retrieves the data encryption key from the environment
// (base64-encoded, 32 bytes after decoding).
func getDEK() ([]byte, error) {
	dekB64 := os.Getenv("MEDLEDGER_DEK")
	if dekB64 == "" {
		return nil, errors.New("MEDLEDGER_DEK not set in environment")
	}
	dek, err := base64.StdEncoding.DecodeString(dekB64)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode MEDLEDGER_DEK")
	}
	if len(dek) != 32 {
		return nil, errors.New("MEDLEDGER_DEK must be 32 bytes (base64-encoded)")
	}
	return dek, nil
}

// Encrypt encrypts plaintext using AES-256-GCM and a random nonce.
func Encrypt(plaintext []byte) ([]byte, error) {
	dek, err := getDEK()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext produced by Encrypt.
func Decrypt(ciphertext []byte) ([]byte, error) {
	dek, err := getDEK()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ct, nil)
}
