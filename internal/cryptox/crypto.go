// Package cryptox wraps the primitives used for content protection:
// HKDF-SHA256 key derivation and AES-256-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"io"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32

	// NonceSize is the standard GCM nonce length.
	NonceSize = 12

	// Overhead is the GCM authentication tag length appended to every ciphertext.
	Overhead = 16
)

// ErrShortCiphertext is returned by Open when the input cannot even hold a
// nonce and a tag.
var ErrShortCiphertext = errors.New("ciphertext too short")

// DeriveKey expands secret into a KeySize key with HKDF-SHA256. The info
// string binds the key to its purpose so the same secret can feed several
// independent keys.
//
// Parameters:
//   - secret: input keying material (at least KeySize bytes is expected by callers).
//   - info: context label, e.g. "vaultboard/content/v1".
//
// Returns the derived key or an error if the HKDF reader fails.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-GCM under key using a fresh random
// nonce. The result is nonce || ciphertext || tag.
//
// Example:
//
//	key, _ := cryptox.DeriveKey(secret, "vaultboard/content/v1")
//	blob, err := cryptox.Seal(key, []byte("hunter2"))
//	if err != nil {
//	    return err
//	}
//	plain, err := cryptox.Open(key, blob)
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := common.GenerateRandBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any tampering, truncation or wrong key yields an error.
func Open(key, blob []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	nonce, ct := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	return aead.Open(nil, nonce, ct, nil)
}
