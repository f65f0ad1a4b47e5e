// Package cryptox implements the message package and hash contract shared by
// peermail servers.
//
// A package is base64(nonce[16] || ciphertext || tag[16]) produced by
// AES-256-GCM with the 16-byte random nonce used directly as the IV. Hashes
// are BLAKE2b-256, hex encoded.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

const (
	KeySize   = 32
	NonceSize = 16
	TagSize   = 16
	SaltSize  = 16
)

var (
	ErrInvalidKey     = errors.New("invalid key size")
	ErrInvalidPackage = errors.New("invalid package")
)

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// Encrypt seals plaintext under key and returns the base64 package together
// with the fresh nonce that was used as its IV.
//
// Example:
//
//	key := common.GenerateRandByteArray(cryptox.KeySize)
//	pkg, nonce, err := cryptox.Encrypt([]byte("hello"), key)
func Encrypt(plaintext, key []byte) (pkg string, nonce []byte, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, err
	}

	// nonce || ciphertext || tag
	sealed := aead.Seal(nonce[:NonceSize:NonceSize], nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(sealed), nonce, nil
}

// Decrypt opens a package produced by Encrypt. It never panics: malformed
// input, a wrong key or a modified package all yield ok == false.
func Decrypt(pkg string, key []byte) (plaintext []byte, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(pkg)
	if err != nil || len(raw) < NonceSize+TagSize {
		return nil, false
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, false
	}
	plaintext, err = aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return nil, false
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, true
}

// PackageNonce extracts the nonce embedded in the first bytes of a package.
func PackageNonce(pkg string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(pkg)
	if err != nil {
		return nil, ErrInvalidPackage
	}
	if len(raw) < NonceSize+TagSize {
		return nil, ErrInvalidPackage
	}
	return raw[:NonceSize], nil
}

// Hash returns the hex encoded BLAKE2b-256 digest of b.
func Hash(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// MessageHash binds a package to the connection's auth code, a salt and the
// send time: Hash(pkg || authCode || salt || decimal(timestamp)).
func MessageHash(pkg, authCode, salt string, timestamp int64) string {
	buf := make([]byte, 0, len(pkg)+len(authCode)+len(salt)+20)
	buf = append(buf, pkg...)
	buf = append(buf, authCode...)
	buf = append(buf, salt...)
	buf = strconv.AppendInt(buf, timestamp, 10)
	return Hash(buf)
}

// DecodeKey decodes a hex encoded 256-bit key.
func DecodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}
