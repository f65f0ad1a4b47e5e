package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// PassCodeDigits is the length of a one-time pass code.
const PassCodeDigits = 6

var passCodeSpace = big.NewInt(1_000_000)

// MakeRandHexString returns size random bytes encoded as lowercase hex, so the
// resulting string is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size bytes from crypto/rand.
// It panics if the system random source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return b
}

// MakePassCode returns a uniformly distributed zero-padded 6-digit code.
func MakePassCode() (string, error) {
	n, err := rand.Int(rand.Reader, passCodeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", PassCodeDigits, n.Int64()), nil
}

// WipeByteArray zeroes b in place. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
