package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// idAlphabet has 36 symbols; 252 is the largest multiple of 36 below 256,
// so bytes at or above it are discarded to keep the draw uniform.
const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idMaxByte  = 252
)

// randRead is a test seam for crypto/rand.Read.
var randRead = rand.Read

// GenerateID returns a random identifier of n lowercase alphanumeric characters.
func GenerateID(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid id length: %d", n)
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)

	for len(out) < n {
		if _, err := randRead(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= idMaxByte {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

// MakeRandHexString returns size random bytes encoded as hex (2*size characters).
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := randRead(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites b with zeros. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
