// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

const resetCodeLength = 6

// GenerateResetCode returns a numeric one-time code for password resets.
func GenerateResetCode() (string, error) {
	const digits = "0123456789"

	b := make([]byte, resetCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		b[i] = digits[n.Int64()]
	}

	return string(b), nil
}
