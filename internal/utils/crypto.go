// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const randomCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString draws length characters uniformly from A-Z0-9.
func GenerateRandomString(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	max := big.NewInt(int64(len(randomCharset)))
	for sb.Len() < length {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(randomCharset[n.Int64()])
	}

	return sb.String(), nil
}
