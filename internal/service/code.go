package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateCode returns a zero-padded numeric verification code.
func generateCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to read random int: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
