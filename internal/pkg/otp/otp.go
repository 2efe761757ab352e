package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of decimal digits in a one-time code.
const Length = 6

var codeSpace = big.NewInt(1_000_000)

// NewCode generates a uniformly random 6-digit code, "000000" through
// "999999", using crypto/rand. Leading zeros are preserved.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
