package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// DefaultLength is the code length used when a caller passes no explicit length.
const DefaultLength = 6

// ErrInvalidLength is returned when the requested code length is not positive.
var ErrInvalidLength = errors.New("otp: code length must be positive")

// Generator produces numeric one-time passcodes.
type Generator interface {
	// Generate returns a digit string of exactly length characters.
	Generate(length int) (string, error)
}

// NumericGenerator implements Generator using crypto/rand.
type NumericGenerator struct{}

// NewNumeric returns a crypto/rand backed numeric code generator.
func NewNumeric() *NumericGenerator {
	return &NumericGenerator{}
}

var ten = big.NewInt(10)

// Generate returns a digit string of exactly length characters.
//
// Each digit is sampled uniformly and independently, so codes leak nothing
// about each other even when generated concurrently.
func (*NumericGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}

	return string(buf), nil
}
