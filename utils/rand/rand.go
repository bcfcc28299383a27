// Package rand draws uniform values from the system's secure RNG. A failing RNG is
// reported as an error rather than a panic.
package rand

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Uint64n returns a uniform value in [0, n). n must be positive.
func Uint64n(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("upper bound must be positive")
	}
	v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(n))
	if err != nil {
		return 0, fmt.Errorf("could not read system randomness: %w", err)
	}
	return v.Uint64(), nil
}

// DurationBetween returns a uniform duration in [min, max]. It returns min when
// max <= min.
func DurationBetween(min, max time.Duration) (time.Duration, error) {
	if max <= min {
		return min, nil
	}
	offset, err := Uint64n(uint64(max-min) + 1)
	if err != nil {
		return 0, err
	}
	return min + time.Duration(offset), nil
}
