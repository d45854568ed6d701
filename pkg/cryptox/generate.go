package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultPasswordLength is the length of generated temporary passwords.
const DefaultPasswordLength = 16

// MinGeneratedLength is the shortest password that can hold one character
// of every required class.
const MinGeneratedLength = 4

const maxGenerateAttempts = 32

// Generator alphabets.
const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	SymbolChars = "!@#$%^&*()-_=+[]{}?"

	allChars = upperChars + lowerChars + digitChars + SymbolChars
)

// PasswordGenerator produces random passwords containing at least one
// uppercase letter, lowercase letter, digit and symbol. When Validator is
// set, passwords at least Validator.MinLength long are regenerated until
// they pass it.
type PasswordGenerator struct {
	Validator *StrengthValidator
}

// GeneratePassword generates a password with the default validator.
func GeneratePassword(length int) (string, error) {
	g := PasswordGenerator{Validator: DefaultStrengthValidator()}
	return g.Generate(length)
}

// Generate returns a random password of exactly length characters.
func (g *PasswordGenerator) Generate(length int) (string, error) {
	if length < MinGeneratedLength {
		return "", fmt.Errorf("%w: password length must be at least %d, got %d", ErrInvalidInput, MinGeneratedLength, length)
	}

	var v *StrengthValidator
	if g != nil && g.Validator != nil && length >= g.Validator.MinLength {
		v = g.Validator
	}

	for range maxGenerateAttempts {
		pw, err := generate(length)
		if err != nil {
			return "", err
		}
		if v == nil || v.Validate(pw).IsValid {
			return pw, nil
		}
	}
	return "", fmt.Errorf("cryptox: no valid password after %d attempts", maxGenerateAttempts)
}

func generate(length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Overwrite distinct random positions with one character of each class.
	positions, err := distinctPositions(length, 4)
	if err != nil {
		return "", err
	}
	for i, set := range []string{upperChars, lowerChars, digitChars, SymbolChars} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out[positions[i]] = c
	}
	return string(out), nil
}

// distinctPositions returns the first k entries of a Fisher-Yates shuffle of [0, n).
func distinctPositions(n, k int) ([]int, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j, err := randInt(n - i)
		if err != nil {
			return nil, err
		}
		idx[i], idx[i+j] = idx[i+j], idx[i]
	}
	return idx[:k], nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("cryptox: random source: %w", err)
	}
	return int(v.Int64()), nil
}
