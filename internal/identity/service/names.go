package service

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	DefaultNamePrefix = "user"
	defaultNameDigits = 8
	maxNameDigits     = 18
)

var ErrInvalidNameConfig = errors.New("invalid name generator config")

// NameGenerator produces fallback user names of the form prefix_NNNNNNNN
// for identities whose provider reported no usable name, or whose name is
// already taken.
type NameGenerator struct {
	prefix string
	digits int
	max    *big.Int
}

// NewNameGenerator returns a generator with the given prefix and number of
// random digits. Zero digits selects the default.
func NewNameGenerator(prefix string, digits int) (*NameGenerator, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, errors.Join(ErrInvalidNameConfig, errors.New("empty prefix"))
	}
	if digits == 0 {
		digits = defaultNameDigits
	}
	if digits < 4 || digits > maxNameDigits {
		return nil, errors.Join(ErrInvalidNameConfig, errors.New("digits must be between 4 and 18"))
	}
	return &NameGenerator{
		prefix: prefix,
		digits: digits,
		max:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil),
	}, nil
}

func (g *NameGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", err
	}
	s := n.String()
	return g.prefix + "_" + strings.Repeat("0", g.digits-len(s)) + s, nil
}
