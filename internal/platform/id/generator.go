package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator returns 128 random bits as hex, optionally behind a "prefix-".
type RandomGenerator struct {
	prefix string
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// NewPrefixedGenerator tags every id with prefix, e.g. "settle-3f9c...".
func NewPrefixedGenerator(prefix string) *RandomGenerator {
	return &RandomGenerator{prefix: strings.Trim(strings.TrimSpace(prefix), "-")}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	out := hex.EncodeToString(buf)
	if g.prefix != "" {
		out = g.prefix + "-" + out
	}
	return out, nil
}
