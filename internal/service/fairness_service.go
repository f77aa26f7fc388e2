package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ProvablyFair implements ports.FairnessEngine. Every outcome is a pure
// function of the server seed, so a player holding the revealed seed can
// regenerate the exact result and check it against the published hash.
type ProvablyFair struct{}

// NewProvablyFair creates the fairness engine.
func NewProvablyFair() *ProvablyFair {
	return &ProvablyFair{}
}

// NewSeed returns 32 cryptographically strong random bytes, hex-encoded.
func (p *ProvablyFair) NewSeed() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// VerificationHash returns sha256(seed) hex, published at settlement so the
// outcome can be verified once the seed is revealed.
func (p *ProvablyFair) VerificationHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Roll maps the seed to a uniform sample in [0,1): the first 32 bits of
// sha256(seed) as a fraction of 2^32.
func (p *ProvablyFair) Roll(seed string) float64 {
	return float64(hashBits(seed)) / float64(1<<32)
}

// RollIndex derives the i-th independent sub-draw by hashing seed+index.
// Same seed and index always regenerate the same sample.
func (p *ProvablyFair) RollIndex(seed string, index int) float64 {
	return p.Roll(seed + strconv.Itoa(index))
}

// Shuffle returns a deterministic Fisher-Yates permutation of [0,n), using
// hash(seed+currentIndex) to pick each swap position.
func (p *ProvablyFair) Shuffle(seed string, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(hashBits(seed+strconv.Itoa(i)) % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// hashBits returns the first 32 bits of sha256(input) as an integer.
func hashBits(input string) uint64 {
	sum := sha256.Sum256([]byte(input))
	hexDigest := hex.EncodeToString(sum[:])
	bits, _ := strconv.ParseUint(hexDigest[:8], 16, 64)
	return bits
}
