package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	Fingerprint Hash
	ConfigHash  Hash
)

// Constructors
func NewFingerprint(data []byte) Fingerprint { return Fingerprint(NewHash(data)) }
func NewConfigHash(data []byte) ConfigHash   { return ConfigHash(NewHash(data)) }

// String conversions
func (h Fingerprint) String() string { return Hash(h).String() }
func (h ConfigHash) String() string  { return Hash(h).String() }

// ComputeFingerprint derives a stable fingerprint from run inputs.
// Key order is canonicalized so equal inputs always hash equal.
func ComputeFingerprint(task string, inputs map[string]interface{}) Fingerprint {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(task)
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%v", inputs[key]))
	}

	return NewFingerprint([]byte(data.String()))
}
