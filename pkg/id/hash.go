// Package id implements the Hash capability: a deterministic, fixed-width
// digest over a byte buffer (spec §3, §4.1, §6).
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Size is the fixed width of a Hash in bytes.
const Size = 32

// Hash is a fixed-width content identifier. Equality is byte equality.
type Hash [Size]byte

// Zero is the absent/sentinel hash, used for empty-history commits and
// unset parents.
var Zero = Hash{}

// IsZero reports whether h is the sentinel hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// String returns the hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the underlying bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// ErrMalformed is returned when a hash string or byte slice has the wrong
// width.
var ErrMalformed = errors.New("id: malformed hash")

// Parse decodes a hex-encoded hash.
func Parse(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	return FromBytes(b)
}

// FromBytes copies len(b)==Size bytes into a Hash.
func FromBytes(b []byte) (Hash, error) {
	if len(b) != Size {
		return Hash{}, ErrMalformed
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// DigestFunc computes a Hash over a byte buffer. The hash algorithm is a
// parameter of the store, not a core assumption (spec §3, §9).
type DigestFunc func(data []byte) Hash

// SHA256 is the default digest function.
func SHA256(data []byte) Hash {
	return sha256.Sum256(data)
}

// Blake2b256 is an alternate digest function, offered because the spec
// treats the hash algorithm as a pluggable parameter.
func Blake2b256(data []byte) Hash {
	sum := blake2b.Sum256(data)
	return Hash(sum)
}
