// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package digests provides types for representing cryptographic hash digests
// and for parsing them from their hexadecimal form.
//
// A Digest encapsulates both the algorithm name and the computed hash value,
// and copies its bytes on the way in and out.
package digests

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/digestscan/digestscan/pkg/searcherr"
)

// Digest represents a computed cryptographic hash digest.
//
// Digest is effectively immutable: its fields are unexported, and access is
// provided via read-only methods that copy the underlying data.
type Digest struct {
	algorithm string
	value     []byte
}

// NewDigest creates a new Digest with the specified algorithm and hash value.
// The value slice is copied.
func NewDigest(algorithm string, value []byte) Digest {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	return Digest{
		algorithm: algorithm,
		value:     valueCopy,
	}
}

// ParseHex parses a hexadecimal digest string into a Digest of the given
// algorithm and size in bytes.
//
// Surrounding whitespace is ignored and the input is lower-cased before
// decoding, so "D41D8CD9..." and "d41d8cd9..." parse to the same value. The
// input must have even length, contain only hex digits, and decode to exactly
// size bytes; otherwise an InvalidDigestFormat error is returned.
func ParseHex(algorithm, s string, size int) (Digest, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	if normalized == "" {
		return Digest{}, invalid(s, "digest is empty", nil)
	}
	if len(normalized)%2 != 0 {
		return Digest{}, invalid(s, fmt.Sprintf("odd number of hex digits (%d)", len(normalized)), nil)
	}
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return Digest{}, invalid(s, fmt.Sprintf("invalid hex character %q at offset %d", c, i), nil)
		}
	}

	value, err := hex.DecodeString(normalized)
	if err != nil {
		return Digest{}, invalid(s, "hex decoding failed", err)
	}
	if size > 0 && len(value) != size {
		return Digest{}, invalid(s, fmt.Sprintf("%s digest must be %d bytes, got %d", algorithm, size, len(value)), nil)
	}

	return Digest{algorithm: algorithm, value: value}, nil
}

func invalid(input, message string, cause error) error {
	return searcherr.New(searcherr.ErrTypeInvalidDigestFormat,
		fmt.Sprintf("%s: %q", message, input), cause)
}

// Algorithm returns the name of the hash algorithm used to compute this digest.
func (d Digest) Algorithm() string {
	return d.algorithm
}

// Value returns a copy of the raw digest bytes.
func (d Digest) Value() []byte {
	valueCopy := make([]byte, len(d.value))
	copy(valueCopy, d.value)
	return valueCopy
}

// Hex returns the lowercase hexadecimal encoding of the digest value.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.value)
}

// Size returns the length in bytes of the digest value.
func (d Digest) Size() int {
	return len(d.value)
}

// IsZero reports whether the digest holds no value.
func (d Digest) IsZero() bool {
	return len(d.value) == 0
}

// String returns the digest formatted as "algorithm:hexvalue".
func (d Digest) String() string {
	return fmt.Sprintf("%s:%s", d.algorithm, d.Hex())
}

// Equal reports whether both digests have the same algorithm name and
// identical values.
func (d Digest) Equal(other Digest) bool {
	if d.algorithm != other.algorithm {
		return false
	}

	if len(d.value) != len(other.value) {
		return false
	}

	for i := range d.value {
		if d.value[i] != other.value[i] {
			return false
		}
	}

	return true
}
