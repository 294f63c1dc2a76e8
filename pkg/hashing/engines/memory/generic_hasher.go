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

package memory

import (
	"hash"

	"github.com/digestscan/digestscan/pkg/hashing/digests"
	hashengines "github.com/digestscan/digestscan/pkg/hashing/engines"
)

var (
	_ hashengines.StreamingHashEngine = (*GenericHashEngine)(nil)
	_ hashengines.Summer              = (*GenericHashEngine)(nil)
)

// HashFactoryFunc is a function that creates a new hash.Hash instance.
type HashFactoryFunc func() (hash.Hash, error)

// GenericHashEngine is a reusable wrapper around any hash.Hash implementation.
//
// The underlying hash.Hash is created once and reset between messages, so a
// single engine can hash millions of candidates without allocating.
type GenericHashEngine struct {
	name string
	size int
	h    hash.Hash
}

// NewGenericHashEngine creates a new generic hash engine.
//
// Parameters:
//   - name: The canonical name of the hash algorithm (e.g., "md5")
//   - size: The size of the digest in bytes
//   - factory: A function that creates the hash.Hash instance
//   - initialData: Optional initial data to hash immediately
func NewGenericHashEngine(name string, size int, factory HashFactoryFunc, initialData []byte) (*GenericHashEngine, error) {
	h, err := factory()
	if err != nil {
		return nil, err
	}

	engine := &GenericHashEngine{
		name: name,
		size: size,
		h:    h,
	}

	if len(initialData) > 0 {
		// hash.Hash.Write never returns an error.
		_, _ = engine.h.Write(initialData)
	}

	return engine, nil
}

// Update appends additional bytes to the data to be hashed.
func (e *GenericHashEngine) Update(data []byte) {
	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

// Reset clears the hash state and optionally seeds it with initial data.
func (e *GenericHashEngine) Reset(data []byte) {
	e.h.Reset()
	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

// Compute finalizes the hash and returns a digests.Digest.
func (e *GenericHashEngine) Compute() (digests.Digest, error) {
	sum := e.h.Sum(nil)
	return digests.NewDigest(e.name, sum), nil
}

// SumTo hashes data as a complete message and appends the digest to dst.
// Any state accumulated through Update is discarded.
func (e *GenericHashEngine) SumTo(dst, data []byte) []byte {
	e.h.Reset()
	_, _ = e.h.Write(data)
	return e.h.Sum(dst)
}

// DigestName returns the canonical name of the hash algorithm.
func (e *GenericHashEngine) DigestName() string {
	return e.name
}

// DigestSize returns the size, in bytes, of digests produced by this engine.
func (e *GenericHashEngine) DigestSize() int {
	return e.size
}
