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

// Package hashengines provides the interfaces for hash computation used by
// the search engine.
//
// A HashEngine computes a digest of the data it has been fed. Streaming
// engines accept data incrementally; Summer engines can additionally hash a
// whole candidate in one call into a caller-owned buffer, which is what the
// matcher uses in its hot loop.
package hashengines

import (
	"github.com/digestscan/digestscan/pkg/hashing/digests"
)

// HashEngine defines the core interface for computing hashes.
type HashEngine interface {
	// Compute finalizes the hash computation and returns the resulting digest.
	Compute() (digests.Digest, error)

	// DigestName returns the canonical name of the hash algorithm. This name
	// is transferred to the algorithm field of the Digest returned by Compute.
	DigestName() string

	// DigestSize returns the size in bytes of digests produced by this engine.
	// The returned value must match the Size() of the Digest returned by Compute.
	DigestSize() int
}

// Streaming defines the interface for incrementally feeding data to a hash engine.
type Streaming interface {
	// Update appends additional bytes to the data being hashed.
	Update(data []byte)

	// Reset clears the hash state and optionally initializes it with new data.
	Reset(data []byte)
}

// StreamingHashEngine combines HashEngine and Streaming for incremental hashing.
type StreamingHashEngine interface {
	HashEngine
	Streaming
}

// Summer is implemented by engines that can hash a complete message in one
// call. SumTo resets the engine, hashes data and appends the digest to dst,
// returning the extended slice. It does not allocate when dst has enough
// capacity.
type Summer interface {
	SumTo(dst, data []byte) []byte
}
