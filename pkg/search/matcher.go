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

package search

import (
	"bytes"
	"fmt"

	"github.com/digestscan/digestscan/pkg/hashing/digests"
	hashengines "github.com/digestscan/digestscan/pkg/hashing/engines"
	"github.com/digestscan/digestscan/pkg/searcherr"
)

// Matcher hashes candidates and compares them with a fixed target digest.
// A Matcher reuses one digest buffer and is not safe for concurrent use.
type Matcher struct {
	engine hashengines.StreamingHashEngine
	summer hashengines.Summer
	target []byte
	buf    []byte
}

// NewMatcher returns a Matcher for target. The target size must equal the
// engine's digest size.
func NewMatcher(engine hashengines.StreamingHashEngine, target digests.Digest) (*Matcher, error) {
	if engine == nil {
		return nil, fmt.Errorf("hash engine cannot be nil")
	}
	if target.IsZero() {
		return nil, searcherr.New(searcherr.ErrTypeInvalidDigestFormat, "target digest is empty", nil)
	}
	if alg := target.Algorithm(); alg != "" && alg != engine.DigestName() {
		return nil, fmt.Errorf("target algorithm %q does not match engine %q", alg, engine.DigestName())
	}
	if target.Size() != engine.DigestSize() {
		return nil, searcherr.New(searcherr.ErrTypeDigestLengthMismatch,
			fmt.Sprintf("target is %d bytes, %s produces %d", target.Size(), engine.DigestName(), engine.DigestSize()), nil)
	}

	m := &Matcher{
		engine: engine,
		target: target.Value(),
		buf:    make([]byte, 0, engine.DigestSize()),
	}
	if s, ok := engine.(hashengines.Summer); ok {
		m.summer = s
	}
	return m, nil
}

// Sum returns the digest of candidate. The returned slice is overwritten by
// the next call to Sum or Matches.
func (m *Matcher) Sum(candidate []byte) ([]byte, error) {
	if m.summer != nil {
		m.buf = m.summer.SumTo(m.buf[:0], candidate)
		return m.buf, nil
	}
	m.engine.Reset(candidate)
	d, err := m.engine.Compute()
	if err != nil {
		return nil, fmt.Errorf("computing %s digest: %w", m.engine.DigestName(), err)
	}
	m.buf = append(m.buf[:0], d.Value()...)
	return m.buf, nil
}

// Matches reports whether candidate hashes to the target digest.
func (m *Matcher) Matches(candidate []byte) (bool, error) {
	sum, err := m.Sum(candidate)
	if err != nil {
		return false, err
	}
	if len(sum) != len(m.target) {
		return false, searcherr.New(searcherr.ErrTypeDigestLengthMismatch,
			fmt.Sprintf("computed %d bytes, target is %d", len(sum), len(m.target)), nil)
	}
	// bytes.Equal returns at the first differing byte.
	return bytes.Equal(sum, m.target), nil
}

// Algorithm returns the name of the hash algorithm in use.
func (m *Matcher) Algorithm() string {
	return m.engine.DigestName()
}
