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
	"context"
	"fmt"

	"github.com/digestscan/digestscan/pkg/dictionary"
	"github.com/digestscan/digestscan/pkg/hashing/digests"
	hashengines "github.com/digestscan/digestscan/pkg/hashing/engines"
)

// Request describes a one-shot search.
type Request struct {
	// DigestHex is the target digest in hex. Whitespace and case are ignored.
	DigestHex string
	// DictionaryPath is a UTF-8 text file with one candidate per line.
	DictionaryPath string
	// CountTotal counts the dictionary lines alongside the search so ticks
	// carry a total.
	CountTotal bool
}

// ParseTarget decodes hex into a digest sized for algorithm.
func ParseTarget(algorithm, hex string) (digests.Digest, error) {
	engine, err := hashengines.Create(algorithm)
	if err != nil {
		return digests.Digest{}, err
	}
	return digests.ParseHex(engine.DigestName(), hex, engine.DigestSize())
}

// Digest hashes candidate with algorithm.
func Digest(algorithm string, candidate []byte) (digests.Digest, error) {
	engine, err := hashengines.Create(algorithm)
	if err != nil {
		return digests.Digest{}, err
	}
	engine.Reset(candidate)
	return engine.Compute()
}

// Prepare validates req and opens its dictionary without starting a run.
// The caller owns the returned source until it is handed to Engine.Start.
func Prepare(req Request, opts Options) (digests.Digest, *dictionary.Source, error) {
	opts = opts.withDefaults()

	target, err := ParseTarget(opts.Algorithm, req.DigestHex)
	if err != nil {
		return digests.Digest{}, nil, err
	}
	src, err := dictionary.OpenWithBufferSize(req.DictionaryPath, opts.ReadBufferSize)
	if err != nil {
		return digests.Digest{}, nil, err
	}
	return target, src, nil
}

// Search runs req to completion. Input problems are returned as errors
// before any run starts; once the run starts every result, failures
// included, is reported through the returned Outcome. reporter may be nil.
func Search(ctx context.Context, req Request, opts Options, reporter ProgressReporter) (Outcome, error) {
	target, src, err := Prepare(req, opts)
	if err != nil {
		return Outcome{}, err
	}

	var total TotalEstimator
	if req.CountTotal {
		total = dictionary.LineCounter{Path: req.DictionaryPath}
	}

	run, err := NewEngine(opts).Start(ctx, target, src, total)
	if err != nil {
		_ = src.Close()
		return Outcome{}, fmt.Errorf("starting search: %w", err)
	}
	return Follow(run, reporter, nil), nil
}
