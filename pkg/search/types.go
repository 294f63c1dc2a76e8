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
	"time"

	"github.com/digestscan/digestscan/pkg/hashing/digests"
)

// CandidateSource yields dictionary lines in order. Next returns io.EOF
// after the last line. A returned slice is valid until the next call.
// Errors classified as searcherr.ErrTypeMalformedLine are recoverable: the
// engine skips the line and calls Next again.
type CandidateSource interface {
	Next() ([]byte, error)
	Close() error
}

// TotalEstimator reports the number of candidates a source will yield.
// The engine calls Estimate on its own goroutine while the search runs.
type TotalEstimator interface {
	Estimate(ctx context.Context) (uint64, error)
}

// FixedTotal is a TotalEstimator for a total that is already known.
type FixedTotal uint64

func (n FixedTotal) Estimate(context.Context) (uint64, error) {
	return uint64(n), nil
}

// Tick is a progress snapshot.
type Tick struct {
	// Attempts is the number of dictionary lines consumed, skipped ones included.
	Attempts uint64
	// Skipped counts malformed lines that were not hashed.
	Skipped uint64
	// Total is the dictionary line count. Valid only when TotalKnown is true.
	Total      uint64
	TotalKnown bool
	// Elapsed is the wall time since the run started.
	Elapsed time.Duration
}

// Percent returns Attempts as a percentage of Total, capped at 100. The
// second result is false while the total is unknown.
func (t Tick) Percent() (float64, bool) {
	if !t.TotalKnown {
		return 0, false
	}
	if t.Total == 0 {
		return 100, true
	}
	p := float64(t.Attempts) * 100 / float64(t.Total)
	if p > 100 {
		p = 100
	}
	return p, true
}

// Status is the terminal state of a run.
type Status int

const (
	// StatusUnknown is the zero value; no run produced it.
	StatusUnknown Status = iota
	// StatusMatched means a candidate hashed to the target.
	StatusMatched
	// StatusExhausted means every candidate was tried without a match.
	StatusExhausted
	// StatusCancelled means the run was stopped before finishing.
	StatusCancelled
	// StatusFailed means the run stopped on an unrecoverable error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusExhausted:
		return "exhausted"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal report of a run.
type Outcome struct {
	Status Status
	// Candidate is the matching line. Set only for StatusMatched.
	Candidate string
	// Digest is the target digest the run searched for.
	Digest digests.Digest
	// Err is set only for StatusFailed.
	Err error
	// Final is the last progress snapshot, taken at the terminal transition.
	Final Tick
}

// ProgressReporter receives progress ticks on the caller's goroutine.
type ProgressReporter interface {
	ReportProgress(Tick)
}

// ResultSink receives the terminal outcome of a run.
type ResultSink interface {
	ReportOutcome(Outcome)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(Tick)

func (f ProgressFunc) ReportProgress(t Tick) { f(t) }

// OutcomeFunc adapts a function to ResultSink.
type OutcomeFunc func(Outcome)

func (f OutcomeFunc) ReportOutcome(o Outcome) { f(o) }
