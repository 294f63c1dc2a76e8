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

// Package search runs a dictionary search for the preimage of a digest.
//
// An Engine owns at most one Run at a time. The Run hashes candidates on its
// own goroutine; the caller observes it through a coalescing progress
// channel, a polled Snapshot, and a single Outcome delivered when the run
// ends. Cancel, or cancelling the context given to Start, stops the run at
// the next candidate boundary.
package search

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/digestscan/digestscan/pkg/dictionary"
	"github.com/digestscan/digestscan/pkg/hashing/digests"
	hashengines "github.com/digestscan/digestscan/pkg/hashing/engines"
	"github.com/digestscan/digestscan/pkg/hashing/engines/memory"
	"github.com/digestscan/digestscan/pkg/logging"
	"github.com/digestscan/digestscan/pkg/searcherr"
	"github.com/digestscan/digestscan/pkg/tracing"
)

const (
	// DefaultAlgorithm is the hash algorithm used when Options.Algorithm is empty.
	DefaultAlgorithm = memory.MD5Name
	// DefaultProgressInterval is the number of attempts between progress ticks.
	DefaultProgressInterval uint64 = 50000
	// DefaultReadBufferSize is the dictionary read buffer size in bytes.
	DefaultReadBufferSize = dictionary.DefaultBufferSize
)

// Options configures an Engine.
type Options struct {
	// Algorithm names a registered hash engine. Defaults to DefaultAlgorithm.
	Algorithm string
	// ProgressInterval is the tick cadence in attempts. Defaults to
	// DefaultProgressInterval.
	ProgressInterval uint64
	// ReadBufferSize is used by Search when opening the dictionary.
	ReadBufferSize int
	// Logger defaults to logging.Default().
	Logger logging.Logger
}

// DefaultOptions returns Options with every default filled in.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = DefaultReadBufferSize
	}
	o.Logger = logging.EnsureLogger(o.Logger)
	return o
}

// State is the lifecycle state of an Engine.
type State int32

const (
	// StateIdle means no run is active and Start may be called.
	StateIdle State = iota
	// StateRunning means a run is active.
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Engine starts search runs, one at a time.
type Engine struct {
	opts  Options
	state atomic.Int32
}

// NewEngine returns an idle engine.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Start begins searching src for a candidate whose digest equals target.
// On success the Run owns src and closes it when the run ends. On error src
// is untouched and the engine stays idle. total may be nil; otherwise it is
// estimated concurrently and never delays the first attempt.
//
// Start returns a searcherr.ErrTypeAlreadyRunning error while a previous run
// is active.
func (e *Engine) Start(ctx context.Context, target digests.Digest, src CandidateSource, total TotalEstimator) (*Run, error) {
	if src == nil {
		return nil, searcherr.New(searcherr.ErrTypeIO, "candidate source cannot be nil", nil)
	}
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, searcherr.New(searcherr.ErrTypeAlreadyRunning, "a search is already running", nil)
	}

	engine, err := hashengines.Create(e.opts.Algorithm)
	if err != nil {
		e.state.Store(int32(StateIdle))
		return nil, err
	}
	matcher, err := NewMatcher(engine, target)
	if err != nil {
		e.state.Store(int32(StateIdle))
		return nil, err
	}

	id := uuid.NewString()
	r := &Run{
		id:       id,
		engine:   e,
		target:   target,
		src:      src,
		matcher:  matcher,
		interval: e.opts.ProgressInterval,
		logger: e.opts.Logger.WithFields(map[string]interface{}{
			"run_id":    id,
			"algorithm": matcher.Algorithm(),
		}),
		ticks:   make(chan Tick, 1),
		done:    make(chan struct{}),
		started: time.Now(),
	}
	r.latest.Store(&Tick{})

	// The run may outlive the caller's request scope. Only cancellation is
	// inherited from ctx, and it maps onto Cancel.
	spanCtx, span := tracing.Start(context.WithoutCancel(ctx), "Search")
	span.SetAttribute("digestscan.run_id", id)
	span.SetAttribute("digestscan.algorithm", matcher.Algorithm())
	span.SetAttribute("digestscan.progress_interval", r.interval)
	r.span = span
	r.stopAfter = context.AfterFunc(ctx, r.Cancel)

	if total != nil {
		countCtx, cancel := context.WithCancel(spanCtx)
		r.stopCount = cancel
		r.counting.Add(1)
		go r.estimate(countCtx, total)
	}

	r.logger.Debug("search started, target %s", target.Hex())
	go r.scan()
	return r, nil
}
