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
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digestscan/digestscan/pkg/hashing/digests"
	"github.com/digestscan/digestscan/pkg/logging"
	"github.com/digestscan/digestscan/pkg/searcherr"
	"github.com/digestscan/digestscan/pkg/tracing"
)

// Run is a single active or finished search.
type Run struct {
	id       string
	engine   *Engine
	target   digests.Digest
	src      CandidateSource
	matcher  *Matcher
	interval uint64
	logger   logging.Logger
	span     tracing.Span
	started  time.Time

	stopAfter func() bool
	stopCount context.CancelFunc
	counting  sync.WaitGroup

	cancelled  atomic.Bool
	total      atomic.Uint64
	totalKnown atomic.Bool
	latest     atomic.Pointer[Tick]

	ticks   chan Tick
	done    chan struct{}
	outcome Outcome
}

// ID returns the run identifier attached to logs and spans.
func (r *Run) ID() string {
	return r.id
}

// Target returns the digest being searched for.
func (r *Run) Target() digests.Digest {
	return r.target
}

// Cancel asks the run to stop. It returns immediately; the run observes the
// request before its next candidate. Calling Cancel more than once, or after
// the run ended, has no further effect.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// Progress returns the tick channel. It holds at most one pending tick; a
// slow reader sees the newest one. The final tick is sent at the terminal
// transition, after which the channel is closed.
func (r *Run) Progress() <-chan Tick {
	return r.ticks
}

// Snapshot returns the most recently published tick.
func (r *Run) Snapshot() Tick {
	return *r.latest.Load()
}

// Done is closed after the outcome is set and the engine is idle again.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run ends and returns its outcome.
func (r *Run) Wait() Outcome {
	<-r.done
	return r.outcome
}

// Outcome returns the outcome if the run has ended.
func (r *Run) Outcome() (Outcome, bool) {
	select {
	case <-r.done:
		return r.outcome, true
	default:
		return Outcome{}, false
	}
}

func (r *Run) estimate(ctx context.Context, est TotalEstimator) {
	defer r.counting.Done()
	n, err := est.Estimate(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("counting candidates failed: %v", err)
		}
		return
	}
	r.total.Store(n)
	r.totalKnown.Store(true)
	r.logger.Debug("dictionary holds %d candidates", n)
}

func (r *Run) tick(attempts, skipped uint64) Tick {
	t := Tick{
		Attempts: attempts,
		Skipped:  skipped,
		Elapsed:  time.Since(r.started),
	}
	if r.totalKnown.Load() {
		t.Total = r.total.Load()
		t.TotalKnown = true
	}
	return t
}

// publish stores t as the latest snapshot and replaces any unread tick.
// Only the run goroutine sends, so the second send cannot block.
func (r *Run) publish(t Tick) {
	r.latest.Store(&t)
	select {
	case r.ticks <- t:
		return
	default:
	}
	select {
	case <-r.ticks:
	default:
	}
	select {
	case r.ticks <- t:
	default:
	}
}

func (r *Run) scan() {
	var attempts, skipped uint64
	next := r.interval

	for {
		if r.cancelled.Load() {
			r.finish(Outcome{Status: StatusCancelled}, attempts, skipped)
			return
		}

		line, err := r.src.Next()
		switch {
		case err == nil:
			attempts++
			ok, merr := r.matcher.Matches(line)
			if merr != nil {
				r.finish(Outcome{Status: StatusFailed, Err: merr}, attempts, skipped)
				return
			}
			if ok {
				r.finish(Outcome{Status: StatusMatched, Candidate: string(line)}, attempts, skipped)
				return
			}
		case errors.Is(err, io.EOF):
			r.finish(Outcome{Status: StatusExhausted}, attempts, skipped)
			return
		case searcherr.IsType(err, searcherr.ErrTypeMalformedLine):
			attempts++
			skipped++
			r.logger.Debug("skipping line: %v", err)
		default:
			if searcherr.TypeOf(err) == searcherr.ErrTypeUnknown {
				err = searcherr.New(searcherr.ErrTypeIO, "reading candidates", err)
			}
			r.finish(Outcome{Status: StatusFailed, Err: err}, attempts, skipped)
			return
		}

		if attempts >= next {
			t := r.tick(attempts, skipped)
			r.publish(t)
			r.logger.Debug("progress: %d attempts", t.Attempts)
			next += r.interval
		}
	}
}

// finish releases the source and the counter, publishes the final tick and
// outcome, and returns the engine to idle before closing done.
func (r *Run) finish(out Outcome, attempts, skipped uint64) {
	r.stopAfter()
	if r.stopCount != nil {
		r.stopCount()
	}
	r.counting.Wait()

	if err := r.src.Close(); err != nil {
		r.logger.Warn("closing candidate source: %v", err)
	}

	final := r.tick(attempts, skipped)
	if out.Status == StatusExhausted {
		final.Total = attempts
		final.TotalKnown = true
	}
	out.Digest = r.target
	out.Final = final

	r.publish(final)
	close(r.ticks)
	r.outcome = out

	r.report(out)

	r.engine.state.Store(int32(StateIdle))
	close(r.done)
}

func (r *Run) report(out Outcome) {
	fields := map[string]interface{}{
		"status":   out.Status.String(),
		"attempts": out.Final.Attempts,
		"skipped":  out.Final.Skipped,
		"elapsed":  out.Final.Elapsed.Round(time.Millisecond).String(),
	}
	log := r.logger.WithFields(fields)
	switch out.Status {
	case StatusFailed:
		log.Error("search failed: %v", out.Err)
	case StatusMatched:
		log.Infoln("match found")
	default:
		log.Infoln("search ended")
	}

	r.span.SetAttribute("digestscan.status", out.Status.String())
	r.span.SetAttribute("digestscan.attempts", out.Final.Attempts)
	r.span.SetAttribute("digestscan.skipped", out.Final.Skipped)
	if out.Err != nil {
		r.span.SetAttribute("error", out.Err.Error())
	}
	r.span.End()
}
