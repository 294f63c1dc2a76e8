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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/digestscan/digestscan/pkg/logging"
	"github.com/digestscan/digestscan/pkg/searcherr"
)

// memSource yields lines from memory. Indices listed in malformed return a
// MalformedLine error instead; failAt returns failErr at that index.
type memSource struct {
	lines     []string
	malformed map[int]bool
	failAt    int
	failErr   error

	// gateAt blocks Next call number gateAt (0-based) until gate is closed
	// and signals reached when it gets there.
	gateAt  int
	gate    chan struct{}
	reached chan struct{}

	pos    int
	calls  atomic.Int64
	closed atomic.Bool
}

func newMemSource(lines ...string) *memSource {
	return &memSource{lines: lines, failAt: -1, gateAt: -1}
}

func (s *memSource) Next() ([]byte, error) {
	call := int(s.calls.Add(1)) - 1
	if call == s.gateAt {
		close(s.reached)
		<-s.gate
	}
	if s.pos >= len(s.lines) {
		return nil, io.EOF
	}
	i := s.pos
	s.pos++
	if i == s.failAt {
		return nil, s.failErr
	}
	if s.malformed[i] {
		return nil, &searcherr.SearchError{Type: searcherr.ErrTypeMalformedLine, Line: uint64(i + 1), Message: "invalid UTF-8"}
	}
	return []byte(s.lines[i]), nil
}

func (s *memSource) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *memSource) withGate(at int) *memSource {
	s.gateAt = at
	s.gate = make(chan struct{})
	s.reached = make(chan struct{})
	return s
}

// genSource yields "cand-0", "cand-1", ... up to n lines.
type genSource struct {
	n, i   int
	closed atomic.Bool
}

func (g *genSource) Next() ([]byte, error) {
	if g.i >= g.n {
		return nil, io.EOF
	}
	g.i++
	return []byte(fmt.Sprintf("cand-%d", g.i)), nil
}

func (g *genSource) Close() error {
	g.closed.Store(true)
	return nil
}

type failingEstimator struct{}

func (failingEstimator) Estimate(context.Context) (uint64, error) {
	return 0, errors.New("count failed")
}

func quietOptions() Options {
	return Options{Logger: logging.Discard()}
}

func waitOutcome(t *testing.T, r *Run) Outcome {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
	return r.Wait()
}

func startRun(t *testing.T, e *Engine, target string, src CandidateSource, total TotalEstimator) *Run {
	t.Helper()
	r, err := e.Start(context.Background(), md5Target(t, target), src, total)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return r
}

func TestRun_Matched(t *testing.T) {
	src := newMemSource("hello", "world", "test")
	r := startRun(t, NewEngine(quietOptions()), "world", src, FixedTotal(3))

	out := waitOutcome(t, r)
	if out.Status != StatusMatched {
		t.Fatalf("Status = %v, want matched (err %v)", out.Status, out.Err)
	}
	if out.Candidate != "world" {
		t.Errorf("Candidate = %q, want world", out.Candidate)
	}
	if out.Final.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", out.Final.Attempts)
	}
	if !out.Final.TotalKnown || out.Final.Total != 3 {
		t.Errorf("Final total = %d known=%v, want 3", out.Final.Total, out.Final.TotalKnown)
	}
	if out.Digest.Hex() != md5Hex("world") {
		t.Errorf("Digest = %s", out.Digest.Hex())
	}
	if !src.closed.Load() {
		t.Error("source not closed")
	}
}

func TestRun_FirstOccurrenceWins(t *testing.T) {
	src := newMemSource("a", "b", "secret", "c", "d", "e", "secret", "f")
	out := waitOutcome(t, startRun(t, NewEngine(quietOptions()), "secret", src, nil))

	if out.Status != StatusMatched || out.Final.Attempts != 3 {
		t.Errorf("got %v after %d attempts, want matched after 3", out.Status, out.Final.Attempts)
	}
}

func TestRun_Exhausted(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"empty", nil},
		{"one", []string{"only"}},
		{"several", []string{"hello", "test", "", "again"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newMemSource(tt.lines...)
			out := waitOutcome(t, startRun(t, NewEngine(quietOptions()), "world", src, nil))

			if out.Status != StatusExhausted {
				t.Fatalf("Status = %v, want exhausted", out.Status)
			}
			n := uint64(len(tt.lines))
			if out.Final.Attempts != n {
				t.Errorf("Attempts = %d, want %d", out.Final.Attempts, n)
			}
			if !out.Final.TotalKnown || out.Final.Total != n {
				t.Errorf("Total = %d known=%v, want %d", out.Final.Total, out.Final.TotalKnown, n)
			}
			if out.Candidate != "" || out.Err != nil {
				t.Errorf("unexpected candidate %q or err %v", out.Candidate, out.Err)
			}
			if !src.closed.Load() {
				t.Error("source not closed")
			}
		})
	}
}

func TestRun_CancelAfterProgress(t *testing.T) {
	const n = 50_000_000
	opts := quietOptions()
	opts.ProgressInterval = 1000
	src := &genSource{n: n}
	r := startRun(t, NewEngine(opts), "not in the list", src, FixedTotal(n))

	select {
	case tick := <-r.Progress():
		if tick.Attempts < 1000 {
			t.Errorf("first tick Attempts = %d, want >= 1000", tick.Attempts)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no progress tick")
	}
	r.Cancel()

	out := waitOutcome(t, r)
	if out.Status != StatusCancelled {
		t.Fatalf("Status = %v, want cancelled", out.Status)
	}
	if out.Final.Attempts >= n {
		t.Errorf("Attempts = %d, want < %d", out.Final.Attempts, n)
	}
	if !src.closed.Load() {
		t.Error("source not closed")
	}
}

func TestRun_CancelObservedAtNextCandidate(t *testing.T) {
	src := newMemSource("a", "b", "c", "d", "e", "f", "g", "h").withGate(5)
	r := startRun(t, NewEngine(quietOptions()), "h", src, nil)

	<-src.reached
	r.Cancel()
	close(src.gate)

	out := waitOutcome(t, r)
	if out.Status != StatusCancelled {
		t.Fatalf("Status = %v, want cancelled", out.Status)
	}
	// The call in flight when Cancel ran yields one more candidate.
	if out.Final.Attempts != 6 {
		t.Errorf("Attempts = %d, want 6", out.Final.Attempts)
	}
	if got := src.calls.Load(); got != 6 {
		t.Errorf("Next called %d times, want 6", got)
	}
}

func TestRun_CancelIsIdempotent(t *testing.T) {
	src := newMemSource("a", "b", "c").withGate(1)
	r := startRun(t, NewEngine(quietOptions()), "c", src, nil)

	<-src.reached
	r.Cancel()
	r.Cancel()
	close(src.gate)
	first := waitOutcome(t, r)

	r.Cancel()
	second := r.Wait()
	if first.Status != StatusCancelled || second.Status != StatusCancelled {
		t.Errorf("statuses = %v, %v; want cancelled twice", first.Status, second.Status)
	}
	if first.Final != second.Final {
		t.Errorf("outcome changed after late Cancel: %+v vs %+v", first.Final, second.Final)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &genSource{n: 50_000_000}
	r, err := NewEngine(quietOptions()).Start(ctx, md5Target(t, "nope"), src, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	out := waitOutcome(t, r)
	if out.Status != StatusCancelled {
		t.Errorf("Status = %v, want cancelled", out.Status)
	}
}

func TestRun_MalformedLinesAreSkipped(t *testing.T) {
	t.Run("exhausted counts skipped lines", func(t *testing.T) {
		src := newMemSource("a", "bad", "b")
		src.malformed = map[int]bool{1: true}
		out := waitOutcome(t, startRun(t, NewEngine(quietOptions()), "zzz", src, nil))

		if out.Status != StatusExhausted {
			t.Fatalf("Status = %v, want exhausted", out.Status)
		}
		if out.Final.Attempts != 3 || out.Final.Skipped != 1 {
			t.Errorf("Attempts = %d Skipped = %d, want 3 and 1", out.Final.Attempts, out.Final.Skipped)
		}
	})

	t.Run("match after malformed line", func(t *testing.T) {
		src := newMemSource("a", "bad", "b")
		src.malformed = map[int]bool{1: true}
		out := waitOutcome(t, startRun(t, NewEngine(quietOptions()), "b", src, nil))

		if out.Status != StatusMatched || out.Candidate != "b" || out.Final.Attempts != 3 {
			t.Errorf("got %v %q after %d attempts", out.Status, out.Candidate, out.Final.Attempts)
		}
	})
}

func TestRun_ReadFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	src := newMemSource("a", "b", "c", "d")
	src.failAt = 2
	src.failErr = boom

	out := waitOutcome(t, startRun(t, NewEngine(quietOptions()), "d", src, nil))
	if out.Status != StatusFailed {
		t.Fatalf("Status = %v, want failed", out.Status)
	}
	if !searcherr.IsType(out.Err, searcherr.ErrTypeIO) {
		t.Errorf("Err = %v, want IoError", out.Err)
	}
	if !errors.Is(out.Err, boom) {
		t.Errorf("Err does not wrap cause: %v", out.Err)
	}
	if out.Final.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", out.Final.Attempts)
	}
	if !src.closed.Load() {
		t.Error("source not closed")
	}
}

func TestEngine_AlreadyRunning(t *testing.T) {
	e := NewEngine(quietOptions())
	if e.State() != StateIdle {
		t.Fatalf("new engine State = %v", e.State())
	}

	src := newMemSource().withGate(0)
	r := startRun(t, e, "x", src, nil)
	<-src.reached

	if e.State() != StateRunning {
		t.Errorf("State = %v while running", e.State())
	}

	other := newMemSource("x")
	_, err := e.Start(context.Background(), md5Target(t, "x"), other, nil)
	if !searcherr.IsType(err, searcherr.ErrTypeAlreadyRunning) {
		t.Errorf("second Start error = %v, want AlreadyRunning", err)
	}
	if other.closed.Load() || other.calls.Load() != 0 {
		t.Error("rejected source was touched")
	}

	close(src.gate)
	if out := waitOutcome(t, r); out.Status != StatusExhausted {
		t.Errorf("first run Status = %v", out.Status)
	}
	if e.State() != StateIdle {
		t.Errorf("State = %v after run ended", e.State())
	}

	again := startRun(t, e, "x", other, nil)
	if out := waitOutcome(t, again); out.Status != StatusMatched {
		t.Errorf("restarted run Status = %v", out.Status)
	}
}

func TestEngine_StartRejectsBadTarget(t *testing.T) {
	e := NewEngine(quietOptions())
	_, err := e.Start(context.Background(), md5Target(t, "x"), nil, nil)
	if err == nil {
		t.Error("expected error for nil source")
	}

	opts := quietOptions()
	opts.Algorithm = "nonexistent"
	e = NewEngine(opts)
	if _, err := e.Start(context.Background(), md5Target(t, "x"), newMemSource(), nil); err == nil {
		t.Error("expected error for unknown algorithm")
	}
	if e.State() != StateIdle {
		t.Errorf("State = %v after rejected Start", e.State())
	}
}

func TestRun_ProgressCoalesces(t *testing.T) {
	opts := quietOptions()
	opts.ProgressInterval = 1
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = fmt.Sprintf("w%d", i)
	}
	r := startRun(t, NewEngine(opts), "absent", newMemSource(lines...), nil)
	out := waitOutcome(t, r)

	var got []Tick
	for tick := range r.Progress() {
		got = append(got, tick)
	}
	if len(got) != 1 {
		t.Fatalf("buffered %d ticks, want only the final one", len(got))
	}
	if got[0] != out.Final || got[0].Attempts != 1000 {
		t.Errorf("buffered tick = %+v, want final %+v", got[0], out.Final)
	}
	if snap := r.Snapshot(); snap != out.Final {
		t.Errorf("Snapshot() = %+v, want %+v", snap, out.Final)
	}
}

func TestFollow_Cadence(t *testing.T) {
	opts := quietOptions()
	opts.ProgressInterval = 10
	lines := make([]string, 95)
	for i := range lines {
		lines[i] = fmt.Sprintf("w%d", i)
	}
	r := startRun(t, NewEngine(opts), "absent", newMemSource(lines...), FixedTotal(95))

	var ticks []Tick
	var sunk []Outcome
	out := Follow(r, ProgressFunc(func(tick Tick) {
		ticks = append(ticks, tick)
	}), OutcomeFunc(func(o Outcome) {
		sunk = append(sunk, o)
	}))

	if len(sunk) != 1 || sunk[0].Status != StatusExhausted {
		t.Fatalf("sink got %+v", sunk)
	}
	if len(ticks) == 0 || len(ticks) > 10 {
		t.Fatalf("got %d ticks, want 1..10", len(ticks))
	}
	last := ticks[len(ticks)-1]
	if last != out.Final || last.Attempts != 95 {
		t.Errorf("last tick = %+v, want final with 95 attempts", last)
	}
	var prev uint64
	for _, tick := range ticks[:len(ticks)-1] {
		if tick.Attempts%10 != 0 || tick.Attempts <= prev {
			t.Errorf("unexpected intermediate tick %+v after %d", tick, prev)
		}
		prev = tick.Attempts
	}
}

func TestRun_EstimatorFailureDoesNotStopSearch(t *testing.T) {
	src := newMemSource("a", "b")
	out := waitOutcome(t, startRun(t, NewEngine(quietOptions()), "b", src, failingEstimator{}))
	if out.Status != StatusMatched {
		t.Errorf("Status = %v, want matched", out.Status)
	}
	if out.Final.TotalKnown {
		t.Error("TotalKnown = true after estimator failure")
	}
}

func TestRun_LogsOutcomeWithRunID(t *testing.T) {
	var buf strings.Builder
	logger := logging.NewLoggerWithOptions(logging.LoggerOptions{Level: logging.LevelInfo, Output: &buf})
	r := startRun(t, NewEngine(Options{Logger: logger}), "b", newMemSource("a", "b"), nil)
	waitOutcome(t, r)

	out := buf.String()
	if !strings.Contains(out, "match found") || !strings.Contains(out, "run_id="+r.ID()) {
		t.Errorf("log output = %q", out)
	}
	if strings.Contains(out, "a\n") {
		t.Errorf("candidates leaked into logs: %q", out)
	}
}

func TestTick_Percent(t *testing.T) {
	tests := []struct {
		tick   Tick
		want   float64
		wantOK bool
	}{
		{Tick{Attempts: 5}, 0, false},
		{Tick{Attempts: 5, Total: 10, TotalKnown: true}, 50, true},
		{Tick{Attempts: 0, Total: 0, TotalKnown: true}, 100, true},
		{Tick{Attempts: 12, Total: 10, TotalKnown: true}, 100, true},
	}
	for _, tt := range tests {
		got, ok := tt.tick.Percent()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%+v.Percent() = %v, %v; want %v, %v", tt.tick, got, ok, tt.want, tt.wantOK)
		}
	}
}

func writeDictionary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write dictionary: %v", err)
	}
	return path
}

func TestSearch(t *testing.T) {
	path := writeDictionary(t, "hello\nworld\ntest\n")

	out, err := Search(context.Background(), Request{
		DigestHex:      "  " + strings.ToUpper(md5Hex("world")) + "\n",
		DictionaryPath: path,
		CountTotal:     true,
	}, quietOptions(), nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if out.Status != StatusMatched || out.Candidate != "world" || out.Final.Attempts != 2 {
		t.Errorf("got %v %q after %d attempts", out.Status, out.Candidate, out.Final.Attempts)
	}
}

func TestSearch_ExhaustedWithCount(t *testing.T) {
	path := writeDictionary(t, "hello\n\xff\xfe\ntest")

	out, err := Search(context.Background(), Request{
		DigestHex:      md5Hex("world"),
		DictionaryPath: path,
		CountTotal:     true,
	}, quietOptions(), nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if out.Status != StatusExhausted {
		t.Fatalf("Status = %v", out.Status)
	}
	if out.Final.Attempts != 3 || out.Final.Total != 3 || out.Final.Skipped != 1 {
		t.Errorf("Final = %+v, want 3 attempts, 3 total, 1 skipped", out.Final)
	}
}

func TestSearch_RejectsBeforeRunning(t *testing.T) {
	path := writeDictionary(t, "hello\n")

	tests := []struct {
		name string
		req  Request
		want searcherr.ErrorType
	}{
		{"missing dictionary", Request{DigestHex: md5Hex("x"), DictionaryPath: filepath.Join(t.TempDir(), "nope.txt")}, searcherr.ErrTypeDictionaryNotFound},
		{"empty path", Request{DigestHex: md5Hex("x")}, searcherr.ErrTypeDictionaryNotFound},
		{"directory", Request{DigestHex: md5Hex("x"), DictionaryPath: t.TempDir()}, searcherr.ErrTypeDictionaryUnreadable},
		{"not hex", Request{DigestHex: "zz" + md5Hex("x")[2:], DictionaryPath: path}, searcherr.ErrTypeInvalidDigestFormat},
		{"wrong length", Request{DigestHex: "abcd", DictionaryPath: path}, searcherr.ErrTypeInvalidDigestFormat},
		{"empty digest", Request{DigestHex: "   ", DictionaryPath: path}, searcherr.ErrTypeInvalidDigestFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Search(context.Background(), tt.req, quietOptions(), nil)
			if !searcherr.IsType(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if out.Status != StatusUnknown {
				t.Errorf("Status = %v, want no outcome", out.Status)
			}
		})
	}
}

func TestDigest(t *testing.T) {
	d, err := Digest(DefaultAlgorithm, []byte("password"))
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if d.Hex() != "5f4dcc3b5aa765d61d8327deb882cf99" {
		t.Errorf("Digest(password) = %s", d.Hex())
	}
	if _, err := Digest("nonexistent", nil); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Algorithm != "md5" || o.ProgressInterval != 50000 || o.ReadBufferSize != 8192 || o.Logger == nil {
		t.Errorf("DefaultOptions() = %+v", o)
	}
}
