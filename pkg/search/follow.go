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

// Follow delivers every tick the run publishes to reporter, then the outcome
// to sink, all on the calling goroutine. It returns when the run has ended.
// Either collaborator may be nil.
func Follow(r *Run, reporter ProgressReporter, sink ResultSink) Outcome {
	for t := range r.Progress() {
		if reporter != nil {
			reporter.ReportProgress(t)
		}
	}
	out := r.Wait()
	if sink != nil {
		sink.ReportOutcome(out)
	}
	return out
}
