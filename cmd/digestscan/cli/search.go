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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/digestscan/digestscan/cmd/digestscan/cli/options"
	"github.com/digestscan/digestscan/pkg/logging"
	"github.com/digestscan/digestscan/pkg/search"
	"github.com/digestscan/digestscan/pkg/tracing"
)

// Search creates the search subcommand.
func Search() *cobra.Command {
	o := &options.SearchOptions{}

	long := `Search a dictionary for the word whose MD5 digest equals DIGEST.

Each line of the dictionary file is one candidate, hashed exactly as written
(line endings removed, surrounding spaces kept). Lines are tried in order and
the first match wins. Press Ctrl-C to stop early.

Exit status is 0 when a match is found, 1 when the dictionary is exhausted,
130 when the search is interrupted or times out, and 2 on errors.`

	cmd := &cobra.Command{
		Use:   "search --digest DIGEST --dictionary PATH",
		Short: "Find the dictionary word behind a digest.",
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if ro.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, ro.Timeout)
				defer cancel()
			}

			obs := ro.NewObservability(cmd.ErrOrStderr())
			return runSearch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), o, obs)
		},
	}

	o.AddFlags(cmd)
	return cmd
}

func runSearch(ctx context.Context, stdout, stderr io.Writer, o *options.SearchOptions, obs options.Observability) error {
	req := o.ToRequest()
	opts := o.ToSearchOptions(obs.Logger)
	attrs := map[string]interface{}{
		"digestscan.dictionary":     req.DictionaryPath,
		"digestscan.count":          req.CountTotal,
		"digestscan.progress_every": o.ProgressEvery,
	}

	var out search.Outcome
	err := tracing.Run(ctx, "SearchCommand", attrs, func(ctx context.Context) error {
		reporter := newProgressReporter(o.Progress, stderr, obs.Logger)
		defer reporter.Stop()

		var err error
		out, err = search.Search(ctx, req, opts, reporter)
		return err
	})
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	return reportOutcome(stdout, out, ro.GetLogLevel())
}

// reportOutcome prints the result line and maps the outcome to an exit code.
func reportOutcome(w io.Writer, out search.Outcome, level logging.LogLevel) error {
	quiet := level >= logging.LevelSilent
	say := func(format string, args ...interface{}) {
		if !quiet {
			fmt.Fprintf(w, format, args...)
		}
	}

	switch out.Status {
	case search.StatusMatched:
		say("Match found: %s\n", out.Candidate)
		return nil
	case search.StatusExhausted:
		say("No match found in %s attempts (%s)\n", formatCount(out.Final.Attempts), formatElapsed(out.Final.Elapsed))
		return &ExitError{Code: ExitNoMatch}
	case search.StatusCancelled:
		say("Search cancelled after %s attempts (%s)\n", formatCount(out.Final.Attempts), formatElapsed(out.Final.Elapsed))
		return &ExitError{Code: ExitCancelled}
	default:
		return &ExitError{Code: ExitFailure, Err: out.Err}
	}
}
