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
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/digestscan/digestscan/cmd/digestscan/cli/options"
	"github.com/digestscan/digestscan/pkg/logging"
	"github.com/digestscan/digestscan/pkg/search"
)

type progressReporter interface {
	search.ProgressReporter
	Stop()
}

// newProgressReporter picks a reporter for mode. Auto uses the bar when w
// is a terminal and log lines otherwise.
func newProgressReporter(mode string, w io.Writer, logger logging.Logger) progressReporter {
	switch mode {
	case options.ProgressNone:
		return nopReporter{}
	case options.ProgressLog:
		return &logReporter{logger: logger}
	case options.ProgressBar:
		return &barReporter{w: w}
	default:
		if isTerminal(w) {
			return &barReporter{w: w}
		}
		return &logReporter{logger: logger}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatElapsed renders d as hh:mm:ss.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

func formatCount(n uint64) string {
	return humanize.Comma(int64(n))
}

func describeTick(t search.Tick) string {
	s := formatCount(t.Attempts)
	if pct, ok := t.Percent(); ok {
		s = fmt.Sprintf("%s / %s (%.1f%%)", s, formatCount(t.Total), pct)
	}
	s += " attempts, elapsed " + formatElapsed(t.Elapsed)
	if secs := t.Elapsed.Seconds(); secs >= 1 {
		s += ", " + humanize.SIWithDigits(float64(t.Attempts)/secs, 1, "/s")
	}
	if t.Skipped > 0 {
		s += fmt.Sprintf(", %s skipped", formatCount(t.Skipped))
	}
	return s
}

type nopReporter struct{}

func (nopReporter) ReportProgress(search.Tick) {}
func (nopReporter) Stop() {}

type logReporter struct {
	logger logging.Logger
}

func (r *logReporter) ReportProgress(t search.Tick) {
	r.logger.Infoln(describeTick(t))
}

func (r *logReporter) Stop() {}

// barReporter shows a spinner until the total is known, then a bar.
type barReporter struct {
	w       io.Writer
	bar     *pterm.ProgressbarPrinter
	spinner *pterm.SpinnerPrinter
}

func (r *barReporter) ReportProgress(t search.Tick) {
	title := describeTick(t)

	if t.TotalKnown && t.Total > 0 {
		if r.bar == nil {
			r.stopSpinner()
			bar, err := pterm.DefaultProgressbar.
				WithWriter(r.w).
				WithTotal(int(t.Total)).
				WithTitle(title).
				WithShowCount(false).
				WithShowElapsedTime(false).
				Start()
			if err != nil {
				return
			}
			r.bar = bar
		}
		r.bar.UpdateTitle(title)
		if delta := int(min(t.Attempts, t.Total)) - r.bar.Current; delta > 0 {
			r.bar.Add(delta)
		}
		return
	}

	if r.spinner == nil {
		spinner, err := pterm.DefaultSpinner.
			WithWriter(r.w).
			WithRemoveWhenDone(true).
			Start(title)
		if err != nil {
			return
		}
		r.spinner = spinner
	}
	r.spinner.UpdateText(title)
}

func (r *barReporter) stopSpinner() {
	if r.spinner != nil {
		_ = r.spinner.Stop()
		r.spinner = nil
	}
}

func (r *barReporter) Stop() {
	r.stopSpinner()
	if r.bar != nil {
		_, _ = r.bar.Stop()
		r.bar = nil
	}
}
