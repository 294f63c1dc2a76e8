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

package options

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/digestscan/digestscan/pkg/logging"
	"github.com/digestscan/digestscan/pkg/search"
)

// Progress display modes.
const (
	ProgressAuto = "auto"
	ProgressBar  = "bar"
	ProgressLog  = "log"
	ProgressNone = "none"
)

// ValidProgressModes lists the accepted --progress values.
var ValidProgressModes = []string{ProgressAuto, ProgressBar, ProgressLog, ProgressNone}

var dictionaryExts = []string{"txt", "lst", "dic"}

// SearchOptions holds the flags of the search command.
type SearchOptions struct {
	// Digest is the target digest in hex.
	Digest string
	// Dictionary is the path of the word list.
	Dictionary string
	// ProgressEvery is the progress cadence in attempts.
	ProgressEvery uint64
	// Count enables counting dictionary lines alongside the search.
	Count bool
	// Progress selects how progress is displayed.
	Progress string
	// BufferSize is the dictionary read buffer size in bytes.
	BufferSize int
}

var _ Interface = (*SearchOptions)(nil)

// AddFlags adds search flags to the cobra command.
func (o *SearchOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Digest, "digest", "d", "",
		"target MD5 digest as 32 hex characters [required]")
	_ = cmd.MarkFlagRequired("digest")

	cmd.Flags().StringVarP(&o.Dictionary, "dictionary", "w", "",
		"UTF-8 word list with one candidate per line [required]")
	_ = cmd.MarkFlagRequired("dictionary")
	_ = cmd.MarkFlagFilename("dictionary", dictionaryExts...)

	cmd.Flags().Uint64Var(&o.ProgressEvery, "progress-every", search.DefaultProgressInterval,
		"report progress every N attempts")

	cmd.Flags().BoolVar(&o.Count, "count", true,
		"count dictionary lines while searching so progress shows a total")

	cmd.Flags().StringVar(&o.Progress, "progress", ProgressAuto,
		"progress display: auto (bar on a terminal, log lines otherwise), bar, log, none")

	cmd.Flags().IntVar(&o.BufferSize, "buffer-size", search.DefaultReadBufferSize,
		"dictionary read buffer size in bytes")
}

// Validate checks flag values that cobra cannot.
func (o *SearchOptions) Validate() error {
	if !slices.Contains(ValidProgressModes, o.Progress) {
		return fmt.Errorf("invalid --progress %q (valid: %v)", o.Progress, ValidProgressModes)
	}
	if o.ProgressEvery == 0 {
		return fmt.Errorf("--progress-every must be positive")
	}
	if o.BufferSize < 16 {
		return fmt.Errorf("--buffer-size must be at least 16 bytes")
	}
	return nil
}

// ToRequest converts the flags to a search request.
func (o *SearchOptions) ToRequest() search.Request {
	return search.Request{
		DigestHex:      o.Digest,
		DictionaryPath: o.Dictionary,
		CountTotal:     o.Count,
	}
}

// ToSearchOptions converts the flags to engine options.
func (o *SearchOptions) ToSearchOptions(logger logging.Logger) search.Options {
	return search.Options{
		ProgressInterval: o.ProgressEvery,
		ReadBufferSize:   o.BufferSize,
		Logger:           logger,
	}
}
