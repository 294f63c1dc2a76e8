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
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/digestscan/digestscan/pkg/dictionary"
	"github.com/digestscan/digestscan/pkg/tracing"
)

// Count creates the count subcommand.
func Count() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "count DICTIONARY",
		Short: "Count the candidates in a dictionary.",
		Long: `Count the candidates a search over DICTIONARY would try. Every line is one
candidate, including empty lines and an unterminated last line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()
			if ro.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, ro.Timeout)
				defer cancel()
			}

			attrs := map[string]interface{}{"digestscan.dictionary": path}
			err := tracing.Run(ctx, "Count", attrs, func(ctx context.Context) error {
				n, err := dictionary.Count(ctx, path)
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				}
				size := "unknown size"
				if info, err := os.Stat(path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s candidates (%s)\n", formatCount(n), size)
				return nil
			})
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print only the number")
	return cmd
}
