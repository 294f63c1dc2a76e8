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

	"github.com/spf13/cobra"

	"github.com/digestscan/digestscan/pkg/search"
)

// Digest creates the digest subcommand.
func Digest() *cobra.Command {
	return &cobra.Command{
		Use:   "digest WORD...",
		Short: "Print the MD5 digest of each word.",
		Long: `Print the MD5 digest of each WORD in the format searched for by the search
command, followed by the word itself.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, word := range args {
				d, err := search.Digest(search.DefaultAlgorithm, []byte(word))
				if err != nil {
					return &ExitError{Code: ExitFailure, Err: err}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d.Hex(), word)
			}
			return nil
		},
	}
}
