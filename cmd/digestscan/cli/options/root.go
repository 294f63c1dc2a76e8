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

// Package options defines the command-line options and flags for the
// digestscan CLI.
package options

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/digestscan/digestscan/pkg/logging"
)

// EnvPrefix is the prefix used for environment variables that configure the CLI.
const EnvPrefix = "DIGESTSCAN"

// Interface is implemented by any flag group that can register itself to a
// cobra command.
type Interface interface {
	AddFlags(cmd *cobra.Command)
}

// RootOptions defines flags and options for the root CLI command.
// These options are available globally across all subcommands.
type RootOptions struct {
	// OutputFile specifies a file path to redirect output to instead of stdout.
	OutputFile string
	// LogLevel sets the minimum log level (debug, info, warn, error, silent).
	LogLevel string
	// LogFormat sets the log output format (text, json).
	LogFormat string
	// Timeout bounds a command. Zero means no limit; a search that hits it
	// ends as cancelled.
	Timeout time.Duration
}

// ValidLogLevels lists the valid log level strings.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "silent"}

// ValidLogFormats lists the valid log format strings.
var ValidLogFormats = []string{"text", "json"}

var logExts = []string{"log", "txt"}

var _ Interface = (*RootOptions)(nil)

// AddFlags adds root-level flags to the cobra command.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.OutputFile, "output-file", "",
		"write command output to a file instead of stdout")
	_ = cmd.MarkPersistentFlagFilename("output-file", logExts...)

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info",
		"set the minimum log level (debug, info, warn, error, silent) [env: "+EnvPrefix+"_LOG_LEVEL]")

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "text",
		"set the log output format (text, json) [env: "+EnvPrefix+"_LOG_FORMAT]")

	cmd.PersistentFlags().DurationVarP(&o.Timeout, "timeout", "t", 0,
		"stop the command after this long (0 means no limit)")
}

// ApplyEnv fills options whose flags were not set on the command line from
// the environment.
func (o *RootOptions) ApplyEnv(cmd *cobra.Command) {
	if v, ok := os.LookupEnv(EnvPrefix + "_LOG_LEVEL"); ok && v != "" && !cmd.Flags().Changed("log-level") {
		o.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_LOG_FORMAT"); ok && v != "" && !cmd.Flags().Changed("log-format") {
		o.LogFormat = v
	}
}

// GetLogLevel returns the effective log level based on the options.
func (o *RootOptions) GetLogLevel() logging.LogLevel {
	return logging.ParseLogLevel(o.LogLevel)
}

// GetLogFormat returns the log format based on the options.
func (o *RootOptions) GetLogFormat() logging.LogFormat {
	return logging.ParseLogFormat(o.LogFormat)
}

// NewLogger creates a logger writing to w based on the root options.
func (o *RootOptions) NewLogger(w io.Writer) logging.Logger {
	return logging.NewLoggerWithOptions(logging.LoggerOptions{
		Level:     o.GetLogLevel(),
		Format:    o.GetLogFormat(),
		Output:    w,
		ShowLevel: true,
	})
}
