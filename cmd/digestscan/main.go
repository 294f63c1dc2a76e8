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

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/digestscan/digestscan/cmd/digestscan/cli"
	"github.com/digestscan/digestscan/pkg/tracing"
)

type ExitCoder interface {
	error
	ExitCode() int
}

func main() {
	os.Exit(run())
}

func run() int {
	log.SetFlags(0)

	if err := tracing.InitFromEnv(context.Background()); err != nil {
		log.Printf("warning: tracing disabled: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			log.Printf("warning: flushing traces: %v", err)
		}
	}()

	err := cli.New().Execute()
	if err == nil {
		return cli.ExitMatched
	}

	var ec ExitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			log.Printf("error during command execution: %v", msg)
		}
		return ec.ExitCode()
	}

	log.Printf("error during command execution: %v", err)
	return cli.ExitFailure
}
