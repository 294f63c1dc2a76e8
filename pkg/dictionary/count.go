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

package dictionary

import (
	"bytes"
	"context"
	"io"

	"github.com/digestscan/digestscan/pkg/searcherr"
)

const countChunkSize = 64 * 1024

// Count reads the dictionary at path once and returns the number of lines
// Source.Next would yield for it, malformed lines included.
//
// Count is only an estimate for progress display: the file may change
// between counting and searching. It honours ctx between chunks so a caller
// can abandon a slow count without affecting the search.
func Count(ctx context.Context, path string) (uint64, error) {
	f, err := openFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return countLines(ctx, path, f)
}

func countLines(ctx context.Context, name string, r io.Reader) (uint64, error) {
	buf := make([]byte, countChunkSize)
	var (
		lines uint64
		last  byte = '\n'
	)

	for {
		if err := ctx.Err(); err != nil {
			return lines, err
		}

		n, err := r.Read(buf)
		if n > 0 {
			lines += uint64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return lines, searcherr.NewWithPath(searcherr.ErrTypeIO, name, "counting dictionary lines", err)
		}
	}

	if last != '\n' {
		lines++
	}
	return lines, nil
}

// LineCounter estimates the number of candidates in a dictionary file by
// counting its lines.
type LineCounter struct {
	Path string
}

// Estimate implements the search engine's total estimator.
func (c LineCounter) Estimate(ctx context.Context) (uint64, error) {
	return Count(ctx, c.Path)
}
