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

// Package dictionary reads newline-delimited word lists one candidate at a
// time.
//
// A Source is a lazy, single-pass sequence of lines. It is not restartable
// mid-stream: a fresh run opens a fresh Source. Lines are returned as byte
// slices that stay valid only until the next call to Next, so candidates are
// read, hashed and discarded without per-line allocation.
//
// Line handling:
//   - "\n" and "\r\n" terminators are stripped.
//   - An unterminated final line is still returned.
//   - Empty lines are returned (they are valid candidates).
//   - A UTF-8 byte order mark at the start of the first line is dropped.
//   - A line that is not valid UTF-8 is reported as a MalformedLine error;
//     the Source stays usable and the next call continues with the next line.
package dictionary

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/digestscan/digestscan/pkg/searcherr"
	"github.com/digestscan/digestscan/pkg/utils"
)

// DefaultBufferSize is the read buffer size used by Open.
const DefaultBufferSize = 8192

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source yields dictionary lines in file order.
type Source struct {
	name    string
	r       *bufio.Reader
	closer  io.Closer
	line    uint64
	scratch []byte
	closed  bool
}

// Open opens the dictionary at path for sequential reading with a buffer of
// DefaultBufferSize bytes.
//
// It returns a DictionaryNotFound error if the path does not exist and a
// DictionaryUnreadable error if it exists but cannot be opened as a file.
func Open(path string) (*Source, error) {
	return OpenWithBufferSize(path, DefaultBufferSize)
}

// OpenWithBufferSize is like Open with an explicit read buffer size.
func OpenWithBufferSize(path string, bufferSize int) (*Source, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	s := NewSource(path, f, bufferSize)
	s.closer = f
	return s, nil
}

// NewSource wraps an arbitrary reader. name is used in error messages. The
// reader is not closed by Close unless it was opened by Open.
func NewSource(name string, r io.Reader, bufferSize int) *Source {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Source{
		name: name,
		r:    bufio.NewReaderSize(r, bufferSize),
	}
}

func openFile(path string) (*os.File, error) {
	if err := utils.ValidateFileExists("dictionary", path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, searcherr.NewWithPath(searcherr.ErrTypeDictionaryNotFound, path,
				"dictionary does not exist", err)
		}
		return nil, searcherr.NewWithPath(searcherr.ErrTypeDictionaryUnreadable, path,
			"cannot open dictionary", err)
	}
	return f, nil
}

// Next returns the next line without its terminator.
//
// It returns io.EOF once the input is exhausted. A MalformedLine error
// (see searcherr.IsType) means the current line was consumed but is not
// valid UTF-8; callers may continue calling Next. Any other error is an
// IoError and the Source should be abandoned.
//
// The returned slice is only valid until the next call to Next.
func (s *Source) Next() ([]byte, error) {
	if s.closed {
		return nil, searcherr.NewWithPath(searcherr.ErrTypeIO, s.name, "read from closed dictionary", fs.ErrClosed)
	}

	line, err := s.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		s.scratch = append(s.scratch[:0], line...)
		for err == bufio.ErrBufferFull {
			line, err = s.r.ReadSlice('\n')
			s.scratch = append(s.scratch, line...)
		}
		line = s.scratch
	}

	if err != nil && err != io.EOF {
		return nil, &searcherr.SearchError{
			Type:    searcherr.ErrTypeIO,
			Path:    s.name,
			Line:    s.line + 1,
			Message: "reading dictionary",
			Cause:   err,
		}
	}
	if err == io.EOF && len(line) == 0 {
		return nil, io.EOF
	}

	s.line++
	line = trimEOL(line)
	if s.line == 1 {
		line = bytes.TrimPrefix(line, utf8BOM)
	}

	if !utf8.Valid(line) {
		return nil, &searcherr.SearchError{
			Type:    searcherr.ErrTypeMalformedLine,
			Path:    s.name,
			Line:    s.line,
			Message: "line is not valid UTF-8",
		}
	}

	return line, nil
}

// Line returns the number of lines consumed so far, including malformed ones.
func (s *Source) Line() uint64 {
	return s.line
}

// Name returns the path or name the Source was created with.
func (s *Source) Name() string {
	return s.name
}

// Close releases the underlying file. It is safe to call more than once.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close dictionary %q: %w", s.name, err)
	}
	return nil
}

func trimEOL(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	return line[:n]
}
