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

// Package searcherr defines the error taxonomy shared by the digest codec,
// the dictionary reader and the search engine.
package searcherr

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a search error.
type ErrorType int

const (
	// ErrTypeUnknown indicates an unclassified error.
	ErrTypeUnknown ErrorType = iota

	// ErrTypeInvalidDigestFormat indicates the target digest is not valid hex
	// or does not have the length of the hash algorithm's output.
	ErrTypeInvalidDigestFormat

	// ErrTypeDictionaryNotFound indicates the dictionary path does not exist.
	ErrTypeDictionaryNotFound

	// ErrTypeDictionaryUnreadable indicates the dictionary exists but cannot
	// be opened for reading (permissions, directory, special file).
	ErrTypeDictionaryUnreadable

	// ErrTypeIO indicates a read failure after the dictionary was opened.
	ErrTypeIO

	// ErrTypeDigestLengthMismatch indicates a computed digest and the target
	// differ in length. Validated input never produces it.
	ErrTypeDigestLengthMismatch

	// ErrTypeAlreadyRunning indicates Start was called on a running engine.
	ErrTypeAlreadyRunning

	// ErrTypeMalformedLine indicates a dictionary line that is not valid
	// UTF-8. It is recovered locally and never aborts a run.
	ErrTypeMalformedLine
)

// String returns a human-readable name for the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeInvalidDigestFormat:
		return "InvalidDigestFormat"
	case ErrTypeDictionaryNotFound:
		return "DictionaryNotFound"
	case ErrTypeDictionaryUnreadable:
		return "DictionaryUnreadable"
	case ErrTypeIO:
		return "IoError"
	case ErrTypeDigestLengthMismatch:
		return "DigestLengthMismatch"
	case ErrTypeAlreadyRunning:
		return "AlreadyRunning"
	case ErrTypeMalformedLine:
		return "MalformedLine"
	default:
		return "UnknownError"
	}
}

// SearchError is a structured error for search failures.
//
// Example usage:
//
//	var serr *searcherr.SearchError
//	if errors.As(err, &serr) && serr.Type == searcherr.ErrTypeDictionaryNotFound {
//	    // ask the user for another path
//	}
type SearchError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType

	// Path is the dictionary path involved, if any.
	Path string

	// Line is the 1-based dictionary line number involved, if any.
	Line uint64

	// Message is a human-readable description of what went wrong.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s", e.Path)
		if e.Line > 0 {
			msg += fmt.Sprintf(", line: %d", e.Line)
		}
		msg += ")"
	} else if e.Line > 0 {
		msg += fmt.Sprintf(" (line: %d)", e.Line)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for error chain unwrapping.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// New creates a new search error.
func New(errType ErrorType, message string, cause error) *SearchError {
	return &SearchError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewWithPath creates a new search error that names a dictionary path.
func NewWithPath(errType ErrorType, path, message string, cause error) *SearchError {
	return &SearchError{
		Type:    errType,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err, or any error it wraps, is a SearchError of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var serr *SearchError
	if errors.As(err, &serr) {
		return serr.Type == errType
	}
	return false
}

// TypeOf returns the ErrorType of the first SearchError in err's chain, or
// ErrTypeUnknown.
func TypeOf(err error) ErrorType {
	var serr *SearchError
	if errors.As(err, &serr) {
		return serr.Type
	}
	return ErrTypeUnknown
}
