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

// Package utils holds small helpers shared by the CLI and the library
// packages.
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/digestscan/digestscan/pkg/searcherr"
)

// PathValidator checks that a path names an existing regular file before any
// work starts on it.
type PathValidator struct {
	fieldName string
	path      string
}

// NewPathValidator creates a new path validator for the named field.
func NewPathValidator(fieldName, path string) *PathValidator {
	return &PathValidator{
		fieldName: fieldName,
		path:      path,
	}
}

// Validate checks that the path is not empty, exists, and is not a directory.
//
// A missing or empty path yields a DictionaryNotFound error. A path that
// exists but cannot be inspected, or that is a directory, yields a
// DictionaryUnreadable error.
func (v *PathValidator) Validate() error {
	if v.path == "" {
		return searcherr.New(searcherr.ErrTypeDictionaryNotFound,
			fmt.Sprintf("%s is required", v.fieldName), nil)
	}

	info, err := os.Stat(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return searcherr.NewWithPath(searcherr.ErrTypeDictionaryNotFound, v.path,
				fmt.Sprintf("%s does not exist", v.fieldName), err)
		}
		return searcherr.NewWithPath(searcherr.ErrTypeDictionaryUnreadable, v.path,
			fmt.Sprintf("checking %s", v.fieldName), err)
	}

	if info.IsDir() {
		return searcherr.NewWithPath(searcherr.ErrTypeDictionaryUnreadable, v.path,
			fmt.Sprintf("%s is a directory, expected file", v.fieldName), nil)
	}

	return nil
}

// ValidateFileExists validates that a path exists and is not a directory.
func ValidateFileExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path).Validate()
}
