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

package memory

import (
	"crypto/md5"
	"hash"

	hashengines "github.com/digestscan/digestscan/pkg/hashing/engines"
)

// MD5Name is the registry name of the MD5 engine.
const MD5Name = "md5"

func init() {
	hashengines.MustRegister(MD5Name, func() (hashengines.StreamingHashEngine, error) {
		return NewMD5(nil)
	})
}

// MD5 is a GenericHashEngine configured for MD5.
//
// MD5 is used here for fast dictionary lookups of existing digests, not to
// protect anything.
type MD5 = GenericHashEngine

// NewMD5 creates a new MD5 engine. If initialData is non-empty, it is hashed
// immediately.
func NewMD5(initialData []byte) (*MD5, error) {
	return NewGenericHashEngine(
		MD5Name,
		md5.Size,
		func() (hash.Hash, error) {
			return md5.New(), nil
		},
		initialData,
	)
}
