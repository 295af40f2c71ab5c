// Copyright 2019 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ----------------

// Package apackcompress declares the pluggable compression codec
// abstraction used by an APACK chunk processor. Concrete codecs live in
// sibling packages (zstdcodec, lz4codec); this package only declares the
// capability set every codec must satisfy.
package apackcompress

import "errors"

// ID identifies a compression codec the way an APACK chunk header's
// compression_id byte does. Its numeric values are chosen to match
// apack.CompressionID one-for-one, so callers can convert with a plain
// type conversion without this package importing the root apack package
// (which would create an import cycle, since apack's chunk processor
// imports this package).
type ID uint8

const (
	IDNone ID = 0
	IDZstd ID = 1
	IDLZ4  ID = 2
)

// ErrOutputTooLarge is returned by Decompress when decompressing would
// exceed maxOutputSize.
var ErrOutputTooLarge = errors.New("apackcompress: decompressed output exceeds max output size")

// Compressor is the capability set a compression codec provider must
// satisfy. See SPEC_FULL.md §4.5.
//
// Contracts:
//   - Decompress(Compress(x, L), any >= len(x)) == x for all x and all
//     supported levels L.
//   - Decompress must refuse to produce more than maxOutputSize bytes.
//   - Compress must not expand input into an unrecoverable form; the
//     caller (the chunk processor) is responsible for discarding a
//     compressed result that did not shrink the input.
type Compressor interface {
	ID() ID
	DefaultLevel() int

	// Compress appends the compressed form of src to dst (which may be
	// nil) and returns the result.
	Compress(dst, src []byte, level int) ([]byte, error)

	// Decompress appends the decompressed form of src to dst (which may
	// be nil) and returns the result. It must fail rather than produce
	// more than maxOutputSize bytes of output.
	Decompress(dst, src []byte, maxOutputSize int) ([]byte, error)
}
