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

// Package lz4codec wraps github.com/pierrec/lz4/v4's block API as an
// apackcompress.Compressor.
package lz4codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/apack-format/apack/lib/apackcompress"
)

// DefaultLevel is the provider's default compression level: fast mode,
// not the (slower) high-compression mode.
const DefaultLevel = 0

// Codec is an apackcompress.Compressor backed by pierrec/lz4/v4's
// block-compression functions. Each chunk is one independent LZ4 block,
// which fits APACK's per-chunk framing (no LZ4 frame header is needed,
// since original_size and stored_size already travel in the chunk
// header).
type Codec struct{}

var _ apackcompress.Compressor = Codec{}

func (Codec) ID() apackcompress.ID { return apackcompress.IDLZ4 }

func (Codec) DefaultLevel() int { return DefaultLevel }

func (Codec) Compress(dst, src []byte, level int) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	out := make([]byte, bound)

	var n int
	var err error
	if level <= 0 {
		var c lz4.Compressor
		n, err = c.CompressBlock(src, out)
	} else {
		var c lz4.CompressorHC
		c.Level = lz4.CompressionLevel(1 << uint(6+level))
		n, err = c.CompressBlock(src, out)
	}
	if err != nil {
		return nil, fmt.Errorf("lz4codec: compress: %w", err)
	}
	if n == 0 {
		// Incompressible input: pierrec/lz4 signals this by returning n==0
		// with a nil error. The chunk processor discards compressed output
		// that is not strictly smaller than the input, so this returns the
		// input bytes unchanged, which are never smaller than the input.
		return append(dst, src...), nil
	}
	return append(dst, out[:n]...), nil
}

func (Codec) Decompress(dst, src []byte, maxOutputSize int) ([]byte, error) {
	out := make([]byte, maxOutputSize)
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, fmt.Errorf("lz4codec: decompress: %w", err)
	}
	return append(dst, out[:n]...), nil
}
