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

package apack

import (
	"github.com/apack-format/apack/lib/apackcompress"
	"github.com/apack-format/apack/lib/apackcrypto"
)

// Option configures a Writer. The zero value of every field it can touch
// has a documented default, so WithXxx functions are a convenience, not a
// requirement; a caller may also build a Writer by hand against the
// exported WriterConfig fields.
type Option func(*WriterConfig)

// WriterConfig bundles a Writer's optional knobs. See SPEC_FULL.md §4.1.
type WriterConfig struct {
	// ChunkSize is the slicing granularity, bounded to
	// [MinChunkSize, MaxChunkSize]. Zero means DefaultChunkSize.
	ChunkSize uint32

	// Compressor, if non-nil, is applied to every chunk's payload before
	// encryption. Level is the provider-specific compression level; zero
	// means the provider's own default.
	Compressor apackcompress.Compressor
	Level      int

	// Encryptor, if non-nil, is applied to every chunk's (possibly
	// compressed) payload. Key must satisfy Encryptor.KeyLengthBytes().
	Encryptor apackcrypto.AEAD
	Key       []byte

	// Comment is an optional free-text, UTF-8 archive-level comment
	// (SPEC_FULL.md §3 expansion), bounded to 65535 bytes.
	Comment string
}

// WithChunkSize overrides the default chunk slicing granularity.
func WithChunkSize(n uint32) Option {
	return func(c *WriterConfig) { c.ChunkSize = n }
}

// WithCompression configures the chunk processor's compressor and level.
// A level of zero selects the provider's own default.
func WithCompression(compressor apackcompress.Compressor, level int) Option {
	return func(c *WriterConfig) {
		c.Compressor = compressor
		c.Level = level
	}
}

// WithEncryption configures the chunk processor's AEAD and key.
func WithEncryption(encryptor apackcrypto.AEAD, key []byte) Option {
	return func(c *WriterConfig) {
		c.Encryptor = encryptor
		c.Key = key
	}
}

// WithComment sets the archive-level comment.
func WithComment(comment string) Option {
	return func(c *WriterConfig) { c.Comment = comment }
}

// ReaderOption configures a Reader.
type ReaderOption func(*ReaderConfig)

// ReaderConfig bundles a Reader's optional knobs.
type ReaderConfig struct {
	// Decryptor, if non-nil, is used to decrypt any encrypted chunk.
	// Reading an encrypted archive without one fails with
	// "no encryption key provided".
	Decryptor apackcrypto.AEAD
	Key       []byte

	// Decompressor, if non-nil, is used to decompress any compressed
	// chunk. Reading a compressed archive without one fails with
	// "no compression provider".
	Decompressor apackcompress.Compressor
}

// WithDecryption configures the Reader's AEAD and key.
func WithDecryption(decryptor apackcrypto.AEAD, key []byte) ReaderOption {
	return func(c *ReaderConfig) {
		c.Decryptor = decryptor
		c.Key = key
	}
}

// WithDecompression configures the Reader's decompressor.
func WithDecompression(decompressor apackcompress.Compressor) ReaderOption {
	return func(c *ReaderConfig) {
		c.Decompressor = decompressor
	}
}
