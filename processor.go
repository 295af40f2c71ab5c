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
	"fmt"

	"github.com/apack-format/apack/lib/apackcompress"
	"github.com/apack-format/apack/lib/apackcrypto"
)

// ProcessedChunk is the result of running one chunk of plaintext through
// the write pipeline.
type ProcessedChunk struct {
	Data         []byte
	OriginalSize uint32
	StoredSize   uint32
	Compressed   bool
	Encrypted    bool
}

// chunkProcessor is the single choke point that applies the
// compress-then-encrypt write pipeline and its decrypt-then-decompress
// reverse, per SPEC_FULL.md §4.4. It is the only code in package apack
// that compresses, decompresses, encrypts or decrypts chunk data.
type chunkProcessor struct {
	compressor apackcompress.Compressor
	level      int
	encryptor  apackcrypto.AEAD
	key        []byte
}

func (p *chunkProcessor) compressionID() CompressionID {
	if p.compressor == nil {
		return CompressionNone
	}
	return CompressionID(p.compressor.ID())
}

func (p *chunkProcessor) encryptionID() EncryptionID {
	if p.encryptor == nil {
		return EncryptionNone
	}
	return EncryptionID(p.encryptor.ID())
}

// processForWrite runs plaintext through compression (if configured) then
// encryption (if configured), compression-then-encryption being both a
// correctness property (authentication covers the compressed payload) and
// a security property (no length leakage beyond the chunk).
func (p *chunkProcessor) processForWrite(plaintext []byte) (ProcessedChunk, error) {
	if len(plaintext) > MaxChunkSize {
		return ProcessedChunk{}, newErr(ErrBoundsViolation, "chunk payload exceeds MAX_CHUNK_SIZE")
	}

	data := plaintext
	compressed := false

	if p.compressor != nil {
		level := p.level
		if level == 0 {
			level = p.compressor.DefaultLevel()
		}
		out, err := p.compressor.Compress(nil, plaintext, level)
		if err != nil {
			return ProcessedChunk{}, wrapErr(ErrFormat, "compression failed", err)
		}
		if len(out) < len(plaintext) {
			data = out
			compressed = true
		}
	}

	encrypted := false
	if p.encryptor != nil {
		out, err := p.encryptor.Seal(data, p.key)
		if err != nil {
			return ProcessedChunk{}, wrapErr(ErrDecryption, "encryption failed", err)
		}
		data = out
		encrypted = true
	}

	if len(data) > MaxChunkSize {
		return ProcessedChunk{}, newErr(ErrBoundsViolation, "stored chunk exceeds MAX_CHUNK_SIZE")
	}

	return ProcessedChunk{
		Data:         data,
		OriginalSize: uint32(len(plaintext)),
		StoredSize:   uint32(len(data)),
		Compressed:   compressed,
		Encrypted:    encrypted,
	}, nil
}

// processForRead reverses processForWrite: decrypt, then decompress.
func (p *chunkProcessor) processForRead(stored []byte, originalSize uint32, compressed, encrypted bool) ([]byte, error) {
	data := stored

	if encrypted {
		if p.encryptor == nil {
			return nil, newErr(ErrDecryption, "no encryption key provided")
		}
		plain, err := p.encryptor.Open(data, p.key)
		if err != nil {
			return nil, wrapErr(ErrDecryption, "Decryption failed", err)
		}
		data = plain
	}

	if compressed {
		if p.compressor == nil {
			return nil, newErr(ErrDecompression, "no compression provider")
		}
		maxOut := int(originalSize)
		if maxOut > MaxChunkSize {
			maxOut = MaxChunkSize
		}
		out, err := p.compressor.Decompress(nil, data, maxOut)
		if err != nil {
			return nil, wrapErr(ErrDecompression, "decompression failed", err)
		}
		if len(out) != int(originalSize) {
			return nil, newErr(ErrDecompression, fmt.Sprintf("Decompression size mismatch: got %d, want %d", len(out), originalSize))
		}
		data = out
	}

	return data, nil
}
