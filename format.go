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

// Package apack provides access to APACK (Archive PACK) files: a chunked,
// random-access container format for named byte blobs with end-to-end
// integrity, optional per-chunk compression and optional per-chunk
// authenticated encryption.
//
// APACK is a relatively low-level format. Compression and encryption
// codecs are pluggable; see the sibling lib/apackcompress and
// lib/apackcrypto packages for concrete providers.
package apack

import "time"

// Size and count bounds. See the format specification for rationale.
const (
	FileHeaderSize = 64
	ChunkHeaderSize = 24

	TrailerPrefixSize = 4 + 8 + 4 // magic + toc_count + toc_checksum

	// TOCRecordFixedSize is the fixed-width prefix of a TOC record, before
	// the variable-length name, MIME, and attribute bytes. See the Trailer
	// layout in SPEC_FULL.md §6.1, which is authoritative over the looser
	// "40 bytes" description in the distilled spec's §3.
	TOCRecordFixedSize = 52

	AttrRecordFixedSize = 8 // key_len + type_tag + reserved + value_len

	MinChunkSize     = 4 * 1024
	DefaultChunkSize = 256 * 1024
	MaxChunkSize     = 64 * 1024 * 1024

	MaxEntries = 1_000_000

	MaxNameLen = 65535
	MaxMimeLen = 65535
)

// Magic byte sequences. Readers must compare these byte-for-byte.
var (
	fileMagic    = [6]byte{'A', 'P', 'A', 'C', 'K', 0x00}
	chunkMagic   = [4]byte{'C', 'H', 'N', 'K'}
	entryMagic   = [4]byte{'E', 'N', 'T', 'R'}
	trailerMagic = [4]byte{'A', 'T', 'R', 'L'}
)

// Mode flags, stored in the file header's mode_flags byte.
const (
	FlagCompressed   uint8 = 0x01
	FlagEncrypted    uint8 = 0x02
	FlagECC          uint8 = 0x04
	FlagRandomAccess uint8 = 0x08
)

// Chunk flags, stored in a chunk header's chunk_flags byte.
const (
	ChunkFlagCompressed uint8 = 0x01
	ChunkFlagEncrypted  uint8 = 0x02
)

// CompressionID identifies the compression codec used by a chunk or an
// entire entry.
type CompressionID uint8

const (
	CompressionNone CompressionID = 0
	CompressionZstd CompressionID = 1
	CompressionLZ4  CompressionID = 2
)

// EncryptionID identifies the AEAD codec used by a chunk or an entire
// entry.
type EncryptionID uint8

const (
	EncryptionNone              EncryptionID = 0
	EncryptionAES256GCM         EncryptionID = 1
	EncryptionChaCha20Poly1305  EncryptionID = 2
)

// ChecksumID identifies the checksum algorithm. CRC32 is the sole value
// for format version 1.
type ChecksumID uint8

const (
	ChecksumCRC32 ChecksumID = 1
)

// AttrType identifies the tagged-value variant of an Attribute.
type AttrType uint8

const (
	AttrTypeString AttrType = 1
	AttrTypeLong   AttrType = 2
	AttrTypeBool   AttrType = 3
)

// FormatVersion is the (major, minor, patch) triple written by this
// package's Writer. Readers accept any major (see SPEC_FULL.md's Open
// Question resolution): the reference behavior is lenient.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
	VersionPatch uint16 = 0
	CompatLevel  uint16 = 0
)

func nowUnix() uint64 {
	return uint64(time.Now().Unix())
}

// --- little-endian primitive helpers -------------------------------------

func putU16LE(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getU16LE(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0]) | uint16(b[1])<<8
}

func putU32LE(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32LE(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putU64LE(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

func getU64LE(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
