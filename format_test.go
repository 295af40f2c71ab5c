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

import "testing"

func TestLittleEndianRoundtrip(t *testing.T) {
	b16 := make([]byte, 2)
	putU16LE(b16, 0xCAFE)
	if got := getU16LE(b16); got != 0xCAFE {
		t.Fatalf("u16: got %#x, want %#x", got, 0xCAFE)
	}

	b32 := make([]byte, 4)
	putU32LE(b32, 0xDEADBEEF)
	if got := getU32LE(b32); got != 0xDEADBEEF {
		t.Fatalf("u32: got %#x, want %#x", got, 0xDEADBEEF)
	}

	b64 := make([]byte, 8)
	putU64LE(b64, 0x0123456789ABCDEF)
	if got := getU64LE(b64); got != 0x0123456789ABCDEF {
		t.Fatalf("u64: got %#x, want %#x", got, 0x0123456789ABCDEF)
	}
}

func TestU32LEByteOrder(t *testing.T) {
	b := make([]byte, 4)
	putU32LE(b, 1)
	want := []byte{0x01, 0x00, 0x00, 0x00}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, b[i], want[i])
		}
	}
}

func TestFileHeaderMarshalParseRoundtrip(t *testing.T) {
	h := fileHeader{
		VersionMajor:  VersionMajor,
		VersionMinor:  VersionMinor,
		VersionPatch:  VersionPatch,
		CompatLevel:   CompatLevel,
		ModeFlags:     FlagRandomAccess | FlagCompressed,
		ChecksumAlgo:  uint8(ChecksumCRC32),
		ChunkSize:     DefaultChunkSize,
		EntryCount:    3,
		TrailerOffset: 12345,
		CreatedAt:     1690000000,
	}
	buf := h.marshal()
	if len(buf) != FileHeaderSize {
		t.Fatalf("marshal length: got %d, want %d", len(buf), FileHeaderSize)
	}

	got, err := parseFileHeader(buf)
	if err != nil {
		t.Fatalf("parseFileHeader: %v", err)
	}
	if got.EntryCount != h.EntryCount || got.TrailerOffset != h.TrailerOffset ||
		got.ChunkSize != h.ChunkSize || got.ModeFlags != h.ModeFlags {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestParseFileHeaderRejectsBadMagic(t *testing.T) {
	h := fileHeader{ChunkSize: DefaultChunkSize, TrailerOffset: FileHeaderSize}
	buf := h.marshal()
	buf[0] ^= 0xFF

	_, err := parseFileHeader(buf)
	assertErrKind(t, err, ErrBadMagic)
}

func TestParseFileHeaderRejectsChecksumMismatch(t *testing.T) {
	h := fileHeader{ChunkSize: DefaultChunkSize, TrailerOffset: FileHeaderSize}
	buf := h.marshal()
	buf[40] ^= 0xFF // perturb created_at after the checksum was computed

	_, err := parseFileHeader(buf)
	assertErrKind(t, err, ErrHeaderChecksumMismatch)
}

func TestParseFileHeaderRejectsShortBuffer(t *testing.T) {
	_, err := parseFileHeader(make([]byte, FileHeaderSize-1))
	assertErrKind(t, err, ErrBoundsViolation)
}

func TestParseFileHeaderRejectsBadChunkSize(t *testing.T) {
	h := fileHeader{ChunkSize: MinChunkSize - 1, TrailerOffset: FileHeaderSize}
	buf := h.marshal()
	_, err := parseFileHeader(buf)
	assertErrKind(t, err, ErrInvalidChunkSize)
}

func TestChunkHeaderMarshalParseRoundtrip(t *testing.T) {
	h := chunkHeader{
		ChunkIndex:    7,
		OriginalSize:  4096,
		StoredSize:    2048,
		Checksum:      0x1234ABCD,
		ChunkFlags:    ChunkFlagCompressed | ChunkFlagEncrypted,
		CompressionID: uint8(CompressionZstd),
		EncryptionID:  uint8(EncryptionAES256GCM),
	}
	buf := h.marshal()
	if len(buf) != ChunkHeaderSize {
		t.Fatalf("marshal length: got %d, want %d", len(buf), ChunkHeaderSize)
	}

	got, err := parseChunkHeader(buf)
	if err != nil {
		t.Fatalf("parseChunkHeader: %v", err)
	}
	if got != h {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestParseChunkHeaderRejectsOversizedFields(t *testing.T) {
	h := chunkHeader{OriginalSize: MaxChunkSize + 1}
	buf := h.marshal()
	_, err := parseChunkHeader(buf)
	assertErrKind(t, err, ErrBoundsViolation)
}

// assertErrKind fails the test unless err is an *Error of the given kind.
func assertErrKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want kind %v", kind)
	}
	aerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("got error of type %T, want *apack.Error: %v", err, err)
	}
	if aerr.Kind != kind {
		t.Fatalf("got error kind %v, want %v: %v", aerr.Kind, kind, err)
	}
}
