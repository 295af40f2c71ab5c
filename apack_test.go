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

// Package apack_test holds black-box, end-to-end scenarios driven only
// through apack's exported API, exercising real (not faked) compression
// and encryption providers.
package apack_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apack-format/apack"
	"github.com/apack-format/apack/lib/apackcompress/zstdcodec"
	"github.com/apack-format/apack/lib/apackcrypto/aesgcm"
)

func tempArchivePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "archive.apack")
}

// TestScenarioAPlainRoundtrip is spec scenario A.
func TestScenarioAPlainRoundtrip(t *testing.T) {
	require := require.New(t)
	path := tempArchivePath(t)
	w, closeW, err := apack.CreateFile(path)
	require.NoError(err)
	require.NoError(w.AddBytes("hello.txt", []byte("Hello, World!")))
	require.NoError(closeW())

	r, closeR, err := apack.OpenFile(path)
	require.NoError(err)
	defer closeR()
	defer r.Close()

	assert := assert.New(t)
	assert.Equal(uint64(1), r.EntryCount())
	e, ok := r.Get("hello.txt")
	assert.True(ok)
	assert.Empty(e.Mime)
	got, err := r.ReadAll("hello.txt")
	require.NoError(err)
	assert.Equal("Hello, World!", string(got))
}

// TestScenarioBEmptyEntry is spec scenario B.
func TestScenarioBEmptyEntry(t *testing.T) {
	require := require.New(t)
	path := tempArchivePath(t)
	w, closeW, err := apack.CreateFile(path)
	require.NoError(err)
	require.NoError(w.AddBytes("empty.bin", nil))
	require.NoError(closeW())

	r, closeR, err := apack.OpenFile(path)
	require.NoError(err)
	defer closeR()
	defer r.Close()

	assert := assert.New(t)
	assert.Equal(uint64(1), r.EntryCount())
	e, _ := r.Get("empty.bin")
	assert.Zero(e.ChunkCount)
	got, err := r.ReadAll("empty.bin")
	require.NoError(err)
	assert.Empty(got)
}

// TestScenarioCMultiChunkEntryAtBoundary is spec scenario C.
func TestScenarioCMultiChunkEntryAtBoundary(t *testing.T) {
	path := tempArchivePath(t)
	const chunkSize = apack.MinChunkSize
	payload := make([]byte, 5*chunkSize)
	rand.New(rand.NewSource(42)).Read(payload)

	w, closeW, err := apack.CreateFile(path, apack.WithChunkSize(chunkSize))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.AddBytes("data.bin", payload); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, closeR, err := apack.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer closeR()
	defer r.Close()

	e, ok := r.Get("data.bin")
	if !ok {
		t.Fatalf("entry not found")
	}
	if e.ChunkCount != 5 {
		t.Fatalf("chunk_count: got %d, want 5", e.ChunkCount)
	}
	if e.OriginalSize != uint64(len(payload)) || e.StoredSize != uint64(len(payload)) {
		t.Fatalf("sizes: got original=%d stored=%d, want %d", e.OriginalSize, e.StoredSize, len(payload))
	}
	got, err := r.ReadAll("data.bin")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("roundtrip mismatch")
	}
}

// TestScenarioDCompressionSkipOnIncompressibleData is spec scenario D.
func TestScenarioDCompressionSkipOnIncompressibleData(t *testing.T) {
	path := tempArchivePath(t)
	payload := make([]byte, 100)
	rand.New(rand.NewSource(42)).Read(payload)

	w, closeW, err := apack.CreateFile(path, apack.WithCompression(zstdcodec.Codec{}, 0))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.AddBytes("random.bin", payload); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, closeR, err := apack.OpenFile(path, apack.WithDecompression(zstdcodec.Codec{}))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer closeR()
	defer r.Close()

	e, _ := r.Get("random.bin")
	if e.Compressed {
		t.Fatalf("got compressed=true for incompressible random data")
	}
	if e.StoredSize != 100 {
		t.Fatalf("stored_size: got %d, want 100", e.StoredSize)
	}
	got, err := r.ReadAll("random.bin")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("roundtrip mismatch")
	}
}

// TestScenarioESingleBitFlipDetection is spec scenario E: for every byte
// offset within the chunk's data region, for every bit, flipping it must
// make read_all fail with an error whose message contains "checksum".
func TestScenarioESingleBitFlipDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("bit-exhaustive scan skipped in -short mode")
	}
	path := tempArchivePath(t)
	payload := []byte("Test content must not be corrupted")

	w, closeW, err := apack.CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.AddBytes("test.txt", payload); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// Locate the chunk's data region: right after the 24-byte chunk header
	// that immediately follows the 64-byte file header for this
	// single-entry, single-chunk archive.
	dataStart := apack.FileHeaderSize + apack.ChunkHeaderSize
	dataEnd := dataStart + len(payload)

	for offset := dataStart; offset < dataEnd; offset++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := append([]byte{}, original...)
			corrupted[offset] ^= 1 << uint(bit)

			corruptPath := filepath.Join(t.TempDir(), "corrupt.apack")
			if err := os.WriteFile(corruptPath, corrupted, 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			r, closeR, err := apack.OpenFile(corruptPath)
			if err != nil {
				// A corrupted header/trailer field failing at open is also
				// an acceptable "fails cleanly" outcome for this offset.
				continue
			}
			_, err = r.ReadAll("test.txt")
			closeR()
			r.Close()
			if err == nil {
				t.Fatalf("offset %d bit %d: got nil error, want a checksum error", offset-dataStart, bit)
			}
			if !strings.Contains(err.Error(), "checksum") {
				t.Fatalf("offset %d bit %d: error %q does not contain %q", offset-dataStart, bit, err.Error(), "checksum")
			}
		}
	}
}

// TestScenarioFWrongKeyRejection is spec scenario F.
func TestScenarioFWrongKeyRejection(t *testing.T) {
	path := tempArchivePath(t)
	keyA := bytes.Repeat([]byte{0xAA}, 32)
	keyB := bytes.Repeat([]byte{0xBB}, 32)

	w, closeW, err := apack.CreateFile(path, apack.WithEncryption(aesgcm.AEAD{}, keyA))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.AddBytes("secret.bin", []byte("top secret payload")); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, closeR, err := apack.OpenFile(path, apack.WithDecryption(aesgcm.AEAD{}, keyB))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer closeR()
	defer r.Close()

	_, err = r.ReadAll("secret.bin")
	if err == nil {
		t.Fatalf("got nil error decrypting with the wrong key")
	}
	if !strings.Contains(err.Error(), "Decryption failed") {
		t.Fatalf("error %q does not contain %q", err.Error(), "Decryption failed")
	}
}

// TestScenarioGDecompressionBombResistance is spec scenario G: rewriting a
// compressed chunk header's original_size to 1 GiB must fail fast rather
// than allocate anywhere near that much.
func TestScenarioGDecompressionBombResistance(t *testing.T) {
	path := tempArchivePath(t)
	compressible := bytes.Repeat([]byte("compress me please "), 1000)

	w, closeW, err := apack.CreateFile(path, apack.WithCompression(zstdcodec.Codec{}, 0))
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.AddBytes("big.txt", compressible); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// original_size is the chunk header's second u32 field, 4 bytes after
	// the 4-byte chunk magic and 4-byte chunk_index.
	originalSizeOffset := apack.FileHeaderSize + 8
	rewriteU32LE(raw[originalSizeOffset:originalSizeOffset+4], 1<<30)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, closeR, err := apack.OpenFile(path, apack.WithDecompression(zstdcodec.Codec{}))
	if err != nil {
		// Rejecting at open is an equally valid way to satisfy "fails
		// fast"; the chunk header's own bounds check runs at ReadAll.
		return
	}
	defer closeR()
	defer r.Close()
	if _, err := r.ReadAll("big.txt"); err == nil {
		t.Fatalf("got nil error reading a chunk claiming a 1 GiB original_size")
	}
}

func rewriteU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// TestScenarioHTrailingGarbageTolerance is spec scenario H.
func TestScenarioHTrailingGarbageTolerance(t *testing.T) {
	path := tempArchivePath(t)
	w, closeW, err := apack.CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	payload := []byte("unaffected by trailing garbage")
	if err := w.AddBytes("keep.txt", payload); err != nil {
		t.Fatalf("AddBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatalf("OpenFile for append: %v", err)
	}
	garbage := make([]byte, 1<<20)
	rand.New(rand.NewSource(1)).Read(garbage)
	if _, err := f.Write(garbage); err != nil {
		t.Fatalf("Write garbage: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close appended file: %v", err)
	}

	r, closeR, err := apack.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile with trailing garbage: %v", err)
	}
	defer closeR()
	defer r.Close()
	got, err := r.ReadAll("keep.txt")
	if err != nil {
		t.Fatalf("ReadAll with trailing garbage: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

// TestConcurrentReaders exercises spec.md §5: 10 independent Readers
// opened on the same archive path, each with its own *os.File and read
// position, reading concurrently must all succeed.
func TestConcurrentReaders(t *testing.T) {
	path := tempArchivePath(t)
	entries := make(map[string]string, 20)

	w, closeW, err := apack.CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("entry-%02d.txt", i)
		payload := fmt.Sprintf("payload for entry %d", i)
		if err := w.AddBytes(name, []byte(payload)); err != nil {
			t.Fatalf("AddBytes(%s): %v", name, err)
		}
		entries[name] = payload
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	const readerCount = 10
	var wg sync.WaitGroup
	errs := make([]error, readerCount)
	for i := 0; i < readerCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			r, closeR, err := apack.OpenFile(path)
			if err != nil {
				errs[idx] = fmt.Errorf("OpenFile: %w", err)
				return
			}
			defer closeR()
			defer r.Close()

			for name, want := range entries {
				got, err := r.ReadAll(name)
				if err != nil {
					errs[idx] = fmt.Errorf("ReadAll(%s): %w", name, err)
					return
				}
				if string(got) != want {
					errs[idx] = fmt.Errorf("%s: got %q, want %q", name, got, want)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("reader %d failed: %v", i, err)
		}
	}
}

// TestUnicodeFidelity exercises invariant 8: names and string attributes
// round-trip byte-for-byte, with no Unicode normalization.
func TestUnicodeFidelity(t *testing.T) {
	path := tempArchivePath(t)
	nfc := "caf\u00e9"  // U+00E9 LATIN SMALL LETTER E WITH ACUTE (NFC)
	nfd := "cafe\u0301" // 'e' + U+0301 COMBINING ACUTE ACCENT (NFD)

	w, closeW, err := apack.CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.AddMetadataBytes(apack.EntryMetadata{
		Name:       nfc,
		Attributes: []apack.Attribute{apack.StringAttr("nfd_value", nfd)},
	}, []byte("x")); err != nil {
		t.Fatalf("AddMetadataBytes: %v", err)
	}
	if err := closeW(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, closeR, err := apack.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer closeR()
	defer r.Close()

	e, ok := r.Get(nfc)
	if !ok {
		t.Fatalf("entry named %q (NFC) not found distinct from NFD", nfc)
	}
	if e.Attributes[0].Str != nfd {
		t.Fatalf("attribute value: got %q, want %q (byte-distinct from NFC)", e.Attributes[0].Str, nfd)
	}
	if nfc == nfd {
		t.Fatalf("test fixture bug: NFC and NFD forms compared equal as Go strings")
	}
}

// TestDeterministicPayloadAcrossIdenticalWrites exercises invariant 2: two
// archives built from the same input and configuration decode to
// byte-identical entry payloads.
func TestDeterministicPayloadAcrossIdenticalWrites(t *testing.T) {
	payload := bytes.Repeat([]byte("deterministic "), 500)
	readBack := func() []byte {
		path := tempArchivePath(t)
		w, closeW, err := apack.CreateFile(path, apack.WithCompression(zstdcodec.Codec{}, 0))
		if err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if err := w.AddBytes("a.bin", payload); err != nil {
			t.Fatalf("AddBytes: %v", err)
		}
		if err := closeW(); err != nil {
			t.Fatalf("close: %v", err)
		}
		r, closeR, err := apack.OpenFile(path, apack.WithDecompression(zstdcodec.Codec{}))
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		defer closeR()
		defer r.Close()
		got, err := r.ReadAll("a.bin")
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		return got
	}

	first := readBack()
	second := readBack()
	if !bytes.Equal(first, second) {
		t.Fatalf("non-deterministic payload across identical writes")
	}
	if !bytes.Equal(first, payload) {
		t.Fatalf("roundtrip mismatch")
	}
}
