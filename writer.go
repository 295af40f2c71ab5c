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
	"bytes"
	"io"
	"os"
)

// Writer builds a new APACK archive on a write-seekable sink. A Writer
// requires exclusive access to its sink for its lifetime; see
// SPEC_FULL.md §5.
//
// Like the teacher's rac.Writer, a Writer is not safe for concurrent use,
// and once any method returns an error that error is sticky: every
// subsequent call returns it again without touching the sink.
type Writer struct {
	sink io.WriteSeeker
	cfg  WriterConfig
	proc chunkProcessor

	names       map[string]bool
	records     []tocRecord
	nextEntryID uint64
	nextChunk   uint32
	offset      uint64

	anyCompressed bool
	anyEncrypted  bool

	closed bool
	err    error
}

// NewWriter reserves the 64-byte header region on sink and returns a
// Writer ready to accept entries. The header is rewritten in full by
// Close, once the trailer offset is known.
func NewWriter(sink io.WriteSeeker, opts ...Option) (*Writer, error) {
	if sink == nil {
		return nil, newErr(ErrNullArgument, "sink must not be nil")
	}

	cfg := WriterConfig{ChunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkSize < MinChunkSize || cfg.ChunkSize > MaxChunkSize {
		return nil, newErr(ErrInvalidChunkSize, "chunk_size out of range")
	}
	if cfg.Encryptor != nil && len(cfg.Key) != cfg.Encryptor.KeyLengthBytes() {
		return nil, newErr(ErrFormat, "encryption key length does not match provider")
	}
	if len(cfg.Comment) > MaxNameLen {
		return nil, newErr(ErrFormat, "archive comment exceeds 65535 bytes")
	}

	if _, err := sink.Write(make([]byte, FileHeaderSize)); err != nil {
		return nil, wrapErr(ErrIo, "write header placeholder", err)
	}

	return &Writer{
		sink: sink,
		cfg:  cfg,
		proc: chunkProcessor{
			compressor: cfg.Compressor,
			level:      cfg.Level,
			encryptor:  cfg.Encryptor,
			key:        cfg.Key,
		},
		names:       make(map[string]bool),
		nextEntryID: 1,
		offset:      FileHeaderSize,
	}, nil
}

// CreateFile is a convenience wrapper over os.Create, returning a close
// func that finalizes the Writer and then closes the underlying file (the
// scoped-resource style of SPEC_FULL.md §5/§9: `defer close()` leaves
// nothing open on any return path).
func CreateFile(path string, opts ...Option) (*Writer, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, wrapErr(ErrIo, "create file", err)
	}
	w, err := NewWriter(f, opts...)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return w, func() error {
		werr := w.Close()
		cerr := f.Close()
		if werr != nil {
			return werr
		}
		return cerr
	}, nil
}

// SetArchiveComment sets (or replaces) the archive-level comment written
// by Close. See SPEC_FULL.md §3.
func (w *Writer) SetArchiveComment(comment string) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return newErr(ErrAlreadyClosed, "writer is closed")
	}
	if len(comment) > MaxNameLen {
		err := newErr(ErrFormat, "archive comment exceeds 65535 bytes")
		w.err = err
		return err
	}
	w.cfg.Comment = comment
	return nil
}

// AddBytes appends a new entry holding data in full, with no MIME type or
// attributes.
func (w *Writer) AddBytes(name string, data []byte) error {
	return w.AddStream(EntryMetadata{Name: name}, bytes.NewReader(data))
}

// AddMetadataBytes is AddBytes with a full metadata bundle (MIME type,
// attributes).
func (w *Writer) AddMetadataBytes(meta EntryMetadata, data []byte) error {
	return w.AddStream(meta, bytes.NewReader(data))
}

// AddFile opens path and adds its contents as an entry named name.
func (w *Writer) AddFile(name string, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return wrapErr(ErrIo, "open source file", err)
	}
	defer f.Close()
	return w.AddStream(EntryMetadata{Name: name}, f)
}

// AddStream appends a new entry, reading its payload from r until EOF and
// slicing it into chunk_size pieces. r of unknown or unbounded length is
// fine; AddStream never reads ahead beyond one chunk_size buffer.
func (w *Writer) AddStream(meta EntryMetadata, r io.Reader) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return newErr(ErrAlreadyClosed, "writer is closed")
	}
	if err := validateName(meta.Name); err != nil {
		w.err = err
		return err
	}
	if err := validateMime(meta.Mime); err != nil {
		w.err = err
		return err
	}
	if err := validateAttributes(meta.Attributes); err != nil {
		w.err = err
		return err
	}
	if w.names[meta.Name] {
		err := newErr(ErrDuplicateName, "entry name already present: "+meta.Name)
		w.err = err
		return err
	}
	if uint64(len(w.records)) >= MaxEntries {
		err := newErr(ErrTooManyEntries, "entry count would exceed MAX_ENTRIES")
		w.err = err
		return err
	}

	entryID := w.nextEntryID
	entryOffset := w.offset
	firstChunk := w.nextChunk

	var originalSize, storedSize uint64
	var chunkCount uint32
	entryCompressed, entryEncrypted := false, false

	buf := make([]byte, w.cfg.ChunkSize)
	for {
		n, rerr := io.ReadFull(r, buf)
		switch rerr {
		case nil:
			// Full chunk_size buffer; more may follow.
		case io.ErrUnexpectedEOF:
			rerr = io.EOF // a short final chunk, not an error
		case io.EOF:
			// n == 0: nothing left to write, including for an empty entry.
		default:
			err := wrapErr(ErrIo, "read entry payload", rerr)
			w.err = err
			return err
		}

		if n > 0 {
			processed, perr := w.proc.processForWrite(buf[:n])
			if perr != nil {
				w.err = perr
				return perr
			}

			ch := chunkHeader{
				ChunkIndex:    chunkCount,
				OriginalSize:  processed.OriginalSize,
				StoredSize:    processed.StoredSize,
				Checksum:      checksum(processed.Data),
				CompressionID: uint8(w.proc.compressionID()),
				EncryptionID:  uint8(w.proc.encryptionID()),
			}
			if processed.Compressed {
				ch.ChunkFlags |= ChunkFlagCompressed
				entryCompressed = true
			}
			if processed.Encrypted {
				ch.ChunkFlags |= ChunkFlagEncrypted
				entryEncrypted = true
			}

			if _, werr := w.sink.Write(ch.marshal()); werr != nil {
				err := wrapErr(ErrIo, "write chunk header", werr)
				w.err = err
				return err
			}
			if _, werr := w.sink.Write(processed.Data); werr != nil {
				err := wrapErr(ErrIo, "write chunk data", werr)
				w.err = err
				return err
			}

			w.offset += uint64(ChunkHeaderSize) + uint64(len(processed.Data))
			originalSize += uint64(processed.OriginalSize)
			storedSize += uint64(processed.StoredSize)
			chunkCount++
			w.nextChunk++
		}

		if rerr == io.EOF {
			break
		}
	}

	var entryFlags uint8
	if entryCompressed {
		entryFlags |= FlagCompressed
	}
	if entryEncrypted {
		entryFlags |= FlagEncrypted
	}

	w.records = append(w.records, tocRecord{
		EntryID:       entryID,
		EntryOffset:   entryOffset,
		OriginalSize:  originalSize,
		StoredSize:    storedSize,
		FirstChunk:    firstChunk,
		ChunkCount:    chunkCount,
		EntryFlags:    entryFlags,
		ChecksumAlgo:  uint8(ChecksumCRC32),
		CompressionID: uint8(w.proc.compressionID()),
		EncryptionID:  uint8(w.proc.encryptionID()),
		Name:          meta.Name,
		Mime:          meta.Mime,
		Attributes:    meta.Attributes,
	})
	w.names[meta.Name] = true
	w.nextEntryID++
	if entryCompressed {
		w.anyCompressed = true
	}
	if entryEncrypted {
		w.anyEncrypted = true
	}
	return nil
}

// Close finalizes the trailer and rewrites the file header. It is safe to
// call more than once; the second and later calls are a no-op returning
// the same result as the first.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	if w.err != nil {
		w.closed = true
		return w.err
	}

	trailerOffset := w.offset
	trailerBytes, terr := encodeTrailer(w.records, w.cfg.Comment)
	if terr != nil {
		w.err = terr
		w.closed = true
		return terr
	}
	if _, werr := w.sink.Write(trailerBytes); werr != nil {
		w.err = wrapErr(ErrIo, "write trailer", werr)
		w.closed = true
		return w.err
	}

	modeFlags := FlagRandomAccess
	if w.anyCompressed {
		modeFlags |= FlagCompressed
	}
	if w.anyEncrypted {
		modeFlags |= FlagEncrypted
	}

	h := fileHeader{
		VersionMajor:  VersionMajor,
		VersionMinor:  VersionMinor,
		VersionPatch:  VersionPatch,
		CompatLevel:   CompatLevel,
		ModeFlags:     modeFlags,
		ChecksumAlgo:  uint8(ChecksumCRC32),
		ChunkSize:     w.cfg.ChunkSize,
		EntryCount:    uint64(len(w.records)),
		TrailerOffset: trailerOffset,
		CreatedAt:     nowUnix(),
	}
	if _, serr := w.sink.Seek(0, io.SeekStart); serr != nil {
		w.err = wrapErr(ErrIo, "seek to header", serr)
		w.closed = true
		return w.err
	}
	if _, werr := w.sink.Write(h.marshal()); werr != nil {
		w.err = wrapErr(ErrIo, "write final header", werr)
		w.closed = true
		return w.err
	}

	w.closed = true
	return nil
}
