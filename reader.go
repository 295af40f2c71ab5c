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
	"io"
	"os"

	"github.com/apack-format/apack/lib/apackio"
)

// Reader opens an existing APACK archive from a seekable byte source. A
// Reader is not safe for concurrent use by itself, but independent
// Readers over independent io.ReadSeekers of the same underlying file may
// run concurrently; see OpenFile and SPEC_FULL.md §5.
type Reader struct {
	src  io.ReadSeeker
	cfg  ReaderConfig
	proc chunkProcessor

	header     fileHeader
	comment    string
	fileLength int64

	byName map[string]*Entry
	byID   map[uint64]*Entry
	order  []*Entry

	closed bool
	err    error
}

// NewReader runs the opening protocol (SPEC_FULL.md §4.2 / spec steps 1-7)
// against src and returns a ready Reader.
func NewReader(src io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	if src == nil {
		return nil, newErr(ErrNullArgument, "src must not be nil")
	}
	cfg := ReaderConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	fileLength, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, wrapErr(ErrIo, "seek to end", err)
	}
	if fileLength < FileHeaderSize {
		return nil, newErr(ErrBoundsViolation, "file too short for a file header")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, wrapErr(ErrIo, "seek to start", err)
	}

	headerBuf := make([]byte, FileHeaderSize)
	if _, err := io.ReadFull(src, headerBuf); err != nil {
		return nil, wrapErr(ErrIo, "read file header", err)
	}
	header, err := parseFileHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	if int64(header.TrailerOffset) > fileLength-TrailerPrefixSize {
		return nil, newErr(ErrBoundsViolation, "trailer_offset leaves no room for the trailer prefix")
	}

	if _, err := src.Seek(int64(header.TrailerOffset), io.SeekStart); err != nil {
		return nil, wrapErr(ErrIo, "seek to trailer", err)
	}
	prefixBuf := make([]byte, TrailerPrefixSize)
	if _, err := io.ReadFull(src, prefixBuf); err != nil {
		return nil, wrapErr(ErrIo, "read trailer prefix", err)
	}
	tocCount, err := parseTrailerPrefix(prefixBuf)
	if err != nil {
		return nil, err
	}
	if tocCount != header.EntryCount {
		return nil, newErr(ErrFormat, "trailer toc_count does not match header entry_count")
	}
	tocChecksum := parseTrailerTOCChecksum(prefixBuf)

	remaining := fileLength - (int64(header.TrailerOffset) + TrailerPrefixSize)
	if remaining < 0 {
		remaining = 0
	}
	tocBuf := make([]byte, remaining)
	if _, err := io.ReadFull(src, tocBuf); err != nil {
		return nil, wrapErr(ErrIo, "read TOC bytes", err)
	}
	records, comment, err := parseTOCRecords(tocBuf, tocCount, tocChecksum)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Entry, len(records))
	byID := make(map[uint64]*Entry, len(records))
	order := make([]*Entry, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.EntryOffset < FileHeaderSize || rec.EntryOffset >= header.TrailerOffset {
			return nil, newErr(ErrBoundsViolation, "entry_offset out of range")
		}
		if rec.StoredSize > header.TrailerOffset-rec.EntryOffset {
			return nil, newErr(ErrBoundsViolation, "entry stored_size exceeds available space")
		}
		if rec.ChunkCount == 0 {
			if rec.OriginalSize != 0 {
				return nil, newErr(ErrBoundsViolation, "zero chunk_count but nonzero original_size")
			}
		} else if rec.OriginalSize > uint64(rec.ChunkCount)*MaxChunkSize {
			return nil, newErr(ErrBoundsViolation, "original_size exceeds chunk_count*MAX_CHUNK_SIZE")
		}
		if _, dup := byName[rec.Name]; dup {
			return nil, newErr(ErrDuplicateName, "duplicate entry name in TOC: "+rec.Name)
		}

		e := &Entry{
			ID:            rec.EntryID,
			Name:          rec.Name,
			Mime:          rec.Mime,
			Attributes:    rec.Attributes,
			OriginalSize:  rec.OriginalSize,
			StoredSize:    rec.StoredSize,
			FirstChunk:    rec.FirstChunk,
			ChunkCount:    rec.ChunkCount,
			Compressed:    rec.EntryFlags&FlagCompressed != 0,
			Encrypted:     rec.EntryFlags&FlagEncrypted != 0,
			CompressionID: CompressionID(rec.CompressionID),
			EncryptionID:  EncryptionID(rec.EncryptionID),
			offset:        rec.EntryOffset,
		}
		byName[e.Name] = e
		byID[e.ID] = e
		order = append(order, e)
	}

	return &Reader{
		src: src,
		cfg: cfg,
		proc: chunkProcessor{
			compressor: cfg.Decompressor,
			encryptor:  cfg.Decryptor,
			key:        cfg.Key,
		},
		header:     header,
		comment:    comment,
		fileLength: fileLength,
		byName:     byName,
		byID:       byID,
		order:      order,
	}, nil
}

// OpenFile opens path as its own *os.File and returns a Reader wrapping it
// via an apackio.ReadSeeker, plus a close func. Opening the same path
// through OpenFile multiple times yields independent Readers safe to use
// concurrently, each with its own *os.File and read position.
func OpenFile(path string, opts ...ReaderOption) (*Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, wrapErr(ErrIo, "open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, wrapErr(ErrIo, "stat file", err)
	}
	rs := apackio.NewReadSeeker(f, info.Size())
	r, err := NewReader(rs, opts...)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f.Close, nil
}

func (r *Reader) checkOpen() error {
	if r.err != nil {
		return r.err
	}
	if r.closed {
		return newErr(ErrAlreadyClosed, "reader is closed")
	}
	return nil
}

// ArchiveComment returns the archive-level comment set by
// Writer.SetArchiveComment / WithComment, or "" if none was set.
func (r *Reader) ArchiveComment() string {
	return r.comment
}

// EntryCount returns the number of entries in the archive.
func (r *Reader) EntryCount() uint64 {
	return uint64(len(r.order))
}

// Has reports whether name is present.
func (r *Reader) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Get returns the entry named name.
func (r *Reader) Get(name string) (Entry, bool) {
	e, ok := r.byName[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// GetByID returns the entry with the given id.
func (r *Reader) GetByID(id uint64) (Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, newErr(ErrFormat, "no entry with that id")
	}
	return *e, nil
}

// Entries returns every entry in TOC order (entry-add order).
func (r *Reader) Entries() []Entry {
	out := make([]Entry, len(r.order))
	for i, e := range r.order {
		out[i] = *e
	}
	return out
}

// EntryCursor is a restartable, index-based cursor over a Reader's
// entries in TOC order.
type EntryCursor struct {
	entries []*Entry
	pos     int
}

// Next returns the next entry, or ok=false once the cursor is exhausted.
func (c *EntryCursor) Next() (Entry, bool) {
	if c.pos >= len(c.entries) {
		return Entry{}, false
	}
	e := *c.entries[c.pos]
	c.pos++
	return e, true
}

// Iterate returns a fresh cursor positioned before the first entry. A
// Reader may have any number of independent, concurrently-advanced
// cursors.
func (r *Reader) Iterate() *EntryCursor {
	return &EntryCursor{entries: r.order}
}

// ReadAll decodes and concatenates every chunk of the entry named name.
func (r *Reader) ReadAll(name string) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	e, ok := r.byName[name]
	if !ok {
		return nil, newErr(ErrFormat, "no such entry: "+name)
	}
	return r.readEntry(e)
}

// ReadAllByID is ReadAll keyed by entry id.
func (r *Reader) ReadAllByID(id uint64) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	e, ok := r.byID[id]
	if !ok {
		return nil, newErr(ErrFormat, "no entry with that id")
	}
	return r.readEntry(e)
}

func (r *Reader) readEntry(e *Entry) ([]byte, error) {
	if e.ChunkCount == 0 {
		return []byte{}, nil
	}
	// e.OriginalSize is already bounds-checked against ChunkCount*MaxChunkSize
	// when the TOC is loaded (see NewReader), but cap the initial capacity
	// again here so this allocation never depends solely on that check.
	initialCap := e.OriginalSize
	if maxPlausible := uint64(e.ChunkCount) * MaxChunkSize; initialCap > maxPlausible {
		initialCap = maxPlausible
	}
	out := make([]byte, 0, initialCap)
	offset := int64(e.offset)
	for i := uint32(0); i < e.ChunkCount; i++ {
		data, hdr, consumed, err := r.readChunkAt(offset)
		if err != nil {
			return nil, err
		}
		if hdr.ChunkIndex != i {
			return nil, newErr(ErrFormat, "chunk_index out of sequence")
		}
		plain, err := r.proc.processForRead(data, hdr.OriginalSize,
			hdr.ChunkFlags&ChunkFlagCompressed != 0, hdr.ChunkFlags&ChunkFlagEncrypted != 0)
		if err != nil {
			return nil, err
		}
		out = append(out, plain...)
		offset += consumed
	}
	if uint64(len(out)) != e.OriginalSize {
		return nil, newErr(ErrFormat, "decoded entry size does not match TOC original_size")
	}
	return out, nil
}

// readChunkAt decodes the chunk record at offset: seek, read its 24-byte
// header, bounds-check its stored_size against the trailer offset, read
// exactly stored_size bytes, and verify their checksum. It returns the
// still-processed (compressed/encrypted) data, the parsed header, and the
// number of bytes the record occupied on disk.
func (r *Reader) readChunkAt(offset int64) ([]byte, chunkHeader, int64, error) {
	if _, err := r.src.Seek(offset, io.SeekStart); err != nil {
		return nil, chunkHeader{}, 0, wrapErr(ErrIo, "seek to chunk", err)
	}
	headBuf := make([]byte, ChunkHeaderSize)
	if _, err := io.ReadFull(r.src, headBuf); err != nil {
		return nil, chunkHeader{}, 0, wrapErr(ErrIo, "read chunk header", err)
	}
	hdr, err := parseChunkHeader(headBuf)
	if err != nil {
		return nil, chunkHeader{}, 0, err
	}

	trailerOffset := int64(r.header.TrailerOffset)
	if offset+ChunkHeaderSize+int64(hdr.StoredSize) > trailerOffset {
		return nil, chunkHeader{}, 0, newErr(ErrBoundsViolation, "chunk stored_size runs past the trailer")
	}

	data := make([]byte, hdr.StoredSize)
	if _, err := io.ReadFull(r.src, data); err != nil {
		return nil, chunkHeader{}, 0, wrapErr(ErrIo, "read chunk data", err)
	}
	if !verifyChecksum(data, hdr.Checksum) {
		return nil, chunkHeader{}, 0, newErr(ErrChecksumMismatch, "chunk data checksum mismatch")
	}
	return data, hdr, ChunkHeaderSize + int64(hdr.StoredSize), nil
}

// entryStream is the io.ReadCloser returned by OpenStream: it decodes one
// chunk at a time instead of materializing the whole entry up front.
type entryStream struct {
	r         *Reader
	e         *Entry
	nextChunk uint32
	offset    int64
	buf       []byte
	bufPos    int
}

func (s *entryStream) Read(p []byte) (int, error) {
	for s.bufPos >= len(s.buf) {
		if s.nextChunk >= s.e.ChunkCount {
			return 0, io.EOF
		}
		data, hdr, consumed, err := s.r.readChunkAt(s.offset)
		if err != nil {
			return 0, err
		}
		if hdr.ChunkIndex != s.nextChunk {
			return 0, newErr(ErrFormat, "chunk_index out of sequence")
		}
		plain, err := s.r.proc.processForRead(data, hdr.OriginalSize,
			hdr.ChunkFlags&ChunkFlagCompressed != 0, hdr.ChunkFlags&ChunkFlagEncrypted != 0)
		if err != nil {
			return 0, err
		}
		s.buf = plain
		s.bufPos = 0
		s.offset += consumed
		s.nextChunk++
	}
	n := copy(p, s.buf[s.bufPos:])
	s.bufPos += n
	return n, nil
}

func (s *entryStream) Close() error {
	return nil
}

// OpenStream returns a lazy, chunk-at-a-time decoding reader over the
// entry named name.
func (r *Reader) OpenStream(name string) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	e, ok := r.byName[name]
	if !ok {
		return nil, newErr(ErrFormat, "no such entry: "+name)
	}
	return &entryStream{r: r, e: e, offset: int64(e.offset)}, nil
}

// Close marks the Reader closed. It is safe to call more than once.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}
