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
	"fmt"
	"unicode/utf8"
)

// tocRecord is one entry's record inside the trailer: the fixed 52-byte
// prefix (see SPEC_FULL.md §6.1) followed by name, MIME and attribute
// bytes.
type tocRecord struct {
	EntryID        uint64
	EntryOffset    uint64
	OriginalSize   uint64
	StoredSize     uint64
	FirstChunk     uint32
	ChunkCount     uint32
	EntryFlags     uint8
	ChecksumAlgo   uint8
	CompressionID  uint8
	EncryptionID   uint8
	Name           string
	Mime           string
	Attributes     []Attribute
}

func (r *tocRecord) encode() ([]byte, error) {
	if err := validateName(r.Name); err != nil {
		return nil, err
	}
	if err := validateMime(r.Mime); err != nil {
		return nil, err
	}
	if err := validateAttributes(r.Attributes); err != nil {
		return nil, err
	}
	if len(r.Attributes) > 0xFFFF {
		return nil, newErr(ErrFormat, "too many attributes")
	}

	var buf bytes.Buffer
	prefix := make([]byte, TOCRecordFixedSize)
	putU64LE(prefix[0:8], r.EntryID)
	putU64LE(prefix[8:16], r.EntryOffset)
	putU64LE(prefix[16:24], r.OriginalSize)
	putU64LE(prefix[24:32], r.StoredSize)
	putU32LE(prefix[32:36], r.FirstChunk)
	putU32LE(prefix[36:40], r.ChunkCount)
	putU16LE(prefix[40:42], uint16(len(r.Name)))
	putU16LE(prefix[42:44], uint16(len(r.Mime)))
	putU16LE(prefix[44:46], uint16(len(r.Attributes)))
	prefix[46] = r.EntryFlags
	prefix[47] = r.ChecksumAlgo
	prefix[48] = r.CompressionID
	prefix[49] = r.EncryptionID
	putU16LE(prefix[50:52], 0) // reserved
	buf.Write(prefix)
	buf.WriteString(r.Name)
	buf.WriteString(r.Mime)

	for _, a := range r.Attributes {
		ab, err := encodeAttribute(a)
		if err != nil {
			return nil, err
		}
		buf.Write(ab)
	}
	return buf.Bytes(), nil
}

// decodeTOCRecord decodes one tocRecord from buf, which must contain at
// least the record's bytes (trailing bytes beyond the record are ignored).
// It returns the number of bytes consumed.
func decodeTOCRecord(buf []byte) (tocRecord, int, error) {
	var r tocRecord
	if len(buf) < TOCRecordFixedSize {
		return r, 0, newErr(ErrBoundsViolation, "truncated TOC record")
	}
	r.EntryID = getU64LE(buf[0:8])
	r.EntryOffset = getU64LE(buf[8:16])
	r.OriginalSize = getU64LE(buf[16:24])
	r.StoredSize = getU64LE(buf[24:32])
	r.FirstChunk = getU32LE(buf[32:36])
	r.ChunkCount = getU32LE(buf[36:40])
	nameLen := getU16LE(buf[40:42])
	mimeLen := getU16LE(buf[42:44])
	attrCount := getU16LE(buf[44:46])
	r.EntryFlags = buf[46]
	r.ChecksumAlgo = buf[47]
	r.CompressionID = buf[48]
	r.EncryptionID = buf[49]

	off := TOCRecordFixedSize
	if len(buf) < off+int(nameLen)+int(mimeLen) {
		return r, 0, newErr(ErrBoundsViolation, "truncated TOC record name/mime")
	}
	name := buf[off : off+int(nameLen)]
	off += int(nameLen)
	mime := buf[off : off+int(mimeLen)]
	off += int(mimeLen)

	if len(name) > MaxNameLen {
		return r, 0, newErr(ErrInvalidName, "name length exceeds 65535 bytes")
	}
	if !isValidUTF8(name) {
		return r, 0, newErr(ErrInvalidName, "entry name is not valid UTF-8")
	}
	r.Name = string(name)
	r.Mime = string(mime)

	for i := uint16(0); i < attrCount; i++ {
		a, n, err := decodeAttribute(buf[off:])
		if err != nil {
			return r, 0, err
		}
		r.Attributes = append(r.Attributes, a)
		off += n
	}
	return r, off, nil
}

func encodeAttribute(a Attribute) ([]byte, error) {
	var value []byte
	switch a.Type {
	case AttrTypeString:
		value = []byte(a.Str)
	case AttrTypeLong:
		value = make([]byte, 8)
		putU64LE(value, uint64(a.Long))
	case AttrTypeBool:
		value = make([]byte, 1)
		if a.Bool {
			value[0] = 1
		}
	default:
		return nil, newErr(ErrFormat, fmt.Sprintf("unknown attribute type %d", a.Type))
	}

	head := make([]byte, AttrRecordFixedSize)
	putU16LE(head[0:2], uint16(len(a.Key)))
	head[2] = uint8(a.Type)
	head[3] = 0
	putU32LE(head[4:8], uint32(len(value)))

	out := make([]byte, 0, len(head)+len(a.Key)+len(value))
	out = append(out, head...)
	out = append(out, a.Key...)
	out = append(out, value...)
	return out, nil
}

func decodeAttribute(buf []byte) (Attribute, int, error) {
	var a Attribute
	if len(buf) < AttrRecordFixedSize {
		return a, 0, newErr(ErrBoundsViolation, "truncated attribute record")
	}
	keyLen := getU16LE(buf[0:2])
	typeTag := AttrType(buf[2])
	valueLen := getU32LE(buf[4:8])

	off := AttrRecordFixedSize
	if uint64(len(buf)) < uint64(off)+uint64(keyLen)+uint64(valueLen) {
		return a, 0, newErr(ErrBoundsViolation, "truncated attribute key/value")
	}
	key := buf[off : off+int(keyLen)]
	off += int(keyLen)
	value := buf[off : off+int(valueLen)]
	off += int(valueLen)

	if !isValidUTF8(key) {
		return a, 0, newErr(ErrInvalidName, "attribute key is not valid UTF-8")
	}
	a.Key = string(key)
	a.Type = typeTag

	switch typeTag {
	case AttrTypeString:
		if !isValidUTF8(value) {
			return a, 0, newErr(ErrInvalidName, "string attribute value is not valid UTF-8")
		}
		a.Str = string(value)
	case AttrTypeLong:
		if len(value) != 8 {
			return a, 0, newErr(ErrFormat, "long attribute value must be 8 bytes")
		}
		a.Long = int64(getU64LE(value))
	case AttrTypeBool:
		if len(value) != 1 {
			return a, 0, newErr(ErrFormat, "bool attribute value must be 1 byte")
		}
		a.Bool = value[0] != 0
	default:
		return a, 0, newErr(ErrFormat, fmt.Sprintf("unknown attribute type %d", typeTag))
	}
	return a, off, nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
