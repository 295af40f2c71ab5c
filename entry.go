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

import "unicode/utf8"

// Attribute is a (key, tagged-value) pair carried in an entry's metadata.
// Exactly one of Str, Long or Bool is meaningful, selected by Type.
type Attribute struct {
	Key  string
	Type AttrType
	Str  string
	Long int64
	Bool bool
}

// StringAttr builds a String-valued Attribute.
func StringAttr(key, value string) Attribute {
	return Attribute{Key: key, Type: AttrTypeString, Str: value}
}

// LongAttr builds a Long-valued Attribute.
func LongAttr(key string, value int64) Attribute {
	return Attribute{Key: key, Type: AttrTypeLong, Long: value}
}

// BoolAttr builds a Bool-valued Attribute.
func BoolAttr(key string, value bool) Attribute {
	return Attribute{Key: key, Type: AttrTypeBool, Bool: value}
}

// EntryMetadata bundles the caller-supplied identity and metadata of an
// entry being added to a Writer.
type EntryMetadata struct {
	Name       string
	Mime       string
	Attributes []Attribute
}

// Entry describes one named byte blob stored in an archive. Entries are
// immutable once returned by a Reader.
type Entry struct {
	ID             uint64
	Name           string
	Mime           string
	Attributes     []Attribute
	OriginalSize   uint64
	StoredSize     uint64
	FirstChunk     uint32
	ChunkCount     uint32
	Compressed     bool
	Encrypted      bool
	CompressionID  CompressionID
	EncryptionID   EncryptionID

	// offset is the file offset of the entry's first chunk record, used
	// internally by Reader to seek directly to an entry's data. It does
	// not appear in any exported accessor.
	offset uint64
}

func validateName(name string) error {
	if len(name) == 0 {
		return newErr(ErrInvalidName, "entry name must not be empty")
	}
	if len(name) > MaxNameLen {
		return newErr(ErrInvalidName, "entry name exceeds 65535 bytes")
	}
	if !utf8.ValidString(name) {
		return newErr(ErrInvalidName, "entry name is not valid UTF-8")
	}
	return nil
}

func validateMime(mime string) error {
	if len(mime) > MaxMimeLen {
		return newErr(ErrInvalidName, "mime type exceeds 65535 bytes")
	}
	if !utf8.ValidString(mime) {
		return newErr(ErrInvalidName, "mime type is not valid UTF-8")
	}
	return nil
}

func validateAttributes(attrs []Attribute) error {
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if !utf8.ValidString(a.Key) {
			return newErr(ErrInvalidName, "attribute key is not valid UTF-8")
		}
		if len(a.Key) > 0xFFFF {
			return newErr(ErrInvalidName, "attribute key exceeds 65535 bytes")
		}
		if seen[a.Key] {
			return newErr(ErrFormat, "duplicate attribute key "+a.Key)
		}
		seen[a.Key] = true
		if a.Type == AttrTypeString && !utf8.ValidString(a.Str) {
			return newErr(ErrInvalidName, "string attribute value is not valid UTF-8")
		}
	}
	return nil
}
