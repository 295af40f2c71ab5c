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

package apack

// ErrorKind classifies an Error without requiring string matching on the
// message. Callers that need a specific message (e.g. the "checksum" or
// "Decryption failed" substrings) should rely on Error.Error(), not Kind,
// as the message text is part of the documented contract.
type ErrorKind int

const (
	ErrIo ErrorKind = iota
	ErrBadMagic
	ErrUnsupportedVersion
	ErrHeaderChecksumMismatch
	ErrChecksumMismatch
	ErrBoundsViolation
	ErrInvalidChunkSize
	ErrTooManyEntries
	ErrDuplicateName
	ErrInvalidName
	ErrNullArgument
	ErrDecompression
	ErrDecryption
	ErrAlreadyClosed
	ErrFormat
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIo:
		return "Io"
	case ErrBadMagic:
		return "BadMagic"
	case ErrUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrHeaderChecksumMismatch:
		return "HeaderChecksumMismatch"
	case ErrChecksumMismatch:
		return "ChecksumMismatch"
	case ErrBoundsViolation:
		return "BoundsViolation"
	case ErrInvalidChunkSize:
		return "InvalidChunkSize"
	case ErrTooManyEntries:
		return "TooManyEntries"
	case ErrDuplicateName:
		return "DuplicateName"
	case ErrInvalidName:
		return "InvalidName"
	case ErrNullArgument:
		return "NullArgument"
	case ErrDecompression:
		return "Decompression"
	case ErrDecryption:
		return "Decryption"
	case ErrAlreadyClosed:
		return "AlreadyClosed"
	case ErrFormat:
		return "Format"
	}
	return "Unknown"
}

// Error is the error type returned by every exported apack function. Kind
// lets callers switch on the failure category; Error() carries a
// human-readable message, which for some kinds contains a documented
// substring (e.g. "checksum", "Decryption failed").
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "apack: " + e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return "apack: " + e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind ErrorKind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func wrapErr(kind ErrorKind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
