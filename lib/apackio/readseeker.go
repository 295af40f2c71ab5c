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

// Package apackio adapts an io.ReaderAt into independent io.ReadSeekers, so
// that N concurrent apack.Readers can share one open *os.File (or any other
// io.ReaderAt) without contending on a single seek position.
package apackio

import (
	"errors"
	"io"
)

var (
	errInvalidSize            = errors.New("apackio: invalid size")
	errSeekToInvalidWhence    = errors.New("apackio: seek to invalid whence")
	errSeekToNegativePosition = errors.New("apackio: seek to negative position")
)

// ReadSeeker is an io.ReadSeeker view over a shared io.ReaderAt and a fixed
// size. Multiple ReadSeekers built from the same io.ReaderAt are safe to
// use concurrently, each with its own independent read position; a single
// ReadSeeker is not safe for concurrent use by itself, matching the
// per-apack.Reader single-threaded model.
type ReadSeeker struct {
	ReaderAt io.ReaderAt
	Size     int64
	offset   int64
}

// NewReadSeeker builds a ReadSeeker over ra, sized to size bytes.
func NewReadSeeker(ra io.ReaderAt, size int64) *ReadSeeker {
	return &ReadSeeker{ReaderAt: ra, Size: size}
}

// Read implements io.Reader.
func (r *ReadSeeker) Read(p []byte) (int, error) {
	if r.Size < 0 {
		return 0, errInvalidSize
	}
	if r.Size <= r.offset {
		return 0, io.EOF
	}
	remaining := r.Size - r.offset
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := r.ReaderAt.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (r *ReadSeeker) Seek(offset int64, whence int) (int64, error) {
	if r.Size < 0 {
		return 0, errInvalidSize
	}

	switch whence {
	case io.SeekStart:
		// No-op.
	case io.SeekCurrent:
		offset += r.offset
	case io.SeekEnd:
		offset += r.Size
	default:
		return 0, errSeekToInvalidWhence
	}

	if offset < 0 {
		return 0, errSeekToNegativePosition
	}
	r.offset = offset
	return r.offset, nil
}
