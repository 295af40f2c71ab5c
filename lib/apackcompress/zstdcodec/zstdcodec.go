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

// Package zstdcodec wraps github.com/klauspost/compress/zstd as an
// apackcompress.Compressor.
package zstdcodec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/apack-format/apack/lib/apackcompress"
)

// DefaultLevel matches the reference zstd CLI's default compression level.
const DefaultLevel = 3

// Codec is an apackcompress.Compressor backed by klauspost/compress/zstd.
// The zero value is ready to use.
type Codec struct{}

var _ apackcompress.Compressor = Codec{}

func (Codec) ID() apackcompress.ID { return apackcompress.IDZstd }

func (Codec) DefaultLevel() int { return DefaultLevel }

// encoderLevel maps the reference zstd level scale (1..22) onto
// klauspost's four-speed EncoderLevel enum, since klauspost/compress/zstd
// does not expose a 22-level knob directly.
func encoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 3:
		return zstd.SpeedFastest
	case level <= 9:
		return zstd.SpeedDefault
	case level <= 15:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (Codec) Compress(dst, src []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel(level)))
	if err != nil {
		return nil, fmt.Errorf("zstdcodec: new encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, dst), nil
}

func (Codec) Decompress(dst, src []byte, maxOutputSize int) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("zstdcodec: new decoder: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	if dst != nil {
		buf.Write(dst)
	}
	n, err := io.CopyN(&buf, dec, int64(maxOutputSize)+1)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("zstdcodec: decompress: %w", err)
	}
	if n > int64(maxOutputSize) {
		return nil, apackcompress.ErrOutputTooLarge
	}
	return buf.Bytes(), nil
}
