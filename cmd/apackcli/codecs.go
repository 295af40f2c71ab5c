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

package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/apack-format/apack"
	"github.com/apack-format/apack/lib/apackcompress"
	"github.com/apack-format/apack/lib/apackcompress/lz4codec"
	"github.com/apack-format/apack/lib/apackcompress/zstdcodec"
	"github.com/apack-format/apack/lib/apackcrypto"
	"github.com/apack-format/apack/lib/apackcrypto/aesgcm"
	"github.com/apack-format/apack/lib/apackcrypto/chacha20poly1305"
	"github.com/apack-format/apack/lib/apackkdf"
)

func resolveCompressor(codec string) (apackcompress.Compressor, error) {
	switch codec {
	case "", "none":
		return nil, nil
	case "zstd":
		return zstdcodec.Codec{}, nil
	case "lz4":
		return lz4codec.Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want none, zstd, or lz4)", codec)
	}
}

func compressorForID(id apack.CompressionID) apackcompress.Compressor {
	switch id {
	case apack.CompressionZstd:
		return zstdcodec.Codec{}
	case apack.CompressionLZ4:
		return lz4codec.Codec{}
	default:
		return nil
	}
}

func resolveAEAD(name string) (apackcrypto.AEAD, error) {
	switch name {
	case "aes-gcm", "":
		return aesgcm.AEAD{}, nil
	case "chacha20poly1305":
		return chacha20poly1305.AEAD{}, nil
	default:
		return nil, fmt.Errorf("unknown encryption provider %q (want aes-gcm or chacha20poly1305)", name)
	}
}

func aeadForID(id apack.EncryptionID) apackcrypto.AEAD {
	switch id {
	case apack.EncryptionAES256GCM:
		return aesgcm.AEAD{}
	case apack.EncryptionChaCha20Poly1305:
		return chacha20poly1305.AEAD{}
	default:
		return nil
	}
}

// readPasswordLine reads one line from stdin with its trailing newline
// stripped. apackcli never accepts a password as a command-line flag, so
// it never appears in a process listing.
func readPasswordLine() ([]byte, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && len(line) == 0 {
		return nil, fmt.Errorf("read password from stdin: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// salt-as-comment convention: apackcli has nowhere else in the archive
// format to persist an Argon2id salt, so when -password is used the
// archive comment is reserved for the hex-encoded salt. An explicit
// -comment conflicts with -password for this reason.
func saltToComment(salt []byte) string {
	return hex.EncodeToString(salt)
}

func saltFromComment(comment string) ([]byte, error) {
	salt, err := hex.DecodeString(comment)
	if err != nil {
		return nil, fmt.Errorf("archive comment is not a hex-encoded salt: %w", err)
	}
	if len(salt) != apackkdf.SaltLength {
		return nil, fmt.Errorf("archive comment decodes to %d bytes, want %d-byte salt", len(salt), apackkdf.SaltLength)
	}
	return salt, nil
}
