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
	"fmt"

	"github.com/apack-format/apack"
	"github.com/apack-format/apack/lib/apackcrypto"
	"github.com/apack-format/apack/lib/apackkdf"
)

// openArchive opens path, auto-detecting which compression codec and
// encryption provider its entries need from their own TOC records
// (apackcli has no other source of that information before opening), and
// deriving the decryption key from a stdin password when askPass is set
// (the password-derived key's salt round-trips through the archive's
// comment field; see saltToComment/saltFromComment).
//
// It opens the archive twice: once to inspect entries, and again with the
// codecs the first pass found. The first pass never touches chunk data,
// so the cost is one extra header+TOC read.
func openArchive(path string, askPass bool) (*apack.Reader, func() error, error) {
	probe, closeProbe, err := apack.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	entries := probe.Entries()
	comment := probe.ArchiveComment()
	closeProbe()
	probe.Close()

	var opts []apack.ReaderOption
	for _, e := range entries {
		if e.Compressed {
			if c := compressorForID(e.CompressionID); c != nil {
				opts = append(opts, apack.WithDecompression(c))
			}
			break
		}
	}

	if askPass {
		var aead apackcrypto.AEAD
		for _, e := range entries {
			if e.Encrypted {
				aead = aeadForID(e.EncryptionID)
				break
			}
		}
		if aead == nil {
			return nil, nil, fmt.Errorf("decrypt: archive has no encrypted entries, or uses an unknown encryption provider")
		}
		salt, err := saltFromComment(comment)
		if err != nil {
			return nil, nil, fmt.Errorf("decrypt: %w", err)
		}
		password, err := readPasswordLine()
		if err != nil {
			return nil, nil, err
		}
		key := apackkdf.Derive(password, salt, apackkdf.DefaultParams())
		opts = append(opts, apack.WithDecryption(aead, key))
	}

	return apack.OpenFile(path, opts...)
}
