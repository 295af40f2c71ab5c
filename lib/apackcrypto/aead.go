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

// Package apackcrypto declares the pluggable AEAD abstraction used by an
// APACK chunk processor and its key-wrapping helpers. Concrete providers
// live in sibling packages (aesgcm, chacha20poly1305).
package apackcrypto

import "errors"

// ID identifies an AEAD the way an APACK chunk header's encryption_id
// byte does. Its numeric values match apack.EncryptionID one-for-one; see
// apackcompress.ID's doc comment for why this package defines its own
// type instead of importing the root apack package.
type ID uint8

const (
	IDNone              ID = 0
	IDAES256GCM         ID = 1
	IDChaCha20Poly1305  ID = 2
)

// ErrAuthenticationFailed is wrapped by every provider's Open method on a
// tampered or wrong-key input. Its message is deliberately the literal
// string the format's error-handling design requires callers to be able
// to match on: "Decryption failed".
var ErrAuthenticationFailed = errors.New("apackcrypto: Decryption failed")

// AEAD is the capability set an authenticated-encryption provider must
// satisfy. See SPEC_FULL.md §4.6.
//
// Every Seal call must draw a fresh cryptographically random nonce; nonce
// reuse with the same key is forbidden. The returned framed bytes are
// self-describing: nonce || ciphertext || tag, so Open needs only the key
// and the framed bytes.
type AEAD interface {
	ID() ID
	KeyLengthBytes() int
	GenerateKey() ([]byte, error)
	Seal(plaintext, key []byte) ([]byte, error)
	Open(framed, key []byte) ([]byte, error)
}
