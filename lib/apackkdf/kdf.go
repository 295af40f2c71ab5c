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

// Package apackkdf derives content-encryption keys from passwords
// (Argon2id) and wraps/unwraps a content key with a password-derived
// wrapping key.
package apackkdf

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/apack-format/apack/lib/apackcrypto"
)

// SaltLength is the fixed size of a generated salt.
const SaltLength = 16

// Params are the Argon2id tuning knobs. See DefaultParams for the
// reference configuration.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultParams returns a reasonable Argon2id configuration: 64 MiB of
// memory, 3 iterations, parallelism 4, and a 32-byte (256-bit) output,
// suitable for deriving an AES-256 or ChaCha20-Poly1305 key directly.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		KeyLength:   32,
	}
}

// GenerateSalt returns 16 cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("apackkdf: generate salt: %w", err)
	}
	return salt, nil
}

// Derive computes an Argon2id key from password and salt. Calling Derive
// twice with identical arguments yields identical output.
func Derive(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
}

// Wrap encrypts contentKey under wrappingKey using aead, with a fresh
// nonce drawn by aead.Seal. The returned bytes are self-describing: a
// one-byte apackcrypto.ID prefix identifies aead, followed by aead's own
// framed ciphertext, so Unwrap can reject a mismatched aead before ever
// calling Open.
func Wrap(contentKey, wrappingKey []byte, aead apackcrypto.AEAD) ([]byte, error) {
	sealed, err := aead.Seal(contentKey, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("apackkdf: wrap: %w", err)
	}
	wrapped := make([]byte, 0, 1+len(sealed))
	wrapped = append(wrapped, byte(aead.ID()))
	wrapped = append(wrapped, sealed...)
	return wrapped, nil
}

// Unwrap decrypts wrapped under wrappingKey using aead. expectedAlgorithmName
// is the caller's own label for aead (e.g. the codec's package name), used
// only to make a mismatch error readable; the actual check compares
// wrapped's algorithm-id prefix (written by Wrap) against aead.ID(), so
// unwrapping with the wrong AEAD fails immediately instead of falling
// through to a confusing authentication error.
func Unwrap(wrapped, wrappingKey []byte, aead apackcrypto.AEAD, expectedAlgorithmName string) ([]byte, error) {
	if expectedAlgorithmName == "" {
		return nil, fmt.Errorf("apackkdf: unwrap: expected algorithm name must not be empty")
	}
	if len(wrapped) < 1 {
		return nil, fmt.Errorf("apackkdf: unwrap: wrapped key is too short to carry an algorithm id")
	}
	wrappedID := apackcrypto.ID(wrapped[0])
	if wrappedID != aead.ID() {
		return nil, fmt.Errorf("apackkdf: unwrap: wrapped key declares algorithm id %d, but %s (id %d) was requested",
			wrappedID, expectedAlgorithmName, aead.ID())
	}
	contentKey, err := aead.Open(wrapped[1:], wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("apackkdf: unwrap: %w", err)
	}
	return contentKey, nil
}

// WrapWithPassword derives a wrapping key from password and salt using p,
// then wraps contentKey with it.
func WrapWithPassword(contentKey, password, salt []byte, p Params, aead apackcrypto.AEAD) ([]byte, error) {
	wrappingKey := Derive(password, salt, p)
	return Wrap(contentKey, wrappingKey, aead)
}

// UnwrapWithPassword derives a wrapping key from password and salt using
// p, then unwraps wrapped with it.
func UnwrapWithPassword(wrapped, password, salt []byte, p Params, aead apackcrypto.AEAD, expectedAlgorithmName string) ([]byte, error) {
	wrappingKey := Derive(password, salt, p)
	return Unwrap(wrapped, wrappingKey, aead, expectedAlgorithmName)
}
