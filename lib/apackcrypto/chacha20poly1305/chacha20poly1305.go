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

// Package chacha20poly1305 wraps golang.org/x/crypto/chacha20poly1305 as
// an apackcrypto.AEAD. golang.org/x/crypto is a direct dependency of
// several corpus manifests (folbricht-desync, kenchrcum-s3-encryption-gateway,
// absfs-encryptfs among them), and age's internal/stream shows the same
// nonce-prefixed framing used by Seal and Open below.
package chacha20poly1305

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/apack-format/apack/lib/apackcrypto"
)

// AEAD is an apackcrypto.AEAD backed by IETF ChaCha20-Poly1305. The zero
// value is ready to use.
type AEAD struct{}

var _ apackcrypto.AEAD = AEAD{}

func (AEAD) ID() apackcrypto.ID { return apackcrypto.IDChaCha20Poly1305 }

func (AEAD) KeyLengthBytes() int { return chacha20poly1305.KeySize }

func (AEAD) GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("chacha20poly1305: generate key: %w", err)
	}
	return key, nil
}

func (AEAD) Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: new AEAD: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("chacha20poly1305: generate nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

func (AEAD) Open(framed, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: new AEAD: %w", err)
	}
	if len(framed) < chacha20poly1305.NonceSize+aead.Overhead() {
		return nil, fmt.Errorf("chacha20poly1305: %w: framed data too short", apackcrypto.ErrAuthenticationFailed)
	}
	nonce := framed[:chacha20poly1305.NonceSize]
	ciphertext := framed[chacha20poly1305.NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: %w", apackcrypto.ErrAuthenticationFailed)
	}
	return plaintext, nil
}
