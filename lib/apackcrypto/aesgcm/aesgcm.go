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

// Package aesgcm wraps the standard library's crypto/aes and
// crypto/cipher AES-256-GCM implementation as an apackcrypto.AEAD. There
// is no third-party AES-GCM wrapper in the example corpus that improves
// on calling crypto/cipher.NewGCM directly, so this provider is stdlib by
// design; see DESIGN.md.
package aesgcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/apack-format/apack/lib/apackcrypto"
)

const (
	keyLength   = 32 // AES-256
	nonceLength = 12 // 96 bits
	tagLength   = 16 // 128 bits
)

// AEAD is an apackcrypto.AEAD backed by AES-256-GCM. The zero value is
// ready to use.
type AEAD struct{}

var _ apackcrypto.AEAD = AEAD{}

func (AEAD) ID() apackcrypto.ID { return apackcrypto.IDAES256GCM }

func (AEAD) KeyLengthBytes() int { return keyLength }

func (AEAD) GenerateKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("aesgcm: generate key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("aesgcm: invalid key length %d, want %d", len(key), keyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: new cipher: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, nonceLength)
}

// Seal encrypts plaintext under key, returning nonce || ciphertext || tag.
func (AEAD) Seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("aesgcm: generate nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+tagLength)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Open authenticates and decrypts framed (nonce || ciphertext || tag)
// under key. Any tamper of nonce, ciphertext or tag, or any wrong key,
// fails with an error wrapping apackcrypto.ErrAuthenticationFailed.
func (AEAD) Open(framed, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(framed) < nonceLength+tagLength {
		return nil, fmt.Errorf("aesgcm: %w: framed data too short", apackcrypto.ErrAuthenticationFailed)
	}
	nonce := framed[:nonceLength]
	ciphertext := framed[nonceLength:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: %w", apackcrypto.ErrAuthenticationFailed)
	}
	return plaintext, nil
}
