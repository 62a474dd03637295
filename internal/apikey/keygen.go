// Copyright 2026 The Datagov Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apikey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/datagov/datagov/internal/id"
)

// Key format: dgk_{64 hex chars}
const (
	KeyPrefix     = "dgk_"
	keySecretSize = 32
	visiblePrefix = 8
	visibleSuffix = 4
)

// GeneratedKey contains the parts of a newly generated API key.
type GeneratedKey struct {
	Plaintext string
	Hash      string
	Prefix    string
	Last4     string
}

// GenerateKey creates a new random key.
func GenerateKey() (*GeneratedKey, error) {
	secret, err := id.RandomHex(keySecretSize)
	if err != nil {
		return nil, fmt.Errorf("generate API key: %w", err)
	}
	plaintext := KeyPrefix + secret

	return &GeneratedKey{
		Plaintext: plaintext,
		Hash:      HashKey(plaintext),
		Prefix:    plaintext[:visiblePrefix],
		Last4:     plaintext[len(plaintext)-visibleSuffix:],
	}, nil
}

// HashKey returns the hex SHA-256 digest stored in place of the key.
func HashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Mask renders the display form of a key: first 8, "...", last 4.
func Mask(prefix, last4 string) string {
	return prefix + "..." + last4
}
