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

package apack

import "hash/crc32"

// checksum computes the format's CRC32 (IEEE polynomial) over data. It is
// the single choke point for the checksum algorithm so that a future
// ChecksumID could be dispatched here without touching callers.
func checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// verifyChecksum reports whether data's checksum matches want.
func verifyChecksum(data []byte, want uint32) bool {
	return checksum(data) == want
}
