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

// Package atomicfile writes a file by building it up in a sibling
// temporary file and renaming it into place, so a reader never observes a
// partially-written archive at the final path. This is an ambient
// operating-system concern, not a codec or transport concern, so it is
// deliberately built on os.CreateTemp/os.Rename rather than a third-party
// dependency.
package atomicfile

import (
	"os"
	"path/filepath"
)

// Write creates a new file at path by first writing to a temporary file
// in the same directory (so the final rename is on the same filesystem)
// and calling write with it, then renaming the temporary file to path. If
// write returns an error, or the rename fails, the temporary file is
// removed and path is left untouched.
func Write(path string, write func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}
	return nil
}
