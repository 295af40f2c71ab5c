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
	"os"

	"github.com/spf13/cobra"

	"github.com/apack-format/apack/internal/atomicfile"
)

func newExtractCmd() *cobra.Command {
	var askPass bool

	cmd := &cobra.Command{
		Use:   "extract <archive> <name> <outpath>",
		Short: "Extract one entry from an APACK archive to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, name, outPath := args[0], args[1], args[2]

			r, closeFn, err := openArchive(archivePath, askPass)
			if err != nil {
				return err
			}
			defer closeFn()
			defer r.Close()

			data, err := r.ReadAll(name)
			if err != nil {
				return err
			}

			return atomicfile.Write(outPath, func(f *os.File) error {
				_, err := f.Write(data)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&askPass, "password", false, "read a password from stdin to decrypt")
	return cmd
}
