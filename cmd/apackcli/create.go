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
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apack-format/apack"
	"github.com/apack-format/apack/internal/atomicfile"
	"github.com/apack-format/apack/lib/apackkdf"
)

func newCreateCmd() *cobra.Command {
	var (
		chunkSize uint32
		codec     string
		level     int
		encAlgo   string
		askPass   bool
		comment   string
	)

	cmd := &cobra.Command{
		Use:   "create <archive> <files...>",
		Short: "Create a new APACK archive from one or more files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, files := args[0], args[1:]

			if askPass && comment != "" {
				return fmt.Errorf("-comment cannot be combined with -password: the comment field stores the derivation salt")
			}

			opts := []apack.Option{apack.WithChunkSize(chunkSize)}

			comp, err := resolveCompressor(codec)
			if err != nil {
				return err
			}
			if comp != nil {
				opts = append(opts, apack.WithCompression(comp, level))
			}

			switch {
			case askPass:
				aead, err := resolveAEAD(encAlgo)
				if err != nil {
					return err
				}
				password, err := readPasswordLine()
				if err != nil {
					return err
				}
				salt, err := apackkdf.GenerateSalt()
				if err != nil {
					return err
				}
				key := apackkdf.Derive(password, salt, apackkdf.DefaultParams())
				opts = append(opts, apack.WithEncryption(aead, key), apack.WithComment(saltToComment(salt)))
			case comment != "":
				opts = append(opts, apack.WithComment(comment))
			}

			return atomicfile.Write(archivePath, func(f *os.File) error {
				w, err := apack.NewWriter(f, opts...)
				if err != nil {
					return err
				}
				for _, path := range files {
					name := filepath.Base(path)
					if err := w.AddFile(name, path); err != nil {
						return fmt.Errorf("add %s: %w", path, err)
					}
					log.Printf("apackcli: added %s", name)
				}
				return w.Close()
			})
		},
	}

	cmd.Flags().Uint32Var(&chunkSize, "chunk-size", apack.DefaultChunkSize, "chunk slicing granularity, in bytes")
	cmd.Flags().StringVar(&codec, "codec", "none", "compression codec: none, zstd, lz4")
	cmd.Flags().IntVar(&level, "level", 0, "compression level (0 = codec default)")
	cmd.Flags().StringVar(&encAlgo, "encryption", "aes-gcm", "encryption provider: aes-gcm, chacha20poly1305")
	cmd.Flags().BoolVar(&askPass, "password", false, "read a password from stdin and encrypt the archive")
	cmd.Flags().StringVar(&comment, "comment", "", "archive-level comment (mutually exclusive with -password)")
	return cmd
}
