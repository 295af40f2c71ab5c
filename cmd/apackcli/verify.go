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

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var askPass bool

	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Decode every entry of an APACK archive, checking every chunk's checksum and authentication tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openArchive(args[0], askPass)
			if err != nil {
				return err
			}
			defer closeFn()
			defer r.Close()

			cursor := r.Iterate()
			for {
				e, ok := cursor.Next()
				if !ok {
					break
				}
				if _, err := r.ReadAll(e.Name); err != nil {
					return fmt.Errorf("entry %q: %w", e.Name, err)
				}
			}
			fmt.Printf("apackcli: %d entries verified\n", r.EntryCount())
			return nil
		},
	}

	cmd.Flags().BoolVar(&askPass, "password", false, "read a password from stdin to decrypt")
	return cmd
}
