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

	"github.com/apack-format/apack"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive>",
		Short: "List the entries in an APACK archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := apack.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			defer r.Close()

			if c := r.ArchiveComment(); c != "" {
				fmt.Printf("comment: %s\n", c)
			}
			fmt.Printf("%-6s %12s  %-4s %-4s  %s\n", "id", "size", "cmp", "enc", "name")
			cursor := r.Iterate()
			for {
				e, ok := cursor.Next()
				if !ok {
					break
				}
				fmt.Printf("%-6d %12d  %-4v %-4v  %s\n", e.ID, e.OriginalSize, e.Compressed, e.Encrypted, e.Name)
			}
			return nil
		},
	}
}
