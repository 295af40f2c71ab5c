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

/*
apackcli creates, lists, extracts, and verifies APACK archives.

Usage:

	apackcli create <archive> <files...>
	apackcli list <archive>
	apackcli extract <archive> <name> <outpath>
	apackcli verify <archive>

An encryption password, when used, is always read from stdin, never from a
flag, so it never shows up in a process listing.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "apackcli",
		Short:         "Create, inspect, and extract APACK archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newVerifyCmd())
	return root
}
