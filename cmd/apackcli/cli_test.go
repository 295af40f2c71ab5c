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
	"path/filepath"
	"testing"
)

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("apackcli %v: %v", args, err)
	}
}

func TestCreateListExtractVerifyRoundtrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.txt")
	if err := os.WriteFile(srcPath, []byte("contents of source.txt"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	archivePath := filepath.Join(dir, "out.apack")
	outPath := filepath.Join(dir, "extracted.txt")

	runCLI(t, "create", archivePath, srcPath, "--codec", "zstd")
	runCLI(t, "list", archivePath)
	runCLI(t, "verify", archivePath)
	runCLI(t, "extract", archivePath, "source.txt", outPath)

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile(extracted): %v", err)
	}
	if string(got) != "contents of source.txt" {
		t.Fatalf("got %q, want %q", got, "contents of source.txt")
	}
}

func TestCreateRejectsUnknownCodec(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.txt")
	os.WriteFile(srcPath, []byte("x"), 0o600)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"create", filepath.Join(dir, "out.apack"), srcPath, "--codec", "bogus"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("got nil error for an unknown codec")
	}
}

func TestCreateRejectsPasswordWithComment(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.txt")
	os.WriteFile(srcPath, []byte("x"), 0o600)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"create", filepath.Join(dir, "out.apack"), srcPath, "--password", "--comment", "hi"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("got nil error combining -password with -comment")
	}
}
