// Copyright 2025 The InfeRDF Authors
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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/inference"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/module"
	"inferdf.dev/go/rdf"
	"inferdf.dev/go/rule"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New()
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestBuildAndDump(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.nq")
	rules := filepath.Join(dir, "rules.irs")
	out := filepath.Join(dir, "out.irdf")

	qt.Assert(t, qt.IsNil(os.WriteFile(input, []byte(`
<http://example.com/a> <http://example.com/p> <http://example.com/b> .
`), 0o666)))
	qt.Assert(t, qt.IsNil(os.WriteFile(rules, []byte(`
prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
prefix ex: <http://example.com/>
rule typer {
	?x ex:p ?y .
} => {
	?y rdf:type ex:T .
}
`), 0o666)))

	stdout, err := run(t, "build", "--rules", rules, "-o", out, "--page-size", "256", input)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(strings.Contains(stdout, "wrote ")))

	stdout, err = run(t, "dump", out)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(strings.Contains(stdout,
		"+ <http://example.com/a> <http://example.com/p> <http://example.com/b>")))
	qt.Assert(t, qt.IsTrue(strings.Contains(stdout,
		"+ <http://example.com/b> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.com/T>")))
	qt.Assert(t, qt.IsTrue(strings.Contains(stdout, "inferred:")))
}

func TestBuildManifest(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.nq")
	out := filepath.Join(dir, "mod.irdf")
	mf := filepath.Join(dir, "build.yaml")

	qt.Assert(t, qt.IsNil(os.WriteFile(input, []byte(
		`<http://x/a> <http://x/p> <http://x/b> .`+"\n"), 0o666)))
	qt.Assert(t, qt.IsNil(os.WriteFile(mf, []byte(
		"inputs: ["+input+"]\noutput: "+out+"\npageSize: 256\n"), 0o666)))

	_, err := run(t, "build", "-f", mf)
	qt.Assert(t, qt.IsNil(err))
	f, err := os.Open(out)
	qt.Assert(t, qt.IsNil(err))
	defer f.Close()
	_, err = module.NewReader(f)
	qt.Assert(t, qt.IsNil(err))
}

func TestExitCodes(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{&rdf.SyntaxError{Line: 1, Msg: "x"}, exitParse},
		{&rule.Error{Filename: "f", Line: 1, Msg: "x"}, exitParse},
		{&inference.CompileError{Rule: "r", Msg: "x"}, exitParse},
		{&dataset.ConflictSign{}, exitConflict},
		{&inference.ConflictLocked{}, exitConflict},
		{&interp.ConflictNonEqual{}, exitConflict},
		{&interp.ConflictAlreadyMerged{}, exitConflict},
		{&dataset.IndexInvalidated{}, exitConflict},
		{&inference.BudgetError{Steps: 1}, exitBudget},
		{&module.FormatMismatch{Version: 2}, exitVersion},
		{&module.UnalignedPage{PageSize: 3}, exitIO},
		{&module.EntryOutOfBounds{}, exitIO},
		{&module.HeapCorruption{Msg: "x"}, exitIO},
	} {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%T) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestDumpRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus")
	qt.Assert(t, qt.IsNil(os.WriteFile(bogus, make([]byte, 256), 0o666)))
	_, err := run(t, "dump", bogus)
	qt.Assert(t, qt.Not(qt.IsNil(err)))
	if got := exitCode(err); got != exitVersion {
		t.Fatalf("exit code %d, want %d", got, exitVersion)
	}
}
