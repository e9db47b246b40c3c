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

package inference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/diff"
	"github.com/rogpeppe/go-internal/txtar"
)

// TestTxtar runs every fixture under testdata. A fixture holds an
// input.nq file, a rules file, and either a facts file listing the
// expected saturated default graph or an error file with a fragment
// of the expected failure.
func TestTxtar(t *testing.T) {
	files, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no testdata fixtures")
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".txtar")
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(file)
			if err != nil {
				t.Fatal(err)
			}
			ar := txtar.Parse(data)
			sections := map[string]string{}
			for _, f := range ar.Files {
				sections[f.Name] = string(f.Data)
			}

			e, err := build(t, sections["input.nq"], sections["rules"], Config{})
			if wantErr, ok := sections["error"]; ok {
				want := strings.TrimSpace(wantErr)
				if err == nil {
					t.Fatalf("saturation succeeded, want error containing %q:\n%s",
						want, dump(e, true))
				}
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("error %q does not contain %q", err, want)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := dump(e, true)
			if d := diff.Diff("facts", []byte(sections["facts"]), "got", []byte(got)); d != nil {
				t.Errorf("saturated facts mismatch:\n%s", d)
			}
		})
	}
}
