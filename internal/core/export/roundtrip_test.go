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

package export

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"inferdf.dev/go/internal/core/classify"
	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/inference"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/module"
	"inferdf.dev/go/rdf"
	"inferdf.dev/go/rule"
)

const quads = `
<http://example.com/a> <http://example.com/p> <http://example.com/b> .
<http://example.com/a> <http://www.w3.org/2002/07/owl#sameAs> <http://example.com/a2> .
<http://example.com/a> <http://example.com/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> <http://example.com/g> .
`

const rules = `
prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
prefix owl: <http://www.w3.org/2002/07/owl#>
prefix ex: <http://example.com/>

rule typer {
	?x ex:p ?y .
} => {
	?y rdf:type ex:T .
}

rule same-as {
	?x owl:sameAs ?y .
} => {
	?x = ?y .
}
`

// buildModule runs the full write path: parse, saturate, classify,
// export, encode.
func buildModule(t *testing.T) []byte {
	t.Helper()
	f, err := rule.Parse("rules", []byte(rules))
	qt.Assert(t, qt.IsNil(err))

	in := interp.New()
	compiled, err := inference.Compile(in, f)
	qt.Assert(t, qt.IsNil(err))
	e := inference.New(in, dataset.New(), compiled, inference.Config{})

	d := rdf.NewDecoder(strings.NewReader(quads))
	var stmts []*rdf.Statement
	for {
		st, err := d.Decode()
		if err == io.EOF {
			break
		}
		qt.Assert(t, qt.IsNil(err))
		stmts = append(stmts, st)
	}
	qt.Assert(t, qt.IsNil(e.LoadDocument(stmts)))
	qt.Assert(t, qt.IsNil(e.Saturate()))

	cl := classify.Classify(in, e.Dataset())
	b, err := Export(in, e.Dataset(), cl, 256)
	qt.Assert(t, qt.IsNil(err))

	var buf bytes.Buffer
	_, err = b.WriteTo(&buf)
	qt.Assert(t, qt.IsNil(err))
	return buf.Bytes()
}

func TestEncodeIsDeterministic(t *testing.T) {
	if !bytes.Equal(buildModule(t), buildModule(t)) {
		t.Fatal("two identical builds encode to different bytes")
	}
}

func TestReopenedModuleInvariants(t *testing.T) {
	data := buildModule(t)
	r, err := module.NewReader(bytes.NewReader(data))
	qt.Assert(t, qt.IsNil(err))

	resources, err := r.Resources().All()
	qt.Assert(t, qt.IsNil(err))
	numRes := uint32(len(resources))

	// Dense canonical numbering: record index equals id.
	for i, res := range resources {
		qt.Assert(t, qt.Equals(res.ID, uint32(i)))
	}

	// Interpretation uniqueness: every IRI and literal id appears in
	// exactly one resource's term set, and that resource is the one
	// the vocabulary entry points at.
	iris, err := r.IRIs().All()
	qt.Assert(t, qt.IsNil(err))
	seenIRI := map[uint32]uint32{}
	for _, res := range resources {
		ids, err := r.HeapU32s(res.IRIs)
		qt.Assert(t, qt.IsNil(err))
		for _, id := range ids {
			_, dup := seenIRI[id]
			qt.Assert(t, qt.IsFalse(dup), qt.Commentf("IRI %d in two resources", id))
			seenIRI[id] = res.ID
			qt.Assert(t, qt.Equals(iris[id].Interpretation, res.ID))
		}
	}
	qt.Assert(t, qt.Equals(len(seenIRI), len(iris)))

	// The merged a/a2 pair shares one resource.
	textOf := func(i int) string {
		s, err := r.HeapString(iris[i].IRI)
		qt.Assert(t, qt.IsNil(err))
		return s
	}
	byText := map[string]uint32{}
	for i := range iris {
		byText[textOf(i)] = iris[i].Interpretation
	}
	qt.Assert(t, qt.Equals(
		byText["http://example.com/a"], byText["http://example.com/a2"]))

	// Graph invariants: positions in range, one sign per triple, and
	// the per-resource index lists exactly the facts it occurs in.
	graphs := []module.GraphDescription{r.DefaultGraph()}
	named, err := r.NamedGraphs().All()
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(named), 1))
	graphs = append(graphs, named[0].Graph)

	for _, gd := range graphs {
		facts, err := r.Facts(gd).All()
		qt.Assert(t, qt.IsNil(err))
		signs := map[[3]uint32]uint8{}
		for _, f := range facts {
			for _, pos := range []uint32{f.S, f.P, f.O} {
				qt.Assert(t, qt.IsTrue(pos < numRes))
			}
			key := [3]uint32{f.S, f.P, f.O}
			if have, ok := signs[key]; ok {
				qt.Assert(t, qt.Equals(have, f.Sign))
			}
			signs[key] = f.Sign
			if f.CauseKind == module.CauseMerged {
				qt.Assert(t, qt.IsTrue(f.CauseValue < uint32(len(facts))))
			}
		}
		grs, err := r.GraphResources(gd).All()
		qt.Assert(t, qt.IsNil(err))
		for _, gr := range grs {
			for _, id := range mustU32s(t, r, gr.AsSubject) {
				qt.Assert(t, qt.Equals(facts[id].S, gr.ID))
			}
			for _, id := range mustU32s(t, r, gr.AsPredicate) {
				qt.Assert(t, qt.Equals(facts[id].P, gr.ID))
			}
			for _, id := range mustU32s(t, r, gr.AsObject) {
				qt.Assert(t, qt.Equals(facts[id].O, gr.ID))
			}
		}
	}

	// Classification: every representative belongs to its group's
	// description, and group descriptions only name valid resources.
	reps, err := r.Representatives().All()
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Not(qt.Equals(len(reps), 0)))
	byID, err := r.GroupsByID().All()
	qt.Assert(t, qt.IsNil(err))
	groups := map[module.GroupID][]uint32{}
	for _, g := range byID {
		groups[g.ID] = mustU32s(t, r, g.Description)
	}
	for _, rep := range reps {
		members := groups[rep.Class.Group]
		qt.Assert(t, qt.IsTrue(int(rep.Class.Member) < len(members)))
		qt.Assert(t, qt.Equals(members[rep.Class.Member], rep.Resource))
	}
	byDesc, err := r.GroupsByDesc().All()
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(byDesc), len(byID)))
	for _, g := range byDesc {
		for _, m := range mustU32s(t, r, g.Description) {
			qt.Assert(t, qt.IsTrue(m < numRes))
		}
	}
}

func mustU32s(t *testing.T, r *module.Reader, v module.Vec) []uint32 {
	t.Helper()
	out, err := r.HeapU32s(v)
	qt.Assert(t, qt.IsNil(err))
	return out
}
