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

package dataset

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"inferdf.dev/go/internal/core/interp"
)

func tr(s, p, o uint32) Triple {
	return Triple{S: interp.Resource(s), P: interp.Resource(p), O: interp.Resource(o)}
}

func TestInsertIdempotent(t *testing.T) {
	g := NewGraph()
	f := Fact{Sign: Positive, Triple: tr(1, 2, 3), Cause: Cause{Kind: Stated, Value: 7}}
	id, fresh, err := g.Insert(f)
	if err != nil || !fresh {
		t.Fatalf("first insert: id=%d fresh=%v err=%v", id, fresh, err)
	}
	id2, fresh2, err := g.Insert(Fact{Sign: Positive, Triple: tr(1, 2, 3), Cause: Cause{Kind: Inferred, Value: 9}})
	if err != nil || fresh2 || id2 != id {
		t.Fatalf("re-insert: id=%d fresh=%v err=%v", id2, fresh2, err)
	}
	if got := g.Fact(id).Cause; got != f.Cause {
		t.Fatalf("re-insert replaced cause: %v", got)
	}
}

func TestSignConflict(t *testing.T) {
	g := NewGraph()
	if _, _, err := g.Insert(Fact{Sign: Positive, Triple: tr(1, 2, 3)}); err != nil {
		t.Fatal(err)
	}
	_, _, err := g.Insert(Fact{Sign: Negative, Triple: tr(1, 2, 3)})
	var conflict *ConflictSign
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictSign", err)
	}
	if conflict.Have != Positive {
		t.Fatalf("conflict.Have=%v, want Positive", conflict.Have)
	}
}

func TestIndexes(t *testing.T) {
	g := NewGraph()
	a, _, _ := g.Insert(Fact{Sign: Positive, Triple: tr(1, 2, 3)})
	b, _, _ := g.Insert(Fact{Sign: Positive, Triple: tr(1, 4, 5)})
	c, _, _ := g.Insert(Fact{Sign: Negative, Triple: tr(5, 2, 1)})

	if diff := cmp.Diff([]uint32{a, b}, g.FactsWithSubject(1)); diff != "" {
		t.Fatalf("subject index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{a, c}, g.FactsWithPredicate(2)); diff != "" {
		t.Fatalf("predicate index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{c}, g.FactsWithObject(1)); diff != "" {
		t.Fatalf("object index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]interp.Resource{1, 2, 3, 4, 5}, g.Resources()); diff != "" {
		t.Fatalf("resources (-want +got):\n%s", diff)
	}
}

func TestRewrite(t *testing.T) {
	g := NewGraph()
	orig, _, _ := g.Insert(Fact{Sign: Positive, Triple: tr(9, 2, 9), Cause: Cause{Kind: Stated, Value: 1}})
	keep, _, _ := g.Insert(Fact{Sign: Positive, Triple: tr(1, 2, 3), Cause: Cause{Kind: Stated, Value: 2}})

	succ, err := g.Rewrite(9, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(succ) != 1 {
		t.Fatalf("successors=%v, want one", succ)
	}
	if g.Alive(orig) {
		t.Fatal("rewritten fact still alive")
	}
	f := g.Fact(succ[0])
	if f.Triple != tr(1, 2, 1) {
		t.Fatalf("successor triple %v", f.Triple)
	}
	if f.Cause != (Cause{Kind: Merged, Value: orig}) {
		t.Fatalf("successor cause %v", f.Cause)
	}
	if fid, ok := g.Successor(orig); !ok || fid != succ[0] {
		t.Fatalf("Successor(%d)=%d,%v", orig, fid, ok)
	}
	if !g.Alive(keep) {
		t.Fatal("unrelated fact retired")
	}
	if _, ok := g.Lookup(tr(9, 2, 9)); ok {
		t.Fatal("old triple still resolvable")
	}
}

func TestRewriteCollision(t *testing.T) {
	g := NewGraph()
	dup, _, _ := g.Insert(Fact{Sign: Positive, Triple: tr(9, 2, 3)})
	exist, _, _ := g.Insert(Fact{Sign: Positive, Triple: tr(1, 2, 3)})
	succ, err := g.Rewrite(9, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(succ) != 0 {
		t.Fatalf("collision created successors %v", succ)
	}
	if fid, ok := g.Successor(dup); !ok || fid != exist {
		t.Fatalf("Successor(%d)=%d,%v, want %d", dup, fid, ok, exist)
	}
}

func TestRewriteSignCollision(t *testing.T) {
	g := NewGraph()
	g.Insert(Fact{Sign: Negative, Triple: tr(9, 2, 3)})
	g.Insert(Fact{Sign: Positive, Triple: tr(1, 2, 3)})
	_, err := g.Rewrite(9, 1)
	var conflict *ConflictSign
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictSign", err)
	}
}

func TestDatasetGraphMergeOnName(t *testing.T) {
	in := interp.New()
	ga := in.IRI("http://x/ga")
	gb := in.IRI("http://x/gb")
	d := New()
	d.Graph(GraphID{Named: true, Name: ga}).Insert(Fact{Sign: Positive, Triple: tr(10, 11, 12)})
	d.Graph(GraphID{Named: true, Name: gb}).Insert(Fact{Sign: Positive, Triple: tr(20, 21, 22)})

	if _, err := d.Rewrite(gb, ga); err != nil {
		t.Fatal(err)
	}
	names := d.Names()
	if len(names) != 1 || names[0] != ga {
		t.Fatalf("names after merge: %v", names)
	}
	g := d.Graph(GraphID{Named: true, Name: ga})
	if _, ok := g.Lookup(tr(20, 21, 22)); !ok {
		t.Fatal("facts of retired graph not carried over")
	}
}
