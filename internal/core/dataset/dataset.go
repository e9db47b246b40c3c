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

// Package dataset stores signed facts per graph, indexed by the
// resources occurring in each triple position. Fact ids are assigned
// monotonically per graph and never reused; a fact retired by a merge
// rewrite stays in the table as provenance, flagged dead and excluded
// from matching.
package dataset

import (
	"sort"

	"inferdf.dev/go/internal/core/interp"
)

// Sign tags a triple as asserted present or proven absent. The values
// match the sign byte of the module format.
type Sign uint8

const (
	Positive Sign = 0
	Negative Sign = 1
)

func (s Sign) String() string {
	if s == Negative {
		return "-"
	}
	return "+"
}

// A Triple is an ordered triple of resource ids.
type Triple struct {
	S, P, O interp.Resource
}

// CauseKind discriminates fact justifications. The values match the
// cause discriminant of the module format.
type CauseKind uint8

const (
	// Stated facts come from the input; the cause value is the input
	// line id.
	Stated CauseKind = 0
	// Inferred facts were produced by a rule; the value is the rule
	// instance id.
	Inferred CauseKind = 1
	// Merged facts are rewrites of a predecessor fact whose id is the
	// value.
	Merged CauseKind = 2
)

// A Cause justifies a fact.
type Cause struct {
	Kind  CauseKind
	Value uint32
}

// A Fact is a signed triple with its justification.
type Fact struct {
	Sign   Sign
	Triple Triple
	Cause  Cause
}

// A Graph holds the facts of one graph with a full triple index.
type Graph struct {
	facts   []Fact
	dead    []bool
	forward []uint32 // dead fact id -> successor fact id, or ^0

	byTriple  map[Triple]uint32
	subject   map[interp.Resource][]uint32
	predicate map[interp.Resource][]uint32
	object    map[interp.Resource][]uint32

	version uint64
}

const noFact = ^uint32(0)

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byTriple:  map[Triple]uint32{},
		subject:   map[interp.Resource][]uint32{},
		predicate: map[interp.Resource][]uint32{},
		object:    map[interp.Resource][]uint32{},
	}
}

// Version is bumped by every mutation. Lazy binding sequences snapshot
// it to detect use across a mutation.
func (g *Graph) Version() uint64 { return g.version }

// NumFacts reports the number of fact ids allocated, dead ones
// included.
func (g *Graph) NumFacts() int { return len(g.facts) }

// Fact returns the fact with the given id.
func (g *Graph) Fact(id uint32) Fact { return g.facts[id] }

// Alive reports whether id has not been retired by a rewrite.
func (g *Graph) Alive(id uint32) bool { return !g.dead[id] }

// Successor follows rewrite forwarding from a dead fact to the live
// fact that replaced it, if any.
func (g *Graph) Successor(id uint32) (uint32, bool) {
	for g.dead[id] {
		next := g.forward[id]
		if next == noFact {
			return 0, false
		}
		id = next
	}
	return id, true
}

// Lookup returns the live fact asserting t with either sign.
func (g *Graph) Lookup(t Triple) (id uint32, ok bool) {
	id, ok = g.byTriple[t]
	return id, ok
}

// Insert adds a fact. The caller must have normalized every triple
// position to its representative. Insertion is idempotent on (sign,
// triple): re-asserting an existing fact returns its id with fresh
// false and keeps the first cause. Asserting the opposite sign of an
// existing fact is a sign conflict.
func (g *Graph) Insert(f Fact) (id uint32, fresh bool, err error) {
	if id, ok := g.byTriple[f.Triple]; ok {
		have := g.facts[id]
		if have.Sign != f.Sign {
			return id, false, &ConflictSign{Triple: f.Triple, Have: have.Sign}
		}
		return id, false, nil
	}
	id = uint32(len(g.facts))
	g.facts = append(g.facts, f)
	g.dead = append(g.dead, false)
	g.forward = append(g.forward, noFact)
	g.byTriple[f.Triple] = id
	g.subject[f.Triple.S] = append(g.subject[f.Triple.S], id)
	g.predicate[f.Triple.P] = append(g.predicate[f.Triple.P], id)
	g.object[f.Triple.O] = append(g.object[f.Triple.O], id)
	g.version++
	return id, true, nil
}

// FactsWithSubject returns the ids of facts with r in subject
// position. The returned slice may contain dead facts; callers filter
// with Alive. It must not be mutated.
func (g *Graph) FactsWithSubject(r interp.Resource) []uint32 { return g.subject[r] }

// FactsWithPredicate is FactsWithSubject for the predicate position.
func (g *Graph) FactsWithPredicate(r interp.Resource) []uint32 { return g.predicate[r] }

// FactsWithObject is FactsWithSubject for the object position.
func (g *Graph) FactsWithObject(r interp.Resource) []uint32 { return g.object[r] }

// Rewrite replaces every occurrence of from with to, retiring each
// affected fact and inserting its rewritten successor with a Merged
// cause. It returns the ids of the successor facts. A rewrite that
// collides with an existing fact of the same sign forwards to that
// fact instead of duplicating it; a collision with the opposite sign
// is a sign conflict.
func (g *Graph) Rewrite(from, to interp.Resource) (successors []uint32, err error) {
	var affected []uint32
	for _, list := range [][]uint32{g.subject[from], g.predicate[from], g.object[from]} {
		for _, id := range list {
			if !g.dead[id] {
				affected = append(affected, id)
			}
		}
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	affected = compactIDs(affected)

	for _, id := range affected {
		if g.dead[id] { // retired earlier in this same pass
			continue
		}
		old := g.facts[id]
		t := old.Triple
		if t.S == from {
			t.S = to
		}
		if t.P == from {
			t.P = to
		}
		if t.O == from {
			t.O = to
		}
		g.dead[id] = true
		delete(g.byTriple, old.Triple)
		g.version++

		if have, ok := g.byTriple[t]; ok {
			if g.facts[have].Sign != old.Sign {
				return successors, &ConflictSign{Triple: t, Have: g.facts[have].Sign}
			}
			g.forward[id] = have
			continue
		}
		succ, _, err := g.Insert(Fact{
			Sign:   old.Sign,
			Triple: t,
			Cause:  Cause{Kind: Merged, Value: id},
		})
		if err != nil {
			return successors, err
		}
		g.forward[id] = succ
		successors = append(successors, succ)
	}

	delete(g.subject, from)
	delete(g.predicate, from)
	delete(g.object, from)
	return successors, nil
}

// Resources returns the sorted resources occurring in any position of
// a live fact.
func (g *Graph) Resources() []interp.Resource {
	seen := map[interp.Resource]bool{}
	for id, f := range g.facts {
		if g.dead[id] {
			continue
		}
		seen[f.Triple.S] = true
		seen[f.Triple.P] = true
		seen[f.Triple.O] = true
	}
	out := make([]interp.Resource, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func compactIDs(s []uint32) []uint32 {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// A GraphID names a graph within a dataset.
type GraphID struct {
	Named bool
	Name  interp.Resource
}

// DefaultGraph is the id of the unnamed default graph.
var DefaultGraph = GraphID{}

// A Dataset is a default graph plus named graphs keyed by resource id.
type Dataset struct {
	def   *Graph
	named map[interp.Resource]*Graph
}

// New returns a dataset with an empty default graph.
func New() *Dataset {
	return &Dataset{def: NewGraph(), named: map[interp.Resource]*Graph{}}
}

// Default returns the default graph.
func (d *Dataset) Default() *Graph { return d.def }

// Graph returns the graph named by id, creating it on first use.
// The default graph is returned for the zero GraphID.
func (d *Dataset) Graph(id GraphID) *Graph {
	if !id.Named {
		return d.def
	}
	g, ok := d.named[id.Name]
	if !ok {
		g = NewGraph()
		d.named[id.Name] = g
	}
	return g
}

// Names returns the sorted resource ids of the named graphs.
func (d *Dataset) Names() []interp.Resource {
	out := make([]interp.Resource, 0, len(d.named))
	for r := range d.named {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rewrite applies a resource merge to every graph, including graph
// names. If two named graphs collapse onto one name, the retired
// graph's live facts are re-inserted into the surviving one.
// It returns the successor fact ids per graph.
func (d *Dataset) Rewrite(from, to interp.Resource) (map[GraphID][]uint32, error) {
	out := map[GraphID][]uint32{}
	succ, err := d.def.Rewrite(from, to)
	if len(succ) > 0 {
		out[DefaultGraph] = succ
	}
	if err != nil {
		return out, err
	}
	for name, g := range d.named {
		id := GraphID{Named: true, Name: name}
		succ, err := g.Rewrite(from, to)
		if len(succ) > 0 {
			out[id] = succ
		}
		if err != nil {
			return out, err
		}
	}
	if g, ok := d.named[from]; ok {
		delete(d.named, from)
		dst, exists := d.named[to]
		if !exists {
			d.named[to] = g
		} else {
			id := GraphID{Named: true, Name: to}
			for fid := 0; fid < g.NumFacts(); fid++ {
				if !g.Alive(uint32(fid)) {
					continue
				}
				f := g.Fact(uint32(fid))
				nid, fresh, err := dst.Insert(f)
				if fresh {
					out[id] = append(out[id], nid)
				}
				if err != nil {
					return out, err
				}
			}
		}
	}
	return out, nil
}
