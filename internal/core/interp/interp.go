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

// Package interp implements the interpretation of lexical terms as
// resources: a vocabulary deduplicating IRIs and literals into dense
// ids, the per-resource term sets, proven non-equalities, and the
// merging of equated resources through a union-find structure.
package interp

import (
	"sort"
	"strconv"

	"github.com/mpvl/unique"

	"inferdf.dev/go/rdf"
)

// A Resource identifies an interpreted resource. Ids densify from 0
// and are never reused; a merged-away id remains valid as a forwarding
// entry resolved by Representative.
type Resource uint32

// An IRIID indexes the vocabulary's IRI table.
type IRIID uint32

// A LiteralID indexes the vocabulary's literal table.
type LiteralID uint32

type iriEntry struct {
	text string
	of   Resource
}

type literalEntry struct {
	value   string
	variant rdf.LiteralVariant
	qual    string
	of      Resource
}

// state holds the term sets of a live resource. Only representatives
// carry meaningful state; a retired resource's state is zeroed at
// merge time.
type state struct {
	iris     []uint32 // sorted IRIID values
	literals []uint32 // sorted LiteralID values
	ne       []uint32 // sorted Resource values proven distinct
}

// An Interpretation maps terms to resources. The zero value is not
// usable; call New.
type Interpretation struct {
	iris   []iriEntry
	iriIDs map[string]IRIID

	literals []literalEntry
	litIDs   map[literalKey]LiteralID

	states []state
	parent []Resource

	retired int
}

type literalKey struct {
	value   string
	variant rdf.LiteralVariant
	qual    string
}

// New returns an empty interpretation.
func New() *Interpretation {
	return &Interpretation{
		iriIDs: map[string]IRIID{},
		litIDs: map[literalKey]LiteralID{},
	}
}

func (x *Interpretation) newResource() Resource {
	r := Resource(len(x.states))
	x.states = append(x.states, state{})
	x.parent = append(x.parent, r)
	return r
}

// Anonymous allocates a fresh resource denoted by no term. Blank node
// labels are resolved to anonymous resources by the input loader, one
// scope per document.
func (x *Interpretation) Anonymous() Resource { return x.newResource() }

// IRI interprets an IRI, binding it to a fresh resource on first
// sight. Equal IRI text always yields the same id.
func (x *Interpretation) IRI(text string) Resource {
	if id, ok := x.iriIDs[text]; ok {
		return x.Representative(x.iris[id].of)
	}
	r := x.newResource()
	id := IRIID(len(x.iris))
	x.iris = append(x.iris, iriEntry{text: text, of: r})
	x.iriIDs[text] = id
	x.states[r].iris = []uint32{uint32(id)}
	return r
}

// Literal interprets a literal term. Distinct (lexical, variant,
// qualifier) keys yield distinct initial resources; rules may merge
// them later. Lexical forms of the XSD numeric datatypes are
// canonicalized first, so spelling variants of one value interpret to
// one resource.
func (x *Interpretation) Literal(t rdf.Term) Resource {
	k := literalKey{value: t.Value, variant: t.Variant, qual: t.Qualifier}
	if t.Variant == rdf.Datatype {
		k.value = canonNumeric(t.Value, t.Qualifier)
	}
	if id, ok := x.litIDs[k]; ok {
		return x.Representative(x.literals[id].of)
	}
	r := x.newResource()
	id := LiteralID(len(x.literals))
	x.literals = append(x.literals, literalEntry{
		value:   k.value,
		variant: k.variant,
		qual:    k.qual,
		of:      r,
	})
	x.litIDs[k] = id
	x.states[r].literals = []uint32{uint32(id)}
	return r
}

// Term interprets any term except blank nodes, which are scoped by the
// loader.
func (x *Interpretation) Term(t rdf.Term) Resource {
	if t.Kind == rdf.Literal {
		return x.Literal(t)
	}
	return x.IRI(t.Value)
}

// Representative returns the surviving id of any merge chain that r
// took part in. It is idempotent and performs path compression.
func (x *Interpretation) Representative(r Resource) Resource {
	root := r
	for x.parent[root] != root {
		root = x.parent[root]
	}
	for x.parent[r] != root {
		x.parent[r], r = root, x.parent[r]
	}
	return root
}

// Merge unifies a and b, keeping the smaller id as survivor. The
// survivor absorbs the retired resource's term sets and
// non-equalities. The caller is responsible for rewriting graph
// occurrences of the retired id. When a and b already coincide, the
// returned retired id equals the survivor and nothing changes.
func (x *Interpretation) Merge(a, b Resource) (survivor, retired Resource, err error) {
	a, b = x.Representative(a), x.Representative(b)
	if a == b {
		return a, a, nil
	}
	if a > b {
		a, b = b, a
	}
	if containsID(x.states[a].ne, uint32(b)) {
		return a, b, &ConflictNonEqual{A: a, B: b}
	}

	x.parent[b] = a
	x.retired++
	sa, sb := &x.states[a], &x.states[b]

	for _, id := range sb.iris {
		x.iris[id].of = a
	}
	sa.iris = mergeIDs(sa.iris, sb.iris)
	for _, id := range sb.literals {
		x.literals[id].of = a
	}
	sa.literals = mergeIDs(sa.literals, sb.literals)

	// Re-point the retired id inside other resources' ne sets.
	for _, n := range sb.ne {
		ns := &x.states[n].ne
		for i, v := range *ns {
			if Resource(v) == b {
				(*ns)[i] = uint32(a)
			}
		}
		dedupIDs(ns)
	}
	sa.ne = mergeIDs(sa.ne, sb.ne)

	x.states[b] = state{}
	return a, b, nil
}

// SetNonEqual asserts that a and b denote distinct resources, in both
// directions. It fails if the two have already been merged.
func (x *Interpretation) SetNonEqual(a, b Resource) error {
	a, b = x.Representative(a), x.Representative(b)
	if a == b {
		return &ConflictAlreadyMerged{A: a, B: b}
	}
	x.states[a].ne = insertID(x.states[a].ne, uint32(b))
	x.states[b].ne = insertID(x.states[b].ne, uint32(a))
	return nil
}

// NonEqual reports whether a and b are proven distinct.
func (x *Interpretation) NonEqual(a, b Resource) bool {
	a, b = x.Representative(a), x.Representative(b)
	return containsID(x.states[a].ne, uint32(b))
}

// Len reports the number of resource ids ever allocated, including
// retired ones.
func (x *Interpretation) Len() int { return len(x.states) }

// Live reports whether r is a representative (not retired by a merge).
func (x *Interpretation) Live(r Resource) bool { return x.parent[r] == r }

// NumRetired reports how many ids have been retired by merging.
func (x *Interpretation) NumRetired() int { return x.retired }

// IRIs returns the sorted IRI ids denoting r.
func (x *Interpretation) IRIs(r Resource) []uint32 {
	return x.states[x.Representative(r)].iris
}

// Literals returns the sorted literal ids denoting r.
func (x *Interpretation) Literals(r Resource) []uint32 {
	return x.states[x.Representative(r)].literals
}

// NE returns the sorted ids of resources proven distinct from r.
func (x *Interpretation) NE(r Resource) []uint32 {
	return x.states[x.Representative(r)].ne
}

// NumIRIs reports the size of the IRI table.
func (x *Interpretation) NumIRIs() int { return len(x.iris) }

// IRIText returns the text of an interned IRI.
func (x *Interpretation) IRIText(id IRIID) string { return x.iris[id].text }

// IRIResource returns the resource an interned IRI denotes.
func (x *Interpretation) IRIResource(id IRIID) Resource {
	return x.Representative(x.iris[id].of)
}

// NumLiterals reports the size of the literal table.
func (x *Interpretation) NumLiterals() int { return len(x.literals) }

// LiteralTerm reconstructs the term form of an interned literal.
func (x *Interpretation) LiteralTerm(id LiteralID) rdf.Term {
	e := x.literals[id]
	return rdf.Term{Kind: rdf.Literal, Value: e.value, Variant: e.variant, Qualifier: e.qual}
}

// LiteralResource returns the resource an interned literal denotes.
func (x *Interpretation) LiteralResource(id LiteralID) Resource {
	return x.Representative(x.literals[id].of)
}

// Name renders a printable name for r: its smallest IRI, else its
// smallest literal, else a #id placeholder.
func (x *Interpretation) Name(r Resource) string {
	r = x.Representative(r)
	s := x.states[r]
	if len(s.iris) > 0 {
		return "<" + x.iris[s.iris[0]].text + ">"
	}
	if len(s.literals) > 0 {
		return x.LiteralTerm(LiteralID(s.literals[0])).String()
	}
	return "_:r" + strconv.FormatUint(uint64(r), 10)
}

// idSlice adapts a []uint32 to unique.Interface.
type idSlice struct{ p *[]uint32 }

func (s idSlice) Len() int           { return len(*s.p) }
func (s idSlice) Less(i, j int) bool { return (*s.p)[i] < (*s.p)[j] }
func (s idSlice) Swap(i, j int)      { (*s.p)[i], (*s.p)[j] = (*s.p)[j], (*s.p)[i] }
func (s idSlice) Truncate(n int)     { *s.p = (*s.p)[:n] }

func dedupIDs(p *[]uint32) { unique.Sort(idSlice{p}) }

func mergeIDs(a, b []uint32) []uint32 {
	out := append(append([]uint32{}, a...), b...)
	dedupIDs(&out)
	return out
}

func insertID(s []uint32, v uint32) []uint32 {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func containsID(s []uint32, v uint32) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return i < len(s) && s[i] == v
}
