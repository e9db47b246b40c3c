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

// Package classify partitions the resources of a saturated dataset
// into isomorphism groups by layered color refinement. Layer 0 groups
// resources by their degree vector over predicate ids; every further
// layer refines by the multiset of neighbour classes, to a fixpoint.
// The resulting classes and their representatives are the keys used
// to compose independently built modules.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/interp"
)

// A GroupID names one group: the refinement layer it was formed in
// and its index within that layer.
type GroupID struct {
	Layer, Index uint32
}

// A Class locates a resource inside its final group: the group id and
// the resource's index in the group's sorted member list.
type Class struct {
	Group  GroupID
	Member uint32
}

// A Group is one equivalence class of resources.
type Group struct {
	ID GroupID
	// Members is sorted by resource id; it doubles as the group's
	// structural description.
	Members []interp.Resource
}

// A Representative picks the canonical resource of one final group.
type Representative struct {
	Class    Class
	Resource interp.Resource
}

// A Classification is the result of classifying one module.
type Classification struct {
	groups  []Group // all layers, in (layer, index) order
	classes map[interp.Resource]Class
	reps    []Representative
}

// Groups returns every group of every layer in (layer, index) order.
func (c *Classification) Groups() []Group { return c.groups }

// ClassOf returns the final class of r.
func (c *Classification) ClassOf(r interp.Resource) (Class, bool) {
	cl, ok := c.classes[r]
	return cl, ok
}

// Representatives returns one representative per final group, in
// group order.
func (c *Classification) Representatives() []Representative { return c.reps }

// Classify computes the classification of a saturated dataset.
// Rerunning it on unchanged state yields an identical result.
func Classify(in *interp.Interpretation, ds *dataset.Dataset) *Classification {
	var live []interp.Resource
	for r := 0; r < in.Len(); r++ {
		if in.Live(interp.Resource(r)) {
			live = append(live, interp.Resource(r))
		}
	}

	c := &Classification{classes: map[interp.Resource]Class{}}
	if len(live) == 0 {
		return c
	}

	edges := collectEdges(ds)

	// class[r] is r's group index within the current layer.
	class := map[interp.Resource]uint32{}
	var layer uint32
	var final []Group
	prevCount := -1
	for {
		var sig func(r interp.Resource) string
		if layer == 0 {
			sig = func(r interp.Resource) string { return degreeSignature(edges[r]) }
		} else {
			sig = func(r interp.Resource) string { return refineSignature(class, r, edges[r]) }
		}
		groups := partition(live, sig, layer)
		for _, g := range groups {
			for _, m := range g.Members {
				class[m] = g.ID.Index
			}
		}
		c.groups = append(c.groups, groups...)
		final = groups
		if len(groups) == prevCount {
			break
		}
		prevCount = len(groups)
		layer++
	}

	for _, g := range final {
		for i, m := range g.Members {
			c.classes[m] = Class{Group: g.ID, Member: uint32(i)}
		}
		rep := pickRepresentative(in, g.Members)
		c.reps = append(c.reps, Representative{
			Class:    c.classes[rep],
			Resource: rep,
		})
	}
	return c
}

// edge is one occurrence of a resource in a fact, seen from that
// resource's point of view.
type edge struct {
	role byte // 's', 'p', or 'o'
	sign dataset.Sign
	a, b interp.Resource // the two other positions, in s,p,o order
}

func collectEdges(ds *dataset.Dataset) map[interp.Resource][]edge {
	edges := map[interp.Resource][]edge{}
	each := func(g *dataset.Graph) {
		for id := 0; id < g.NumFacts(); id++ {
			if !g.Alive(uint32(id)) {
				continue
			}
			f := g.Fact(uint32(id))
			t := f.Triple
			edges[t.S] = append(edges[t.S], edge{role: 's', sign: f.Sign, a: t.P, b: t.O})
			edges[t.P] = append(edges[t.P], edge{role: 'p', sign: f.Sign, a: t.S, b: t.O})
			edges[t.O] = append(edges[t.O], edge{role: 'o', sign: f.Sign, a: t.S, b: t.P})
		}
	}
	each(ds.Default())
	for _, name := range ds.Names() {
		each(ds.Graph(dataset.GraphID{Named: true, Name: name}))
	}
	return edges
}

// degreeSignature is the layer-0 key: per (role, sign, predicate) the
// occurrence count.
func degreeSignature(es []edge) string {
	counts := map[string]int{}
	for _, e := range es {
		var pred interp.Resource
		switch e.role {
		case 's':
			pred = e.a
		case 'o':
			pred = e.b
		}
		counts[fmt.Sprintf("%c%d|%d", e.role, e.sign, pred)]++
	}
	return joinCounts(counts)
}

// refineSignature keys a resource by the multiset of its neighbours'
// previous classes.
func refineSignature(class map[interp.Resource]uint32, r interp.Resource, es []edge) string {
	counts := map[string]int{}
	for _, e := range es {
		counts[fmt.Sprintf("%c%d|%d|%d", e.role, e.sign, class[e.a], class[e.b])]++
	}
	return fmt.Sprintf("%d!%s", class[r], joinCounts(counts))
}

func joinCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s*%d;", k, counts[k])
	}
	return b.String()
}

// partition splits the live resources into groups keyed by sig,
// ordering groups by signature for determinism.
func partition(live []interp.Resource, sig func(interp.Resource) string, layer uint32) []Group {
	byKey := map[string][]interp.Resource{}
	for _, r := range live {
		k := sig(r)
		byKey[k] = append(byKey[k], r)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	groups := make([]Group, len(keys))
	for i, k := range keys {
		members := byKey[k]
		sort.Slice(members, func(a, b int) bool { return members[a] < members[b] })
		groups[i] = Group{
			ID:      GroupID{Layer: layer, Index: uint32(i)},
			Members: members,
		}
	}
	return groups
}

// pickRepresentative chooses the canonical member: lexicographically
// smallest IRI, ties broken by smallest literal, then by id.
func pickRepresentative(in *interp.Interpretation, members []interp.Resource) interp.Resource {
	best := members[0]
	bestIRI, bestLit := termKeys(in, best)
	for _, m := range members[1:] {
		iri, lit := termKeys(in, m)
		switch {
		case less(iri, bestIRI):
			best, bestIRI, bestLit = m, iri, lit
		case iri == bestIRI && less(lit, bestLit):
			best, bestIRI, bestLit = m, iri, lit
		}
	}
	return best
}

// termKeys returns the smallest IRI text and literal rendering of r;
// empty means the resource has none.
func termKeys(in *interp.Interpretation, r interp.Resource) (iri, lit string) {
	for _, id := range in.IRIs(r) {
		if t := in.IRIText(interp.IRIID(id)); iri == "" || t < iri {
			iri = t
		}
	}
	for _, id := range in.Literals(r) {
		if t := in.LiteralTerm(interp.LiteralID(id)).String(); lit == "" || t < lit {
			lit = t
		}
	}
	return iri, lit
}

// less orders non-empty keys before empty ones.
func less(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	return a < b
}
