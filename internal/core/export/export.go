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

// Package export lays a saturated engine state out as a module.
//
// The artifact uses a canonical dense numbering: retired resource ids
// and facts rewritten away by merges are dropped, survivors are
// renumbered in ascending id order, and every cross-reference
// (interpretation indexes, fact positions, classification members,
// cause values) is rewritten to the dense numbering. A Merged cause
// whose predecessor was dropped collapses to the predecessor's own
// justification, so every written cause resolves within the file.
package export

import (
	"sort"

	"inferdf.dev/go/internal/core/classify"
	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/module"
	"inferdf.dev/go/rdf"
)

// Export builds a module from a saturated state.
func Export(in *interp.Interpretation, ds *dataset.Dataset, cl *classify.Classification, pageSize uint32) (*module.Builder, error) {
	b, err := module.NewBuilder(pageSize)
	if err != nil {
		return nil, err
	}
	x := &exporter{in: in, ds: ds, cl: cl, b: b}
	x.remapResources()
	x.writeInterpretation()
	x.writeDataset()
	x.writeClassification()
	return b, nil
}

type exporter struct {
	in *interp.Interpretation
	ds *dataset.Dataset
	cl *classify.Classification
	b  *module.Builder

	dense map[interp.Resource]uint32
}

func (x *exporter) remapResources() {
	x.dense = map[interp.Resource]uint32{}
	for r := 0; r < x.in.Len(); r++ {
		if x.in.Live(interp.Resource(r)) {
			x.dense[interp.Resource(r)] = uint32(len(x.dense))
		}
	}
}

func (x *exporter) id(r interp.Resource) uint32 {
	return x.dense[x.in.Representative(r)]
}

func (x *exporter) writeInterpretation() {
	for i := 0; i < x.in.NumIRIs(); i++ {
		id := interp.IRIID(i)
		x.b.AddIRI(module.Iri{
			IRI:            x.b.AddHeap([]byte(x.in.IRIText(id))),
			Interpretation: x.id(x.in.IRIResource(id)),
		})
	}
	for i := 0; i < x.in.NumLiterals(); i++ {
		id := interp.LiteralID(i)
		t := x.in.LiteralTerm(id)
		rec := module.Literal{Value: x.b.AddHeap([]byte(t.Value))}
		switch t.Variant {
		case rdf.Language:
			rec.TypeVariant = module.LiteralLanguage
			rec.TypeValue = x.b.AddHeap([]byte(t.Qualifier))
		case rdf.Datatype:
			rec.TypeVariant = module.LiteralDatatype
			rec.TypeValue = x.b.AddHeap([]byte(t.Qualifier))
		}
		x.b.AddLiteral(rec)
	}
	for r := 0; r < x.in.Len(); r++ {
		res := interp.Resource(r)
		if !x.in.Live(res) {
			continue
		}
		rec := module.Resource{
			ID:       x.dense[res],
			IRIs:     x.b.AddHeapU32s(x.in.IRIs(res)),
			Literals: x.b.AddHeapU32s(x.in.Literals(res)),
			NE:       x.b.AddHeapU32s(x.remapIDs(x.in.NE(res))),
		}
		if cl, ok := x.cl.ClassOf(res); ok {
			rec.HasClass = true
			rec.Class = module.Class{
				Group:  module.GroupID{Layer: cl.Group.Layer, Index: cl.Group.Index},
				Member: cl.Member,
			}
		}
		x.b.AddResource(rec)
	}
}

// remapIDs maps a slice of resource ids onto the dense numbering and
// sorts the result.
func (x *exporter) remapIDs(ids []uint32) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = x.id(interp.Resource(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (x *exporter) writeDataset() {
	x.writeGraph(x.b.DefaultGraph(), x.ds.Default())
	for _, name := range x.ds.Names() {
		gb := x.b.NamedGraph(x.id(name))
		x.writeGraph(gb, x.ds.Graph(dataset.GraphID{Named: true, Name: name}))
	}
}

func (x *exporter) writeGraph(gb *module.GraphBuilder, g *dataset.Graph) {
	denseFact := map[uint32]uint32{}
	var live []uint32
	for id := 0; id < g.NumFacts(); id++ {
		if g.Alive(uint32(id)) {
			denseFact[uint32(id)] = uint32(len(live))
			live = append(live, uint32(id))
		}
	}

	type occurrence struct{ s, p, o []uint32 }
	index := map[uint32]*occurrence{}
	occ := func(id uint32) *occurrence {
		o, ok := index[id]
		if !ok {
			o = &occurrence{}
			index[id] = o
		}
		return o
	}

	for _, id := range live {
		f := g.Fact(id)
		rec := module.Fact{
			Sign: uint8(f.Sign),
			S:    x.id(f.Triple.S),
			P:    x.id(f.Triple.P),
			O:    x.id(f.Triple.O),
		}
		rec.CauseKind, rec.CauseValue = x.resolveCause(g, f.Cause, denseFact)
		fid := gb.AddFact(rec)
		occ(rec.S).s = append(occ(rec.S).s, fid)
		occ(rec.P).p = append(occ(rec.P).p, fid)
		occ(rec.O).o = append(occ(rec.O).o, fid)
	}

	ids := make([]uint32, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		o := index[id]
		gb.AddResource(module.GraphResource{
			ID:          id,
			AsSubject:   x.b.AddHeapU32s(o.s),
			AsPredicate: x.b.AddHeapU32s(o.p),
			AsObject:    x.b.AddHeapU32s(o.o),
		})
	}
}

// resolveCause rewrites a cause to the dense fact numbering. A Merged
// predecessor that was itself dropped collapses to its own cause,
// transitively.
func (x *exporter) resolveCause(g *dataset.Graph, c dataset.Cause, denseFact map[uint32]uint32) (uint8, uint32) {
	for c.Kind == dataset.Merged {
		if dense, ok := denseFact[c.Value]; ok {
			return module.CauseMerged, dense
		}
		c = g.Fact(c.Value).Cause
	}
	return uint8(c.Kind), c.Value
}

func (x *exporter) writeClassification() {
	groups := x.cl.Groups()

	// The by-id table keeps (layer, index) order; the by-desc table
	// orders each layer's groups by structural description.
	type described struct {
		g    classify.Group
		desc []uint32
		vec  module.Vec
	}
	all := make([]described, len(groups))
	for i, g := range groups {
		desc := x.remapIDs(resourcesToIDs(g.Members))
		all[i] = described{g: g, desc: desc, vec: x.b.AddHeapU32s(desc)}
	}

	for _, d := range all {
		x.b.AddGroupByID(module.GroupByID{
			ID:          module.GroupID{Layer: d.g.ID.Layer, Index: d.g.ID.Index},
			Description: d.vec,
		})
	}

	byDesc := make([]described, len(all))
	copy(byDesc, all)
	sort.SliceStable(byDesc, func(i, j int) bool {
		a, b := byDesc[i], byDesc[j]
		if a.g.ID.Layer != b.g.ID.Layer {
			return a.g.ID.Layer < b.g.ID.Layer
		}
		return lessIDs(a.desc, b.desc)
	})
	for _, d := range byDesc {
		x.b.AddGroupByDesc(module.GroupByDesc{
			Layer:       d.g.ID.Layer,
			Description: d.vec,
			Index:       d.g.ID.Index,
		})
	}

	for _, rep := range x.cl.Representatives() {
		x.b.AddRepresentative(module.Representative{
			Class: module.Class{
				Group:  module.GroupID{Layer: rep.Class.Group.Layer, Index: rep.Class.Group.Index},
				Member: rep.Class.Member,
			},
			Resource: x.id(rep.Resource),
		})
	}
}

func resourcesToIDs(rs []interp.Resource) []uint32 {
	out := make([]uint32, len(rs))
	for i, r := range rs {
		out[i] = uint32(r)
	}
	return out
}

func lessIDs(a, b []uint32) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
