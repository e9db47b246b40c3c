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

package module

import (
	"bufio"
	"io"
)

// A GraphBuilder accumulates one graph's facts and resource index.
type GraphBuilder struct {
	facts     []Fact
	resources []GraphResource
}

// AddFact appends a fact and returns its id within the graph.
func (g *GraphBuilder) AddFact(f Fact) uint32 {
	g.facts = append(g.facts, f)
	return uint32(len(g.facts) - 1)
}

// AddResource appends a graph resource index record.
func (g *GraphBuilder) AddResource(r GraphResource) {
	g.resources = append(g.resources, r)
}

type namedGraphBuilder struct {
	id   uint32
	desc GraphDescription // filled in by layout
	GraphBuilder
}

// A Builder accumulates the contents of a module and lays them out as
// pages. Modules are write-once: a Builder is filled and written, not
// mutated afterwards.
type Builder struct {
	pageSize uint32
	heap     []byte

	iris      []Iri
	literals  []Literal
	resources []Resource

	defaultGraph GraphBuilder
	named        []*namedGraphBuilder

	groupsByDesc    []GroupByDesc
	groupsByID      []GroupByID
	representatives []Representative
}

// NewBuilder returns a builder for a module with the given page size.
func NewBuilder(pageSize uint32) (*Builder, error) {
	if pageSize < MinPageSize || pageSize%4 != 0 {
		return nil, &UnalignedPage{PageSize: pageSize}
	}
	return &Builder{pageSize: pageSize}, nil
}

// AddHeap stores a byte payload in the heap and returns its Entry.
func (b *Builder) AddHeap(data []byte) Entry {
	e := Entry{Offset: uint32(len(b.heap)), Len: uint32(len(data))}
	b.heap = append(b.heap, data...)
	return e
}

// AddHeapU32s stores a []uint32 side table in the heap and returns
// its Vec.
func (b *Builder) AddHeapU32s(vals []uint32) Vec {
	v := Vec{Offset: uint32(len(b.heap)), Len: uint32(len(vals))}
	var buf [4]byte
	for _, x := range vals {
		be.PutUint32(buf[:], x)
		b.heap = append(b.heap, buf[:]...)
	}
	return v
}

// AddIRI appends an IRI record and returns its id.
func (b *Builder) AddIRI(v Iri) uint32 {
	b.iris = append(b.iris, v)
	return uint32(len(b.iris) - 1)
}

// AddLiteral appends a literal record and returns its id.
func (b *Builder) AddLiteral(v Literal) uint32 {
	b.literals = append(b.literals, v)
	return uint32(len(b.literals) - 1)
}

// AddResource appends an interpretation resource record.
func (b *Builder) AddResource(v Resource) {
	b.resources = append(b.resources, v)
}

// DefaultGraph returns the builder of the default graph.
func (b *Builder) DefaultGraph() *GraphBuilder { return &b.defaultGraph }

// NamedGraph returns the builder of the graph named id, creating it
// on first use. Named graphs are written in call order.
func (b *Builder) NamedGraph(id uint32) *GraphBuilder {
	for _, g := range b.named {
		if g.id == id {
			return &g.GraphBuilder
		}
	}
	g := &namedGraphBuilder{id: id}
	b.named = append(b.named, g)
	return &g.GraphBuilder
}

// AddGroupByDesc appends to the description-ordered group table.
func (b *Builder) AddGroupByDesc(v GroupByDesc) {
	b.groupsByDesc = append(b.groupsByDesc, v)
}

// AddGroupByID appends to the id-ordered group table.
func (b *Builder) AddGroupByID(v GroupByID) {
	b.groupsByID = append(b.groupsByID, v)
}

// AddRepresentative appends a representative record.
func (b *Builder) AddRepresentative(v Representative) {
	b.representatives = append(b.representatives, v)
}

// layout assigns page offsets to every section in file order and
// returns the finished header.
func (b *Builder) layout() header {
	var page uint32
	section := func(n int, size uint32) Section {
		s := Section{PageOffset: page, EntryCount: uint32(n)}
		page += pagesFor(uint32(n), b.pageSize, size)
		return s
	}

	var h header
	h.pageSize = b.pageSize
	h.iris = section(len(b.iris), SizeIri)
	h.literals = section(len(b.literals), SizeLiteral)
	h.resources = section(len(b.resources), SizeResource)
	h.defaultGraph.Facts = section(len(b.defaultGraph.facts), SizeFact)
	h.defaultGraph.Resources = section(len(b.defaultGraph.resources), SizeGraphResource)
	h.namedGraphs = section(len(b.named), SizeNamedGraph)
	for _, g := range b.named {
		g.desc.Facts = section(len(g.facts), SizeFact)
		g.desc.Resources = section(len(g.resources), SizeGraphResource)
	}
	h.groupsByDesc = section(len(b.groupsByDesc), SizeGroupByDesc)
	h.groupsByID = section(len(b.groupsByID), SizeGroupByID)
	h.representatives = section(len(b.representatives), SizeRepresentative)
	h.heap = HeapSection{
		PageOffset: page,
		PageCount:  (uint32(len(b.heap)) + b.pageSize - 1) / b.pageSize,
	}
	return h
}

// WriteTo writes the module. The layout is the header padded to the
// first page boundary, followed by every section's pages in file
// order, the heap last.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	h := b.layout()

	bw := bufio.NewWriter(w)
	var written int64
	emit := func(p []byte) error {
		n, err := bw.Write(p)
		written += int64(n)
		return err
	}

	head := make([]byte, firstPageOffset(b.pageSize))
	encodeHeader(head, h)
	if err := emit(head); err != nil {
		return written, err
	}

	if err := b.writeSections(emit); err != nil {
		return written, err
	}

	if err := emit(b.heap); err != nil {
		return written, err
	}
	if pad := int64(h.heap.PageCount)*int64(b.pageSize) - int64(len(b.heap)); pad > 0 {
		if err := emit(make([]byte, pad)); err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}

func (b *Builder) writeSections(emit func([]byte) error) error {
	if err := writeSection(emit, b.pageSize, b.iris, SizeIri, encodeIri); err != nil {
		return err
	}
	if err := writeSection(emit, b.pageSize, b.literals, SizeLiteral, encodeLiteral); err != nil {
		return err
	}
	if err := writeSection(emit, b.pageSize, b.resources, SizeResource, encodeResource); err != nil {
		return err
	}
	if err := b.writeGraph(emit, &b.defaultGraph); err != nil {
		return err
	}
	named := make([]NamedGraph, len(b.named))
	for i, g := range b.named {
		named[i] = NamedGraph{ID: g.id, Graph: g.desc}
	}
	if err := writeSection(emit, b.pageSize, named, SizeNamedGraph, encodeNamedGraph); err != nil {
		return err
	}
	for _, g := range b.named {
		if err := b.writeGraph(emit, &g.GraphBuilder); err != nil {
			return err
		}
	}
	if err := writeSection(emit, b.pageSize, b.groupsByDesc, SizeGroupByDesc, encodeGroupByDesc); err != nil {
		return err
	}
	if err := writeSection(emit, b.pageSize, b.groupsByID, SizeGroupByID, encodeGroupByID); err != nil {
		return err
	}
	return writeSection(emit, b.pageSize, b.representatives, SizeRepresentative, encodeRepresentative)
}

func (b *Builder) writeGraph(emit func([]byte) error, g *GraphBuilder) error {
	if err := writeSection(emit, b.pageSize, g.facts, SizeFact, encodeFact); err != nil {
		return err
	}
	return writeSection(emit, b.pageSize, g.resources, SizeGraphResource, encodeGraphResource)
}

// writeSection packs entries into pages, padding the slack at the end
// of each page with zero bytes.
func writeSection[T any](emit func([]byte) error, pageSize uint32, entries []T, size uint32, enc func([]byte, T)) error {
	if len(entries) == 0 {
		return nil
	}
	epp := int(entriesPerPage(pageSize, size))
	page := make([]byte, pageSize)
	for start := 0; start < len(entries); start += epp {
		for i := range page {
			page[i] = 0
		}
		end := min(start+epp, len(entries))
		for i := start; i < end; i++ {
			enc(page[(i-start)*int(size):], entries[i])
		}
		if err := emit(page); err != nil {
			return err
		}
	}
	return nil
}
