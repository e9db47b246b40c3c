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

// Package module reads and writes the paged binary module format: a
// self-describing, big-endian, page-aligned artifact holding an
// interpretation, a saturated dataset, a classification, and a heap
// of variable-length payloads.
//
// Every section starts at a page boundary. Section descriptors record
// page offsets as indices of whole pages counted from the first page,
// which itself sits at the least page-aligned address covering the
// fixed header prefix. A page of T holds floor(page_size/sizeof(T))
// entries; entry addresses are derived purely from the descriptor, so
// readers never chase parent pointers.
package module

import "encoding/binary"

// Format constants.
const (
	// Tag identifies a module file ("IRDF").
	Tag = 0x49524446
	// Version is the format version written and accepted.
	Version = 1

	// headerSize is the fixed header prefix: tag, version, page size,
	// nine section descriptors, and the heap descriptor.
	headerSize = 0x5C

	// MinPageSize bounds the page size from below so that every
	// record kind fits a page.
	MinPageSize = 64
)

// An Entry references a byte slice in the heap.
type Entry struct {
	Offset, Len uint32
}

// A Vec references a []uint32 side table in the heap; Offset is in
// bytes, Len in elements.
type Vec struct {
	Offset, Len uint32
}

// A Section describes a page-aligned run of fixed-size entries.
type Section struct {
	PageOffset, EntryCount uint32
}

// A HeapSection describes the heap's page run.
type HeapSection struct {
	PageOffset, PageCount uint32
}

// A GraphDescription locates one graph's facts and resource index.
type GraphDescription struct {
	Facts, Resources Section
}

// A GroupID names a classification group.
type GroupID struct {
	Layer, Index uint32
}

// A Class locates a resource within its group.
type Class struct {
	Group  GroupID
	Member uint32
}

// Record types, mirroring the on-disk layout.

// Iri binds interned IRI text to the resource it denotes.
type Iri struct {
	IRI            Entry
	Interpretation uint32
}

// Literal type variants.
const (
	LiteralPlain    = 0
	LiteralLanguage = 1
	LiteralDatatype = 2
)

// Literal is an interned literal; TypeValue is empty, a language tag,
// or a datatype IRI according to TypeVariant.
type Literal struct {
	Value       Entry
	TypeVariant uint8
	TypeValue   Entry
}

// Resource is the interpretation view of one resource.
type Resource struct {
	ID       uint32
	IRIs     Vec
	Literals Vec
	NE       Vec
	HasClass bool
	Class    Class
}

// Fact sign and cause encodings.
const (
	SignPositive = 0
	SignNegative = 1

	CauseStated   = 0
	CauseInferred = 1
	CauseMerged   = 2
)

// Fact is one signed, justified triple.
type Fact struct {
	Sign       uint8
	S, P, O    uint32
	CauseKind  uint8
	CauseValue uint32
}

// GraphResource indexes the facts a resource occurs in, per position.
type GraphResource struct {
	ID                                 uint32
	AsSubject, AsPredicate, AsObject   Vec
}

// NamedGraph binds a graph name to its description.
type NamedGraph struct {
	ID    uint32
	Graph GraphDescription
}

// GroupByDesc lists groups ordered by structural description.
type GroupByDesc struct {
	Layer       uint32
	Description Vec
	Index       uint32
}

// GroupByID lists groups ordered by id.
type GroupByID struct {
	ID          GroupID
	Description Vec
}

// Representative picks the canonical resource of a final group.
type Representative struct {
	Class    Class
	Resource uint32
}

// On-disk record sizes in bytes.
const (
	SizeIri            = 12
	SizeLiteral        = 17
	SizeResource       = 41
	SizeFact           = 18
	SizeGraphResource  = 28
	SizeNamedGraph     = 20
	SizeGroupByDesc    = 16
	SizeGroupByID      = 16
	SizeRepresentative = 16
)

var be = binary.BigEndian

func putEntry(b []byte, e Entry) {
	be.PutUint32(b, e.Offset)
	be.PutUint32(b[4:], e.Len)
}

func getEntry(b []byte) Entry {
	return Entry{Offset: be.Uint32(b), Len: be.Uint32(b[4:])}
}

func putVec(b []byte, v Vec)  { putEntry(b, Entry(v)) }
func getVec(b []byte) Vec     { return Vec(getEntry(b)) }

func putSection(b []byte, s Section) {
	be.PutUint32(b, s.PageOffset)
	be.PutUint32(b[4:], s.EntryCount)
}

func getSection(b []byte) Section {
	return Section{PageOffset: be.Uint32(b), EntryCount: be.Uint32(b[4:])}
}

func encodeIri(b []byte, v Iri) {
	putEntry(b, v.IRI)
	be.PutUint32(b[8:], v.Interpretation)
}

func decodeIri(b []byte) Iri {
	return Iri{IRI: getEntry(b), Interpretation: be.Uint32(b[8:])}
}

func encodeLiteral(b []byte, v Literal) {
	putEntry(b, v.Value)
	b[8] = v.TypeVariant
	putEntry(b[9:], v.TypeValue)
}

func decodeLiteral(b []byte) Literal {
	return Literal{Value: getEntry(b), TypeVariant: b[8], TypeValue: getEntry(b[9:])}
}

func encodeResource(b []byte, v Resource) {
	be.PutUint32(b, v.ID)
	putVec(b[4:], v.IRIs)
	putVec(b[12:], v.Literals)
	putVec(b[20:], v.NE)
	if v.HasClass {
		b[28] = 1
	} else {
		b[28] = 0
	}
	be.PutUint32(b[29:], v.Class.Group.Layer)
	be.PutUint32(b[33:], v.Class.Group.Index)
	be.PutUint32(b[37:], v.Class.Member)
}

func decodeResource(b []byte) Resource {
	return Resource{
		ID:       be.Uint32(b),
		IRIs:     getVec(b[4:]),
		Literals: getVec(b[12:]),
		NE:       getVec(b[20:]),
		HasClass: b[28] != 0,
		Class: Class{
			Group:  GroupID{Layer: be.Uint32(b[29:]), Index: be.Uint32(b[33:])},
			Member: be.Uint32(b[37:]),
		},
	}
}

func encodeFact(b []byte, v Fact) {
	b[0] = v.Sign
	be.PutUint32(b[1:], v.S)
	be.PutUint32(b[5:], v.P)
	be.PutUint32(b[9:], v.O)
	b[13] = v.CauseKind
	be.PutUint32(b[14:], v.CauseValue)
}

func decodeFact(b []byte) Fact {
	return Fact{
		Sign:       b[0],
		S:          be.Uint32(b[1:]),
		P:          be.Uint32(b[5:]),
		O:          be.Uint32(b[9:]),
		CauseKind:  b[13],
		CauseValue: be.Uint32(b[14:]),
	}
}

func encodeGraphResource(b []byte, v GraphResource) {
	be.PutUint32(b, v.ID)
	putVec(b[4:], v.AsSubject)
	putVec(b[12:], v.AsPredicate)
	putVec(b[20:], v.AsObject)
}

func decodeGraphResource(b []byte) GraphResource {
	return GraphResource{
		ID:          be.Uint32(b),
		AsSubject:   getVec(b[4:]),
		AsPredicate: getVec(b[12:]),
		AsObject:    getVec(b[20:]),
	}
}

func encodeNamedGraph(b []byte, v NamedGraph) {
	be.PutUint32(b, v.ID)
	putSection(b[4:], v.Graph.Facts)
	putSection(b[12:], v.Graph.Resources)
}

func decodeNamedGraph(b []byte) NamedGraph {
	return NamedGraph{
		ID: be.Uint32(b),
		Graph: GraphDescription{
			Facts:     getSection(b[4:]),
			Resources: getSection(b[12:]),
		},
	}
}

func encodeGroupByDesc(b []byte, v GroupByDesc) {
	be.PutUint32(b, v.Layer)
	putVec(b[4:], v.Description)
	be.PutUint32(b[12:], v.Index)
}

func decodeGroupByDesc(b []byte) GroupByDesc {
	return GroupByDesc{Layer: be.Uint32(b), Description: getVec(b[4:]), Index: be.Uint32(b[12:])}
}

func encodeGroupByID(b []byte, v GroupByID) {
	be.PutUint32(b, v.ID.Layer)
	be.PutUint32(b[4:], v.ID.Index)
	putVec(b[8:], v.Description)
}

func decodeGroupByID(b []byte) GroupByID {
	return GroupByID{
		ID:          GroupID{Layer: be.Uint32(b), Index: be.Uint32(b[4:])},
		Description: getVec(b[8:]),
	}
}

func encodeRepresentative(b []byte, v Representative) {
	be.PutUint32(b, v.Class.Group.Layer)
	be.PutUint32(b[4:], v.Class.Group.Index)
	be.PutUint32(b[8:], v.Class.Member)
	be.PutUint32(b[12:], v.Resource)
}

func decodeRepresentative(b []byte) Representative {
	return Representative{
		Class: Class{
			Group:  GroupID{Layer: be.Uint32(b), Index: be.Uint32(b[4:])},
			Member: be.Uint32(b[8:]),
		},
		Resource: be.Uint32(b[12:]),
	}
}

// header is the decoded fixed prefix.
type header struct {
	pageSize uint32

	iris      Section
	literals  Section
	resources Section

	defaultGraph GraphDescription
	namedGraphs  Section

	groupsByDesc    Section
	groupsByID      Section
	representatives Section

	heap HeapSection
}

func encodeHeader(b []byte, h header) {
	be.PutUint32(b[0x00:], Tag)
	be.PutUint32(b[0x04:], Version)
	be.PutUint32(b[0x08:], h.pageSize)
	putSection(b[0x0C:], h.iris)
	putSection(b[0x14:], h.literals)
	putSection(b[0x1C:], h.resources)
	putSection(b[0x24:], h.defaultGraph.Facts)
	putSection(b[0x2C:], h.defaultGraph.Resources)
	putSection(b[0x34:], h.namedGraphs)
	putSection(b[0x3C:], h.groupsByDesc)
	putSection(b[0x44:], h.groupsByID)
	putSection(b[0x4C:], h.representatives)
	be.PutUint32(b[0x54:], h.heap.PageOffset)
	be.PutUint32(b[0x58:], h.heap.PageCount)
}

func decodeHeader(b []byte) (h header, tag, version uint32) {
	tag = be.Uint32(b[0x00:])
	version = be.Uint32(b[0x04:])
	h.pageSize = be.Uint32(b[0x08:])
	h.iris = getSection(b[0x0C:])
	h.literals = getSection(b[0x14:])
	h.resources = getSection(b[0x1C:])
	h.defaultGraph.Facts = getSection(b[0x24:])
	h.defaultGraph.Resources = getSection(b[0x2C:])
	h.namedGraphs = getSection(b[0x34:])
	h.groupsByDesc = getSection(b[0x3C:])
	h.groupsByID = getSection(b[0x44:])
	h.representatives = getSection(b[0x4C:])
	h.heap = HeapSection{PageOffset: be.Uint32(b[0x54:]), PageCount: be.Uint32(b[0x58:])}
	return h, tag, version
}

// entriesPerPage reports how many size-byte records fit one page.
func entriesPerPage(pageSize, size uint32) uint32 { return pageSize / size }

// pagesFor reports how many pages a section of n records occupies.
func pagesFor(n, pageSize, size uint32) uint32 {
	epp := entriesPerPage(pageSize, size)
	return (n + epp - 1) / epp
}

// firstPageOffset is the least page-aligned address covering the
// fixed header prefix.
func firstPageOffset(pageSize uint32) int64 {
	ps := int64(pageSize)
	return (headerSize + ps - 1) / ps * ps
}
