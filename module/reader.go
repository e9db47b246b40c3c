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
	"io"
)

// A Reader gives random access to a module file. The underlying
// layout is immutable, so a Reader is safe for concurrent use.
type Reader struct {
	r     io.ReaderAt
	h     header
	first int64
}

// NewReader validates the header of a module file.
func NewReader(r io.ReaderAt) (*Reader, error) {
	var buf [headerSize]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &HeapCorruption{Msg: "file shorter than header"}
		}
		return nil, err
	}
	h, tag, version := decodeHeader(buf[:])
	if tag != Tag || version != Version {
		return nil, &FormatMismatch{Tag: tag, Version: version}
	}
	if h.pageSize < MinPageSize || h.pageSize%4 != 0 {
		return nil, &UnalignedPage{PageSize: h.pageSize}
	}
	return &Reader{r: r, h: h, first: firstPageOffset(h.pageSize)}, nil
}

// PageSize returns the module's page size.
func (r *Reader) PageSize() uint32 { return r.h.pageSize }

// A Table is a lazy view over one section. Entry addresses are
// computed from the section descriptor alone.
type Table[T any] struct {
	r    *Reader
	sec  Section
	size uint32
	dec  func([]byte) T
}

// Len reports the number of entries in the section.
func (t Table[T]) Len() int { return int(t.sec.EntryCount) }

// At reads entry i.
func (t Table[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= t.Len() {
		return zero, &EntryOutOfBounds{Offset: uint32(i), Len: 1, Bound: t.sec.EntryCount}
	}
	ps := int64(t.r.h.pageSize)
	epp := int64(entriesPerPage(t.r.h.pageSize, t.size))
	addr := t.r.first + int64(t.sec.PageOffset)*ps +
		int64(i)/epp*ps + int64(i)%epp*int64(t.size)
	buf := make([]byte, t.size)
	if _, err := t.r.r.ReadAt(buf, addr); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return zero, &HeapCorruption{Msg: "section truncated"}
		}
		return zero, err
	}
	return t.dec(buf), nil
}

// All reads the whole section.
func (t Table[T]) All() ([]T, error) {
	out := make([]T, t.Len())
	for i := range out {
		v, err := t.At(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// IRIs returns the interpretation's IRI table.
func (r *Reader) IRIs() Table[Iri] {
	return Table[Iri]{r: r, sec: r.h.iris, size: SizeIri, dec: decodeIri}
}

// Literals returns the interpretation's literal table.
func (r *Reader) Literals() Table[Literal] {
	return Table[Literal]{r: r, sec: r.h.literals, size: SizeLiteral, dec: decodeLiteral}
}

// Resources returns the interpretation's resource table.
func (r *Reader) Resources() Table[Resource] {
	return Table[Resource]{r: r, sec: r.h.resources, size: SizeResource, dec: decodeResource}
}

// DefaultGraph returns the default graph's description.
func (r *Reader) DefaultGraph() GraphDescription { return r.h.defaultGraph }

// NamedGraphs returns the named graph table.
func (r *Reader) NamedGraphs() Table[NamedGraph] {
	return Table[NamedGraph]{r: r, sec: r.h.namedGraphs, size: SizeNamedGraph, dec: decodeNamedGraph}
}

// Facts returns a graph's fact table.
func (r *Reader) Facts(d GraphDescription) Table[Fact] {
	return Table[Fact]{r: r, sec: d.Facts, size: SizeFact, dec: decodeFact}
}

// GraphResources returns a graph's per-resource fact index.
func (r *Reader) GraphResources(d GraphDescription) Table[GraphResource] {
	return Table[GraphResource]{r: r, sec: d.Resources, size: SizeGraphResource, dec: decodeGraphResource}
}

// GroupsByDesc returns the classification groups ordered by
// description.
func (r *Reader) GroupsByDesc() Table[GroupByDesc] {
	return Table[GroupByDesc]{r: r, sec: r.h.groupsByDesc, size: SizeGroupByDesc, dec: decodeGroupByDesc}
}

// GroupsByID returns the classification groups ordered by id.
func (r *Reader) GroupsByID() Table[GroupByID] {
	return Table[GroupByID]{r: r, sec: r.h.groupsByID, size: SizeGroupByID, dec: decodeGroupByID}
}

// Representatives returns the classification representatives.
func (r *Reader) Representatives() Table[Representative] {
	return Table[Representative]{r: r, sec: r.h.representatives, size: SizeRepresentative, dec: decodeRepresentative}
}

func (r *Reader) heapRead(offset, length uint32) ([]byte, error) {
	bound := r.h.heap.PageCount * r.h.pageSize
	if offset+length < offset || offset+length > bound {
		return nil, &EntryOutOfBounds{Offset: offset, Len: length, Bound: bound}
	}
	if length == 0 {
		return nil, nil
	}
	addr := r.first + int64(r.h.heap.PageOffset)*int64(r.h.pageSize) + int64(offset)
	buf := make([]byte, length)
	if _, err := r.r.ReadAt(buf, addr); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &HeapCorruption{Msg: "heap truncated"}
		}
		return nil, err
	}
	return buf, nil
}

// HeapBytes reads the byte payload an Entry references.
func (r *Reader) HeapBytes(e Entry) ([]byte, error) {
	return r.heapRead(e.Offset, e.Len)
}

// HeapString reads an Entry as a string.
func (r *Reader) HeapString(e Entry) (string, error) {
	b, err := r.HeapBytes(e)
	return string(b), err
}

// HeapU32s reads the side table a Vec references.
func (r *Reader) HeapU32s(v Vec) ([]uint32, error) {
	buf, err := r.heapRead(v.Offset, v.Len*4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, v.Len)
	for i := range out {
		out[i] = be.Uint32(buf[i*4:])
	}
	return out, nil
}
