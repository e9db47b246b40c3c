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

import "fmt"

// FormatMismatch reports a file that is not a module of the supported
// version.
type FormatMismatch struct {
	Tag, Version uint32
}

func (e *FormatMismatch) Error() string {
	if e.Tag != Tag {
		return fmt.Sprintf("not a module file: tag %#x", e.Tag)
	}
	return fmt.Sprintf("unsupported module version %d (want %d)", e.Version, Version)
}

// UnalignedPage reports an invalid page size: one that is not a
// multiple of 4 or is below MinPageSize.
type UnalignedPage struct {
	PageSize uint32
}

func (e *UnalignedPage) Error() string {
	return fmt.Sprintf("invalid page size %d: must be a multiple of 4 and at least %d",
		e.PageSize, MinPageSize)
}

// EntryOutOfBounds reports a section or heap reference past the end
// of its region. Bound counts bytes for heap references and entries
// for section references.
type EntryOutOfBounds struct {
	Offset, Len uint32
	Bound       uint32
}

func (e *EntryOutOfBounds) Error() string {
	return fmt.Sprintf("entry [%d:+%d] exceeds region bound %d", e.Offset, e.Len, e.Bound)
}

// HeapCorruption reports heap contents that cannot be decoded.
type HeapCorruption struct {
	Msg string
}

func (e *HeapCorruption) Error() string {
	return "heap corruption: " + e.Msg
}
