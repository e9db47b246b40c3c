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

package intset

import "testing"

func TestAddHasLen(t *testing.T) {
	s := New[uint32](4)
	if s.Len() != 0 {
		t.Fatalf("new set Len=%d, want 0", s.Len())
	}
	if !s.Add(7) {
		t.Fatal("first Add(7) reported duplicate")
	}
	if s.Add(7) {
		t.Fatal("second Add(7) reported fresh")
	}
	if !s.Has(7) || s.Has(8) {
		t.Fatal("membership wrong after Add")
	}
	if s.Len() != 1 {
		t.Fatalf("Len=%d, want 1", s.Len())
	}
}

func TestGrowth(t *testing.T) {
	const n = 10_000
	s := New[uint32](8)
	for i := uint32(0); i < n; i++ {
		if !s.Add(i * 3) {
			t.Fatalf("Add(%d) reported duplicate", i*3)
		}
	}
	if s.Len() != n {
		t.Fatalf("Len=%d, want %d", s.Len(), n)
	}
	for i := uint32(0); i < n; i++ {
		if !s.Has(i * 3) {
			t.Fatalf("Has(%d)=false after growth", i*3)
		}
		if s.Has(i*3 + 1) {
			t.Fatalf("Has(%d)=true, never inserted", i*3+1)
		}
	}
}

func TestClearReuses(t *testing.T) {
	s := New[uint16](8)
	for round := 0; round < 5; round++ {
		for i := uint16(0); i < 100; i++ {
			s.Add(i)
		}
		if s.Len() != 100 {
			t.Fatalf("round %d: Len=%d, want 100", round, s.Len())
		}
		s.Clear()
		if s.Len() != 0 || s.Has(42) {
			t.Fatalf("round %d: Clear left residue", round)
		}
	}
}
