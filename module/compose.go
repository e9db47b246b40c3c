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

import "sort"

// A Correspondence pairs a resource of one module with a resource of
// another that belongs to a structurally coinciding class.
type Correspondence struct {
	Left, Right uint32
}

// Align joins two modules' classifications: the representatives of
// classes whose canonical term keys coincide are mergeable when the
// modules are composed. Keys are built from IRIs only: representatives
// without an IRI (denoted only by literals, or purely structural
// classes) never align across builds.
func Align(left, right *Reader) ([]Correspondence, error) {
	lk, err := representativeKeys(left)
	if err != nil {
		return nil, err
	}
	rk, err := representativeKeys(right)
	if err != nil {
		return nil, err
	}
	var out []Correspondence
	for key, lres := range lk {
		if rres, ok := rk[key]; ok {
			out = append(out, Correspondence{Left: lres, Right: rres})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Left < out[j].Left })
	return out, nil
}

// representativeKeys maps each representative's smallest IRI to its
// resource id; representatives without an IRI are left out.
func representativeKeys(r *Reader) (map[string]uint32, error) {
	reps, err := r.Representatives().All()
	if err != nil {
		return nil, err
	}
	resources := r.Resources()
	iris := r.IRIs()
	out := make(map[string]uint32, len(reps))
	for _, rep := range reps {
		res, err := resources.At(int(rep.Resource))
		if err != nil {
			return nil, err
		}
		ids, err := r.HeapU32s(res.IRIs)
		if err != nil {
			return nil, err
		}
		key := ""
		for _, id := range ids {
			rec, err := iris.At(int(id))
			if err != nil {
				return nil, err
			}
			text, err := r.HeapString(rec.IRI)
			if err != nil {
				return nil, err
			}
			if key == "" || text < key {
				key = text
			}
		}
		if key == "" {
			continue
		}
		out[key] = rep.Resource
	}
	return out, nil
}
