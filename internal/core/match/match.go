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

// Package match enumerates the bindings of a conjunctive pattern
// against one graph. Atoms are evaluated most-constrained first:
// fully ground atoms by direct lookup, partially bound ones through
// the position indexes, unconstrained ones by graph scan.
//
// Two distinct variables never bind to the same resource unless the
// pattern equates them explicitly; aliasing through merged
// representatives is rejected the same way.
package match

import (
	"fmt"

	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/internal/intset"
)

// A Term is a pattern term: a ground resource or a variable slot.
type Term struct {
	ground bool
	res    interp.Resource
	slot   int
}

// Ground returns a term matching exactly r.
func Ground(r interp.Resource) Term { return Term{ground: true, res: r} }

// Variable returns a term binding variable slot i.
func Variable(i int) Term { return Term{slot: i} }

// IsVar reports whether the term is a variable.
func (t Term) IsVar() bool { return !t.ground }

// Slot returns the variable slot of a variable term.
func (t Term) Slot() int { return t.slot }

// Resource returns the resource of a ground term.
func (t Term) Resource() interp.Resource { return t.res }

// An Atom is one conjunct of a pattern.
type Atom interface{ isAtom() }

// Triple matches a stored fact of the given sign.
type Triple struct {
	Sign    dataset.Sign
	S, P, O Term
}

// Path matches S p*/q O: O is reachable by a terminal Final edge from
// some node in the reflexive-transitive closure of Closure starting
// at S.
type Path struct {
	S, O           Term
	Closure, Final interp.Resource
}

// Equal constrains two terms to the same resource; a Negative one
// constrains them to differ. A positive Equal with one unbound
// variable binds it.
type Equal struct {
	X, Y     Term
	Negative bool
}

func (Triple) isAtom() {}
func (Path) isAtom()   {}
func (Equal) isAtom()  {}

// A Pattern is a conjunction of atoms over NVars variable slots.
type Pattern struct {
	Atoms []Atom
	NVars int
}

// An Env is a (partial) assignment of resources to variable slots.
type Env struct {
	vals  []interp.Resource
	bound []bool
	// aliased marks slots that may share a resource with another slot.
	aliased []bool
}

// NewEnv returns an empty environment with n slots.
func NewEnv(n int) *Env {
	return &Env{
		vals:    make([]interp.Resource, n),
		bound:   make([]bool, n),
		aliased: make([]bool, n),
	}
}

// Bound reports whether slot i has a value.
func (e *Env) Bound(i int) bool { return e.bound[i] }

// Value returns the resource bound to slot i.
func (e *Env) Value(i int) interp.Resource { return e.vals[i] }

// Clone returns an independent copy of the environment.
func (e *Env) Clone() *Env {
	c := NewEnv(len(e.vals))
	copy(c.vals, e.vals)
	copy(c.bound, e.bound)
	copy(c.aliased, e.aliased)
	return c
}

// SetAliased exempts slot i from the distinct-variables discipline.
func (e *Env) SetAliased(i int) { e.aliased[i] = true }

// bind assigns r to slot i, enforcing distinctness against other
// bound slots. It reports success.
func (e *Env) bind(i int, r interp.Resource) bool {
	if e.bound[i] {
		return e.vals[i] == r
	}
	if !e.aliased[i] {
		for j, b := range e.bound {
			if b && e.vals[j] == r && !e.aliased[j] {
				return false
			}
		}
	}
	e.vals[i] = r
	e.bound[i] = true
	return true
}

func (e *Env) unbind(i int) { e.bound[i] = false }

// A Matcher evaluates patterns against one graph.
type Matcher struct {
	In    *interp.Interpretation
	Graph *dataset.Graph
}

// Match enumerates every binding of p, calling yield for each. The
// environment passed to yield is reused; clone it to retain it.
// Mutating the graph while Match runs is detected and reported as
// IndexInvalidated.
func (m *Matcher) Match(p Pattern, yield func(*Env) error) error {
	return m.MatchEnv(p, NewEnv(p.NVars), yield)
}

// MatchEnv is Match starting from a partial assignment.
func (m *Matcher) MatchEnv(p Pattern, env *Env, yield func(*Env) error) error {
	markAliased(p, env)
	version := m.Graph.Version()
	rem := make([]Atom, len(p.Atoms))
	copy(rem, p.Atoms)
	return m.eval(env, rem, version, yield)
}

// MatchFrom evaluates p with atom index pinned to the given fact: the
// atom's terms are bound from the fact and the remaining atoms are
// evaluated normally. It enumerates nothing if the fact does not fit
// the pinned atom.
func (m *Matcher) MatchFrom(p Pattern, atom int, factID uint32, yield func(*Env) error) error {
	t, ok := p.Atoms[atom].(Triple)
	if !ok {
		return fmt.Errorf("pinned atom must be a triple pattern")
	}
	if !m.Graph.Alive(factID) {
		return nil
	}
	f := m.Graph.Fact(factID)
	if f.Sign != t.Sign {
		return nil
	}
	env := NewEnv(p.NVars)
	markAliased(p, env)
	if !bindPos(env, t.S, f.Triple.S) || !bindPos(env, t.P, f.Triple.P) || !bindPos(env, t.O, f.Triple.O) {
		return nil
	}
	rem := make([]Atom, 0, len(p.Atoms)-1)
	rem = append(rem, p.Atoms[:atom]...)
	rem = append(rem, p.Atoms[atom+1:]...)
	return m.eval(env, rem, m.Graph.Version(), yield)
}

// markAliased pre-marks the slots related by positive equality atoms,
// which are exempt from the distinct-variables rule.
func markAliased(p Pattern, env *Env) {
	for _, a := range p.Atoms {
		eq, ok := a.(Equal)
		if !ok || eq.Negative {
			continue
		}
		if eq.X.IsVar() {
			env.SetAliased(eq.X.Slot())
		}
		if eq.Y.IsVar() {
			env.SetAliased(eq.Y.Slot())
		}
	}
}

func bindPos(env *Env, t Term, r interp.Resource) bool {
	if t.IsVar() {
		return env.bind(t.Slot(), r)
	}
	return t.Resource() == r
}

func (m *Matcher) eval(env *Env, rem []Atom, version uint64, yield func(*Env) error) error {
	if m.Graph.Version() != version {
		return &dataset.IndexInvalidated{Seen: version, Now: m.Graph.Version()}
	}
	if len(rem) == 0 {
		return yield(env)
	}
	best, score := -1, -1
	for i, a := range rem {
		if s := m.score(env, a); s > score {
			best, score = i, s
		}
	}
	if score < 0 {
		return fmt.Errorf("pattern has no evaluable atom: unbound constraint")
	}
	atom := rem[best]
	next := make([]Atom, 0, len(rem)-1)
	next = append(next, rem[:best]...)
	next = append(next, rem[best+1:]...)

	switch a := atom.(type) {
	case Equal:
		return m.evalEqual(env, a, next, version, yield)
	case Triple:
		return m.evalTriple(env, a, next, version, yield)
	case Path:
		return m.evalPath(env, a, next, version, yield)
	}
	panic("unreachable atom kind")
}

// score ranks an atom's readiness: higher evaluates earlier, negative
// means not yet evaluable.
func (m *Matcher) score(env *Env, a Atom) int {
	known := func(t Term) bool { return !t.IsVar() || env.Bound(t.Slot()) }
	switch a := a.(type) {
	case Equal:
		kx, ky := known(a.X), known(a.Y)
		switch {
		case kx && ky:
			return 100
		case a.Negative:
			return -1 // needs both sides
		case kx || ky:
			return 90
		default:
			return -1
		}
	case Triple:
		n := 0
		for _, t := range []Term{a.S, a.P, a.O} {
			if known(t) {
				n++
			}
		}
		switch n {
		case 3:
			return 95
		case 2:
			return 70
		case 1:
			return 50
		default:
			return 10
		}
	case Path:
		if known(a.S) || known(a.O) {
			return 40
		}
		return 5
	}
	return -1
}

func (m *Matcher) evalEqual(env *Env, a Equal, rem []Atom, version uint64, yield func(*Env) error) error {
	val := func(t Term) (interp.Resource, bool) {
		if !t.IsVar() {
			return m.In.Representative(t.Resource()), true
		}
		if env.Bound(t.Slot()) {
			return m.In.Representative(env.Value(t.Slot())), true
		}
		return 0, false
	}
	x, kx := val(a.X)
	y, ky := val(a.Y)
	switch {
	case kx && ky:
		if (x == y) == a.Negative {
			return nil
		}
		return m.eval(env, rem, version, yield)
	case kx:
		if !env.bind(a.Y.Slot(), x) {
			return nil
		}
		defer env.unbind(a.Y.Slot())
		return m.eval(env, rem, version, yield)
	default:
		if !env.bind(a.X.Slot(), y) {
			return nil
		}
		defer env.unbind(a.X.Slot())
		return m.eval(env, rem, version, yield)
	}
}

func (m *Matcher) evalTriple(env *Env, a Triple, rem []Atom, version uint64, yield func(*Env) error) error {
	resolve := func(t Term) (interp.Resource, bool) {
		if !t.IsVar() {
			return t.Resource(), true
		}
		if env.Bound(t.Slot()) {
			return env.Value(t.Slot()), true
		}
		return 0, false
	}
	s, ks := resolve(a.S)
	p, kp := resolve(a.P)
	o, ko := resolve(a.O)

	if ks && kp && ko {
		id, ok := m.Graph.Lookup(dataset.Triple{S: s, P: p, O: o})
		if !ok || m.Graph.Fact(id).Sign != a.Sign {
			return nil
		}
		return m.eval(env, rem, version, yield)
	}

	var candidates []uint32
	switch {
	case ks || kp || ko:
		// Scan the shortest index list among the known positions.
		pick := func(list []uint32) {
			if candidates == nil || len(list) < len(candidates) {
				candidates = list
			}
		}
		if ks {
			pick(m.Graph.FactsWithSubject(s))
		}
		if kp {
			pick(m.Graph.FactsWithPredicate(p))
		}
		if ko {
			pick(m.Graph.FactsWithObject(o))
		}
	default:
		candidates = make([]uint32, m.Graph.NumFacts())
		for i := range candidates {
			candidates[i] = uint32(i)
		}
	}

	for _, id := range candidates {
		if m.Graph.Version() != version {
			return &dataset.IndexInvalidated{Seen: version, Now: m.Graph.Version()}
		}
		if !m.Graph.Alive(id) {
			continue
		}
		f := m.Graph.Fact(id)
		if f.Sign != a.Sign {
			continue
		}
		var boundSlots []int
		ok := true
		for _, pos := range [](struct {
			t Term
			r interp.Resource
		}){{a.S, f.Triple.S}, {a.P, f.Triple.P}, {a.O, f.Triple.O}} {
			if !pos.t.IsVar() {
				if pos.t.Resource() != pos.r {
					ok = false
					break
				}
				continue
			}
			slot := pos.t.Slot()
			was := env.Bound(slot)
			if !env.bind(slot, pos.r) {
				ok = false
				break
			}
			if !was {
				boundSlots = append(boundSlots, slot)
			}
		}
		if ok {
			if err := m.eval(env, rem, version, yield); err != nil {
				return err
			}
		}
		for _, slot := range boundSlots {
			env.unbind(slot)
		}
	}
	return nil
}

func (m *Matcher) evalPath(env *Env, a Path, rem []Atom, version uint64, yield func(*Env) error) error {
	resolve := func(t Term) (interp.Resource, bool) {
		if !t.IsVar() {
			return t.Resource(), true
		}
		if env.Bound(t.Slot()) {
			return env.Value(t.Slot()), true
		}
		return 0, false
	}
	s, ks := resolve(a.S)
	o, ko := resolve(a.O)

	emit := func(sv, ov interp.Resource) error {
		var boundSlots []int
		if a.S.IsVar() && !env.Bound(a.S.Slot()) {
			if !env.bind(a.S.Slot(), sv) {
				return nil
			}
			boundSlots = append(boundSlots, a.S.Slot())
		}
		if a.O.IsVar() && !env.Bound(a.O.Slot()) {
			if !env.bind(a.O.Slot(), ov) {
				for _, sl := range boundSlots {
					env.unbind(sl)
				}
				return nil
			}
			boundSlots = append(boundSlots, a.O.Slot())
		}
		err := m.eval(env, rem, version, yield)
		for _, sl := range boundSlots {
			env.unbind(sl)
		}
		return err
	}

	switch {
	case ks:
		// Forward closure from s, terminal join on Final.
		for _, n := range m.closure(s, a.Closure, false) {
			for _, id := range m.Graph.FactsWithSubject(n) {
				if !m.Graph.Alive(id) {
					continue
				}
				f := m.Graph.Fact(id)
				if f.Sign != dataset.Positive || f.Triple.P != a.Final {
					continue
				}
				if ko && f.Triple.O != o {
					continue
				}
				if err := emit(s, f.Triple.O); err != nil {
					return err
				}
			}
		}
		return nil
	case ko:
		// Terminal edges into o, then backward closure.
		for _, id := range m.Graph.FactsWithObject(o) {
			if !m.Graph.Alive(id) {
				continue
			}
			f := m.Graph.Fact(id)
			if f.Sign != dataset.Positive || f.Triple.P != a.Final {
				continue
			}
			for _, sv := range m.closure(f.Triple.S, a.Closure, true) {
				if err := emit(sv, o); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		// Both ends free: every terminal edge, backward closure from
		// its subject.
		for id := 0; id < m.Graph.NumFacts(); id++ {
			if !m.Graph.Alive(uint32(id)) {
				continue
			}
			f := m.Graph.Fact(uint32(id))
			if f.Sign != dataset.Positive || f.Triple.P != a.Final {
				continue
			}
			for _, sv := range m.closure(f.Triple.S, a.Closure, true) {
				if err := emit(sv, f.Triple.O); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// closure returns the reflexive-transitive closure of the Closure
// predicate from start; backward walks edges object-to-subject.
// Cycles are cut with a visited set.
func (m *Matcher) closure(start, pred interp.Resource, backward bool) []interp.Resource {
	visited := intset.New[uint32](16)
	visited.Add(uint32(start))
	out := []interp.Resource{start}
	for i := 0; i < len(out); i++ {
		n := out[i]
		var edges []uint32
		if backward {
			edges = m.Graph.FactsWithObject(n)
		} else {
			edges = m.Graph.FactsWithSubject(n)
		}
		for _, id := range edges {
			if !m.Graph.Alive(id) {
				continue
			}
			f := m.Graph.Fact(id)
			if f.Sign != dataset.Positive || f.Triple.P != pred {
				continue
			}
			next := f.Triple.O
			if backward {
				next = f.Triple.S
			}
			if visited.Add(uint32(next)) {
				out = append(out, next)
			}
		}
	}
	return out
}
