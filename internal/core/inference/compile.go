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

package inference

import (
	"fmt"

	"inferdf.dev/go/internal/core/dataset"
	"inferdf.dev/go/internal/core/interp"
	"inferdf.dev/go/internal/core/match"
	"inferdf.dev/go/rdf"
	"inferdf.dev/go/rule"
)

// HeadKind discriminates head atom effects.
type HeadKind uint8

const (
	// HeadAssert inserts a signed triple.
	HeadAssert HeadKind = iota
	// HeadEquate merges two resources.
	HeadEquate
	// HeadDistinct asserts a non-equality.
	HeadDistinct
)

// A HeadAtom is one compiled conclusion of a rule.
type HeadAtom struct {
	Kind    HeadKind
	Sign    dataset.Sign
	S, P, O match.Term
	Lock    bool
}

// A Rule is a compiled deduction rule sharing one variable slot space
// across all clauses and the head.
type Rule struct {
	Name      string
	Universal bool

	// Exists holds the outer existential guard; Forall the universal
	// body; Inner the existential check inside the universal. For a
	// plain rule only Forall is populated, and Universal is false
	// unless a head atom is locked.
	Exists match.Pattern
	Forall match.Pattern
	Inner  *match.Pattern

	Head  []HeadAtom
	NVars int

	hasPath   bool
	pathPreds []interp.Resource
}

// A CompileError reports a rule that cannot be compiled.
type CompileError struct {
	Rule string
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.Rule, e.Msg)
}

type compiler struct {
	in   *interp.Interpretation
	r    *rule.Rule
	vars map[string]int
	out  *Rule
}

// Compile interprets the ground terms of the parsed rules and maps
// their variables onto dense slots.
func Compile(in *interp.Interpretation, files ...*rule.File) ([]*Rule, error) {
	var out []*Rule
	for _, f := range files {
		for _, r := range f.Rules {
			c := &compiler{in: in, r: r, vars: map[string]int{}}
			cr, err := c.compile()
			if err != nil {
				return nil, err
			}
			out = append(out, cr)
		}
	}
	return out, nil
}

func (c *compiler) errorf(format string, args ...interface{}) error {
	return &CompileError{Rule: c.r.Name, Msg: fmt.Sprintf(format, args...)}
}

func (c *compiler) compile() (*Rule, error) {
	c.out = &Rule{Name: c.r.Name, Universal: c.r.Universal}

	var exists []match.Atom
	for _, cl := range c.r.Exists {
		atoms, err := c.atoms(cl.Atoms)
		if err != nil {
			return nil, err
		}
		exists = append(exists, atoms...)
	}
	forall, err := c.atoms(c.r.Forall.Atoms)
	if err != nil {
		return nil, err
	}
	if c.r.Inner != nil {
		atoms, err := c.atoms(c.r.Inner.Atoms)
		if err != nil {
			return nil, err
		}
		p := match.Pattern{Atoms: atoms}
		c.out.Inner = &p
	}

	for _, a := range c.r.Head {
		h, err := c.headAtom(a)
		if err != nil {
			return nil, err
		}
		c.out.Head = append(c.out.Head, h)
	}

	c.out.NVars = len(c.vars)
	c.out.Exists = match.Pattern{Atoms: exists, NVars: c.out.NVars}
	c.out.Forall = match.Pattern{Atoms: forall, NVars: c.out.NVars}
	if c.out.Inner != nil {
		c.out.Inner.NVars = c.out.NVars
	}

	if err := c.checkBound(); err != nil {
		return nil, err
	}
	return c.out, nil
}

func (c *compiler) term(t rule.Term) (match.Term, error) {
	if t.IsVar() {
		slot, ok := c.vars[t.Var]
		if !ok {
			slot = len(c.vars)
			c.vars[t.Var] = slot
		}
		return match.Variable(slot), nil
	}
	if t.Value.Kind == rdf.Blank {
		return match.Term{}, c.errorf("blank nodes are not allowed in rules")
	}
	return match.Ground(c.in.Term(t.Value)), nil
}

func (c *compiler) atoms(in []rule.Atom) ([]match.Atom, error) {
	var out []match.Atom
	for _, a := range in {
		if a.Lock {
			return nil, c.errorf("lock marker is only allowed on head atoms")
		}
		switch a.Kind {
		case rule.EqualityAtom:
			x, err := c.term(a.S)
			if err != nil {
				return nil, err
			}
			y, err := c.term(a.O)
			if err != nil {
				return nil, err
			}
			out = append(out, match.Equal{X: x, Y: y, Negative: a.Negative})
		case rule.TripleAtom:
			s, err := c.term(a.S)
			if err != nil {
				return nil, err
			}
			o, err := c.term(a.O)
			if err != nil {
				return nil, err
			}
			if a.PathFinal != nil {
				if a.Negative {
					return nil, c.errorf("path atoms cannot be negative")
				}
				if a.P.IsVar() || a.PathFinal.IsVar() {
					return nil, c.errorf("path predicates must be ground")
				}
				closure := c.in.Term(a.P.Value)
				final := c.in.Term(a.PathFinal.Value)
				c.out.hasPath = true
				c.out.pathPreds = append(c.out.pathPreds, closure, final)
				out = append(out, match.Path{S: s, O: o, Closure: closure, Final: final})
				continue
			}
			p, err := c.term(a.P)
			if err != nil {
				return nil, err
			}
			sign := dataset.Positive
			if a.Negative {
				sign = dataset.Negative
			}
			out = append(out, match.Triple{Sign: sign, S: s, P: p, O: o})
		}
	}
	return out, nil
}

func (c *compiler) headAtom(a rule.Atom) (HeadAtom, error) {
	if a.PathFinal != nil {
		return HeadAtom{}, c.errorf("path expressions are not allowed in rule heads")
	}
	switch a.Kind {
	case rule.EqualityAtom:
		x, err := c.term(a.S)
		if err != nil {
			return HeadAtom{}, err
		}
		y, err := c.term(a.O)
		if err != nil {
			return HeadAtom{}, err
		}
		kind := HeadEquate
		if a.Negative {
			kind = HeadDistinct
		}
		return HeadAtom{Kind: kind, S: x, O: y, Lock: a.Lock}, nil
	default:
		s, err := c.term(a.S)
		if err != nil {
			return HeadAtom{}, err
		}
		p, err := c.term(a.P)
		if err != nil {
			return HeadAtom{}, err
		}
		o, err := c.term(a.O)
		if err != nil {
			return HeadAtom{}, err
		}
		sign := dataset.Positive
		if a.Negative {
			sign = dataset.Negative
		}
		if a.Lock && a.Negative {
			return HeadAtom{}, c.errorf("negative head atoms cannot be locked")
		}
		return HeadAtom{Kind: HeadAssert, Sign: sign, S: s, P: p, O: o, Lock: a.Lock}, nil
	}
}

// checkBound verifies that every variable used by a constraint or the
// head occurs in some triple, path or positive equality atom of the
// body clauses. The position of that atom in the body is not checked.
func (c *compiler) checkBound() error {
	bound := make([]bool, c.out.NVars)
	mark := func(t match.Term) {
		if t.IsVar() {
			bound[t.Slot()] = true
		}
	}
	for _, p := range []match.Pattern{c.out.Exists, c.out.Forall} {
		for _, a := range p.Atoms {
			switch a := a.(type) {
			case match.Triple:
				mark(a.S)
				mark(a.P)
				mark(a.O)
			case match.Path:
				mark(a.S)
				mark(a.O)
			case match.Equal:
				// a positive equation binds one side from the other
				if !a.Negative {
					mark(a.X)
					mark(a.Y)
				}
			}
		}
	}
	if c.out.Inner != nil {
		for _, a := range c.out.Inner.Atoms {
			switch a := a.(type) {
			case match.Triple:
				mark(a.S)
				mark(a.P)
				mark(a.O)
			case match.Path:
				mark(a.S)
				mark(a.O)
			}
		}
	}
	for name, slot := range c.vars {
		if !bound[slot] {
			return c.errorf("variable ?%s is never bound by a body atom", name)
		}
	}
	return nil
}
