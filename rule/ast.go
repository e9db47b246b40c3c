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

// Package rule defines the deduction rule surface: an AST for rules
// with existential and universal quantifier clauses, and a parser for
// the textual rule language.
package rule

import "inferdf.dev/go/rdf"

// A Term is a rule term: either a variable (Var non-empty, without the
// leading '?') or a ground RDF term.
type Term struct {
	Var   string
	Value rdf.Term
}

// IsVar reports whether the term is a variable.
func (t Term) IsVar() bool { return t.Var != "" }

func (t Term) String() string {
	if t.IsVar() {
		return "?" + t.Var
	}
	return t.Value.String()
}

// AtomKind discriminates the two atom shapes.
type AtomKind uint8

const (
	// TripleAtom is a triple pattern; a negative one matches proven
	// absence.
	TripleAtom AtomKind = iota
	// EqualityAtom relates S and O; a negative one asserts or tests
	// non-equality.
	EqualityAtom
)

// An Atom is one conjunct of a rule body, or one assertion of a rule
// head.
type Atom struct {
	Kind     AtomKind
	Negative bool

	S, P, O Term

	// PathFinal, when non-nil, makes the predicate position the path
	// expression P*/PathFinal: the transitive-reflexive closure of P
	// followed by a terminal join on PathFinal.
	PathFinal *Term

	// Lock marks a head atom whose property becomes locked once the
	// universal rule that owns it has fired.
	Lock bool
}

// A Clause is a quantifier clause: the quantified variables and the
// atoms of its body.
type Clause struct {
	Vars  []string
	Atoms []Atom
}

// A Rule is one deduction rule.
//
// The plain form { body } => { head } is a single universal clause
// with no quantified variables. The quantified form
//
//	rule N exists ?v { … } forall ?w { … } exists ?u { … } => { … }
//
// carries outer existential guards in Exists, the universal body in
// Forall, and the inner existential in Inner. Universal reports
// whether the rule requires the post-stabilization evaluation phase.
type Rule struct {
	Name   string
	Group  string
	Exists []Clause
	Forall Clause
	Inner  *Clause
	Head   []Atom

	Universal bool
}

// A File is a parsed rule document.
type File struct {
	Filename string
	Base     string
	Prefixes map[string]string
	Rules    []*Rule
}
