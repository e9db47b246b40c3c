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

// Package rdf defines the lexical term model consumed by the
// interpretation layer: IRIs, literals in their three variants, and
// document-scoped blank nodes, together with a streaming N-Quads
// reader for the input surface.
package rdf

import (
	"strings"

	"golang.org/x/text/language"
)

// TermKind discriminates the three lexical term forms.
type TermKind uint8

const (
	Invalid TermKind = iota
	IRI
	Literal
	Blank
)

// LiteralVariant discriminates how a literal's qualifier is read.
// The values match the type_variant byte of the module format.
type LiteralVariant uint8

const (
	Plain    LiteralVariant = 0
	Language LiteralVariant = 1
	Datatype LiteralVariant = 2
)

// A Term is a lexical RDF term. For an IRI, Value holds the IRI text
// without angle brackets. For a blank node, Value holds the label
// without the "_:" prefix; blank labels are meaningful only within a
// single input document. For a literal, Value holds the lexical form
// and Qualifier holds the language tag or datatype IRI according to
// Variant.
type Term struct {
	Kind      TermKind
	Value     string
	Variant   LiteralVariant
	Qualifier string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term { return Term{Kind: IRI, Value: iri} }

// NewBlank returns a blank node term for the given document-scoped label.
func NewBlank(label string) Term { return Term{Kind: Blank, Value: label} }

// NewLiteral returns a plain literal term.
func NewLiteral(lex string) Term { return Term{Kind: Literal, Value: lex} }

// NewLangLiteral returns a language-tagged literal. The tag is
// canonicalized with NormLang.
func NewLangLiteral(lex, tag string) Term {
	return Term{Kind: Literal, Value: lex, Variant: Language, Qualifier: NormLang(tag)}
}

// NewTypedLiteral returns a literal with an explicit datatype IRI.
func NewTypedLiteral(lex, datatype string) Term {
	return Term{Kind: Literal, Value: lex, Variant: Datatype, Qualifier: datatype}
}

// NormLang canonicalizes a BCP 47 language tag. Well-formed tags are
// normalized through the language package; malformed ones are only
// lowercased, as RDF compares tags case-insensitively either way.
func NormLang(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	return strings.ToLower(t.String())
}

// String renders the term in N-Quads syntax.
func (t Term) String() string {
	switch t.Kind {
	case IRI:
		return "<" + t.Value + ">"
	case Blank:
		return "_:" + t.Value
	case Literal:
		s := quoteLiteral(t.Value)
		switch t.Variant {
		case Language:
			return s + "@" + t.Qualifier
		case Datatype:
			return s + "^^<" + t.Qualifier + ">"
		}
		return s
	}
	return "<invalid>"
}

func quoteLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
