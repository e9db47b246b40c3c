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

package rdf

// Well-known IRIs used by the engine and the standard rule sets.
const (
	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL  = "http://www.w3.org/2002/07/owl#"
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"

	RDFType  = NSRDF + "type"
	RDFFirst = NSRDF + "first"
	RDFRest  = NSRDF + "rest"
	RDFNil   = NSRDF + "nil"

	RDFSClass    = NSRDFS + "Class"
	RDFSDomain   = NSRDFS + "domain"
	RDFSRange    = NSRDFS + "range"
	RDFSSubClass = NSRDFS + "subClassOf"

	OWLSameAs        = NSOWL + "sameAs"
	OWLDifferentFrom = NSOWL + "differentFrom"
	OWLComplementOf  = NSOWL + "complementOf"

	XSDString             = NSXSD + "string"
	XSDInteger            = NSXSD + "integer"
	XSDDecimal            = NSXSD + "decimal"
	XSDBoolean            = NSXSD + "boolean"
	XSDNonNegativeInteger = NSXSD + "nonNegativeInteger"
)
