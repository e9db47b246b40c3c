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

package rule

import (
	"testing"

	"github.com/go-quicktest/qt"

	"inferdf.dev/go/rdf"
)

const rulesSrc = `
# standard deduction rules
prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#>
prefix owl: <http://www.w3.org/2002/07/owl#>
base <http://example.com/>

rule typed {
	?x ?p ?y .
} => {
	?y rdf:type <T> .
}

group equality {
	rule same-as {
		?x owl:sameAs ?y .
	} => {
		?x = ?y .
	}

	rule different {
		?x owl:differentFrom ?y .
	} => {
		! ?x = ?y .
	}
}

rule domain-class forall ?x {
	?x rdfs:domain ?y .
} => {
	?y rdf:type rdfs:Class ! .
}

rule list-members exists ?l {
	?l rdf:type <List> .
} forall ?m {
	?l rdf:rest*/rdf:first ?m .
} exists ?c {
	?m rdf:type ?c .
} => {
	?l <wellTyped> "true" .
}

rule negative {
	?x owl:complementOf ?y .
	?v rdf:type ?x .
} => {
	! ?v rdf:type ?y .
}
`

func TestParseRules(t *testing.T) {
	f, err := Parse("rules.txt", []byte(rulesSrc))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f.Rules), 6))

	typed := f.Rules[0]
	qt.Assert(t, qt.Equals(typed.Name, "typed"))
	qt.Assert(t, qt.IsFalse(typed.Universal))
	qt.Assert(t, qt.Equals(len(typed.Forall.Atoms), 1))
	qt.Assert(t, qt.Equals(typed.Forall.Atoms[0].P.Var, "p"))
	// base resolution applies to schemeless IRI references
	qt.Assert(t, qt.Equals(typed.Head[0].O.Value, rdf.NewIRI("http://example.com/T")))
	qt.Assert(t, qt.Equals(typed.Head[0].P.Value, rdf.NewIRI(rdf.RDFType)))

	sameAs := f.Rules[1]
	qt.Assert(t, qt.Equals(sameAs.Group, "equality"))
	qt.Assert(t, qt.Equals(sameAs.Head[0].Kind, EqualityAtom))
	qt.Assert(t, qt.IsFalse(sameAs.Head[0].Negative))

	diff := f.Rules[2]
	qt.Assert(t, qt.IsTrue(diff.Head[0].Negative))
	qt.Assert(t, qt.Equals(diff.Head[0].Kind, EqualityAtom))

	domain := f.Rules[3]
	qt.Assert(t, qt.IsTrue(domain.Universal))
	qt.Assert(t, qt.DeepEquals(domain.Forall.Vars, []string{"x"}))
	qt.Assert(t, qt.IsTrue(domain.Head[0].Lock))

	list := f.Rules[4]
	qt.Assert(t, qt.IsTrue(list.Universal))
	qt.Assert(t, qt.Equals(len(list.Exists), 1))
	qt.Assert(t, qt.DeepEquals(list.Forall.Vars, []string{"m"}))
	qt.Assert(t, qt.Equals(list.Inner.Vars[0], "c"))
	pathAtom := list.Forall.Atoms[0]
	qt.Assert(t, qt.Equals(pathAtom.P.Value, rdf.NewIRI(rdf.RDFRest)))
	qt.Assert(t, qt.Equals(pathAtom.PathFinal.Value, rdf.NewIRI(rdf.RDFFirst)))

	neg := f.Rules[5]
	qt.Assert(t, qt.IsTrue(neg.Head[0].Negative))
	qt.Assert(t, qt.Equals(neg.Head[0].Kind, TripleAtom))
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{`rule r { ?x unknown:p ?y . } => { ?x = ?y . }`, `unknown prefix "unknown"`},
		{`rule r { ?x ?p ?y } => { ?x = ?y . }`, `expected '.' after atom`},
		{`rule r forall { ?x ?p ?y . } => { ?x = ?y . }`, `expected quantified variables`},
		{`frobnicate`, `unexpected "frobnicate" at top level`},
		{`rule r { ?x ?p ?y . } => { ?x ?p*/?q ?y . }`, `path expressions are not allowed in rule heads`},
	} {
		_, err := Parse("bad.txt", []byte(tc.src))
		qt.Assert(t, qt.ErrorMatches(err, `bad\.txt:\d+: `+tc.want), qt.Commentf("src %q", tc.src))
	}
}
