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

package interp

import (
	"strings"

	"github.com/cockroachdb/apd/v3"

	"inferdf.dev/go/rdf"
)

// canonNumeric maps spelling variants of one XSD numeric value to a
// single lexical form, so that "01", "+1" and "1" interpret to the
// same resource. Lexical forms that do not parse under the datatype
// are kept as written; they denote whatever the data says they denote.
func canonNumeric(lex, datatype string) string {
	switch datatype {
	case rdf.XSDInteger, rdf.XSDNonNegativeInteger, rdf.XSDDecimal:
	default:
		return lex
	}
	s := strings.TrimSpace(lex)
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return lex
	}
	if d.Form != apd.Finite {
		return lex
	}
	d.Reduce(&d)
	return d.Text('f')
}
