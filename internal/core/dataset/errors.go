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

package dataset

import "fmt"

// ConflictSign reports a triple asserted with both polarities in one
// graph. Have is the sign already recorded.
type ConflictSign struct {
	Triple Triple
	Have   Sign
}

func (e *ConflictSign) Error() string {
	return fmt.Sprintf("sign conflict on triple (%d %d %d): already recorded as %s",
		e.Triple.S, e.Triple.P, e.Triple.O, e.Have)
}

// IndexInvalidated reports a lazy binding sequence consumed across a
// mutation of its underlying graph.
type IndexInvalidated struct {
	Seen, Now uint64
}

func (e *IndexInvalidated) Error() string {
	return fmt.Sprintf("graph mutated under iteration (version %d, now %d)", e.Seen, e.Now)
}
