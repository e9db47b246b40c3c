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

import "fmt"

// ConflictNonEqual reports an attempt to merge two resources that are
// proven distinct.
type ConflictNonEqual struct {
	A, B Resource
}

func (e *ConflictNonEqual) Error() string {
	return fmt.Sprintf("cannot merge resources %d and %d: proven non-equal", e.A, e.B)
}

// ConflictAlreadyMerged reports a non-equality assertion between two
// ids that resolve to the same resource.
type ConflictAlreadyMerged struct {
	A, B Resource
}

func (e *ConflictAlreadyMerged) Error() string {
	return fmt.Sprintf("cannot distinguish resource %d from itself", e.A)
}
