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

	"inferdf.dev/go/internal/core/interp"
)

// ConflictLocked reports a derivation of a further value for a locked
// property.
type ConflictLocked struct {
	Subject  interp.Resource
	Property interp.Resource
	Object   interp.Resource
}

func (e *ConflictLocked) Error() string {
	return fmt.Sprintf("property %d of resource %d is locked; cannot derive value %d",
		e.Property, e.Subject, e.Object)
}

// BudgetError reports a saturation run that exceeded its step budget.
// The caller may retry with a higher limit.
type BudgetError struct {
	Steps int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("saturation exceeded its budget of %d steps", e.Steps)
}
