/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ast

import (
	"fmt"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

// IncludeNode references another mapper's SqlNode by ID. Resolution
// happens once, at compile time, via Resolve — so a bad refid fails
// mapper loading instead of the first concurrent request to reach it.
type IncludeNode struct {
	RefID    string
	resolved Node
}

func (i *IncludeNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	if i.resolved == nil {
		return "", nil, fmt.Errorf("ast: include %q was never resolved", i.RefID)
	}
	return i.resolved.Build(scope)
}
