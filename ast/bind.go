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
	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

// BindNode introduces a named computed value into scope for the Nodes
// that follow it within the same Group, e.g. `let shortName = name`
// followed by references to #{shortName}. It mutates the scope it's
// handed directly and then disappears — Scope.Bind writes into the
// current frame rather than allocating a new one, so later siblings
// in the same Group see the binding without any lookup indirection.
type BindNode struct {
	Name string
	Expr expr.Expression
}

func (b *BindNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	v, err := b.Expr.Execute(scope)
	if err != nil {
		return "", nil, err
	}
	scope.Bind(b.Name, v)
	return "", nil, nil
}
