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

// Package compiler is the last collaborator between a parsed template
// (markup or indent front end, both producing ast.Node trees) and a
// specific data source: it builds the tree against a parameter scope,
// then rewrites the resulting canonical '?' stream into whatever the
// target driver.Driver actually speaks, and converts the collected
// value.Value arguments into the plain Go types database/sql expects,
// as three explicit, separately testable steps run once per call.
package compiler

import (
	"fmt"

	"github.com/dynsql/dynsql/ast"
	"github.com/dynsql/dynsql/driver"
	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/rewrite"
	"github.com/dynsql/dynsql/value"
)

// Compiled is a ready-to-execute statement: a query string in the
// target dialect's placeholder syntax, plus positional arguments in
// the order the placeholders appear.
type Compiled struct {
	Query string
	Args  []any
}

// Compile builds node against scope and rewrites the result for drv.
func Compile(node ast.Node, scope *expr.Scope, drv driver.Driver) (*Compiled, error) {
	if node == nil {
		return nil, fmt.Errorf("compiler: nil node")
	}
	query, args, err := node.Build(scope)
	if err != nil {
		return nil, fmt.Errorf("compiler: build: %w", err)
	}
	if drv != nil {
		query = rewrite.Placeholders(query, drv.PlaceholderStyle())
	}
	return &Compiled{Query: query, Args: value.ToAnySlice(args)}, nil
}

// NewScope wraps a caller-supplied parameter value (struct, map, or a
// plain scalar for single-argument statements) into a root expr.Scope.
func NewScope(param any) *expr.Scope {
	return expr.NewScope(value.FromAny(param))
}
