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

// Package ast holds the compiled, front-end-independent tree a dynamic
// SQL statement lowers to. Both the XML markup front end and the
// indentation front end build the same node kinds, so everything below
// this package — include resolution, builder compilation, placeholder
// rewriting — only has to know one shape.
package ast

import (
	"strings"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

// Node is the fundamental interface of the dynamic SQL tree. Build walks
// the node against scope and returns a SQL fragment using the canonical
// '?' placeholder together with the positional values it consumed.
// Dialect-specific placeholder rewriting happens downstream, in package
// rewrite, so Node never needs to know which driver it will run under.
type Node interface {
	Build(scope *expr.Scope) (query string, args []value.Value, err error)
}

// Group wraps a sequence of Nodes produced by a single XML element or
// indent block into a single Node, joining non-empty fragments with a
// single space.
type Group []Node

func (g Group) Build(scope *expr.Scope) (query string, args []value.Value, err error) {
	switch len(g) {
	case 0:
		return "", nil, nil
	case 1:
		return g[0].Build(scope)
	}

	builder := getBuilder()
	defer putBuilder(builder)

	endsWithSpace := false
	for _, n := range g {
		q, a, err := n.Build(scope)
		if err != nil {
			return "", nil, err
		}
		if len(q) > 0 {
			if builder.Len() > 0 && !endsWithSpace {
				builder.WriteByte(' ')
			}
			builder.WriteString(q)
			endsWithSpace = strings.HasSuffix(q, " ")
		}
		args = append(args, a...)
	}

	if builder.Len() == 0 {
		return "", nil, nil
	}
	return builder.String(), args, nil
}
