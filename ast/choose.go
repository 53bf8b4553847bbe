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

// ChooseNode evaluates its WhenNodes in order and builds the first
// match; OtherwiseNode runs only if none matched.
type ChooseNode struct {
	WhenNodes     []*WhenNode
	OtherwiseNode *OtherwiseNode
}

func (c *ChooseNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	for _, w := range c.WhenNodes {
		matched, err := w.Match(scope)
		if err != nil {
			return "", nil, err
		}
		if matched {
			return w.Nodes.Build(scope)
		}
	}
	if c.OtherwiseNode != nil {
		return c.OtherwiseNode.Build(scope)
	}
	return "", nil, nil
}

// OtherwiseNode is the unconditional fallback branch of a ChooseNode.
type OtherwiseNode struct {
	Nodes Group
}

func (o *OtherwiseNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	return o.Nodes.Build(scope)
}
