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
	"strings"
)

// Fragments is the set of named <sql>/`sql id=` bodies an IncludeNode
// can reference, keyed by ID. A mapper's fragments and everything it
// imports are flattened into one Fragments before Resolve runs.
type Fragments map[string]*SqlNode

// Resolve binds every IncludeNode reachable from n to its target
// fragment, eagerly, detecting reference cycles along the way: a bad
// refid or a cycle fails mapper loading rather than a request already
// in flight.
func Resolve(n Node, fragments Fragments) error {
	return resolveNode(n, fragments, nil)
}

func resolveNode(n Node, fragments Fragments, chain []string) error {
	switch t := n.(type) {
	case *IncludeNode:
		for _, id := range chain {
			if id == t.RefID {
				return fmt.Errorf("ast: include cycle: %s -> %s", strings.Join(chain, " -> "), t.RefID)
			}
		}
		target, ok := fragments[t.RefID]
		if !ok {
			return fmt.Errorf("ast: include references unknown fragment %q", t.RefID)
		}
		if err := resolveNode(target, fragments, append(chain, t.RefID)); err != nil {
			return err
		}
		t.resolved = target
		return nil
	case Group:
		for _, child := range t {
			if err := resolveNode(child, fragments, chain); err != nil {
				return err
			}
		}
		return nil
	case *SqlNode:
		return resolveNode(t.Nodes, fragments, chain)
	case *ConditionNode:
		return resolveNode(t.Nodes, fragments, chain)
	case *ChooseNode:
		for _, w := range t.WhenNodes {
			if err := resolveNode(w, fragments, chain); err != nil {
				return err
			}
		}
		if t.OtherwiseNode != nil {
			return resolveNode(t.OtherwiseNode, fragments, chain)
		}
		return nil
	case *OtherwiseNode:
		return resolveNode(t.Nodes, fragments, chain)
	case *TrimNode:
		return resolveNode(t.Nodes, fragments, chain)
	case *ForEachNode:
		return resolveNode(t.Nodes, fragments, chain)
	default:
		// pureText, *TextNode, *BindNode, ContinueNode, BreakNode: leaves,
		// nothing to resolve.
		return nil
	}
}
