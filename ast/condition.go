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
	"errors"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

// ErrNilExpression is returned when a ConditionNode's test= was never parsed.
var ErrNilExpression = errors.New("ast: condition has no expression")

// ConditionNode is the shared shape behind <if>/<when>: a test
// expression guarding a child Group. IfNode and WhenNode are the same
// type under two names because they only differ in where their parent
// places them, never in evaluation.
type ConditionNode struct {
	Test  expr.Expression
	Nodes Group
}

// IfNode conditionally includes its children when Test is truthy.
type IfNode = ConditionNode

// WhenNode is a single branch of a ChooseNode.
type WhenNode = ConditionNode

// NewConditionNode compiles test and wraps nodes behind it.
func NewConditionNode(test string, nodes Group) (*ConditionNode, error) {
	e, err := expr.Compile(test)
	if err != nil {
		return nil, err
	}
	return &ConditionNode{Test: e, Nodes: nodes}, nil
}

// Match reports whether the condition currently holds.
func (c *ConditionNode) Match(scope *expr.Scope) (bool, error) {
	if c.Test == nil {
		return false, ErrNilExpression
	}
	v, err := c.Test.Execute(scope)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

func (c *ConditionNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	matched, err := c.Match(scope)
	if err != nil {
		return "", nil, err
	}
	if !matched {
		return "", nil, nil
	}
	return c.Nodes.Build(scope)
}
