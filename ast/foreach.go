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
	"fmt"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

// errContinue and errBreak unwind a ForEachNode iteration via a
// sentinel error caught by the one frame that knows how to handle it,
// never surfaced to the caller.
var (
	errContinue = errors.New("ast: continue")
	errBreak    = errors.New("ast: break")
)

// ContinueNode stops the current iteration early; it produces no SQL of
// its own.
type ContinueNode struct{}

func (ContinueNode) Build(*expr.Scope) (string, []value.Value, error) {
	return "", nil, errContinue
}

// BreakNode stops the whole loop; it produces no SQL of its own.
type BreakNode struct{}

func (BreakNode) Build(*expr.Scope) (string, []value.Value, error) {
	return "", nil, errBreak
}

// ForEachNode iterates an Array or Map value, rebinding Item/Index on a
// fresh child scope per element and joining the rendered bodies with
// Separator inside Open/Close.
type ForEachNode struct {
	Collection expr.Expression
	Nodes      Group
	Item       string
	Index      string
	Open       string
	Close      string
	Separator  string
}

func (f *ForEachNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	collection, err := f.Collection.Execute(scope)
	if err != nil {
		return "", nil, err
	}

	var elems []iterElem
	switch collection.Kind() {
	case value.KindArray:
		arr := collection.Array()
		elems = make([]iterElem, len(arr))
		for i, v := range arr {
			elems[i] = iterElem{index: value.I64(int64(i)), item: v}
		}
	case value.KindMap:
		pairs := value.SortedMapPairs(collection)
		elems = make([]iterElem, len(pairs))
		for i, p := range pairs {
			elems[i] = iterElem{index: p.Key, item: p.Value}
		}
	case value.KindNull:
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("ast: foreach collection is not iterable: %s", collection.Kind())
	}

	if len(elems) == 0 {
		return "", nil, nil
	}

	builder := getBuilder()
	defer putBuilder(builder)
	builder.WriteString(f.Open)

	var args []value.Value
	wrote := 0
	for _, e := range elems {
		bindings := map[string]value.Value{f.Item: e.item}
		if f.Index != "" {
			bindings[f.Index] = e.index
		}
		child := scope.PushMany(bindings)

		q, a, err := f.Nodes.Build(child)
		if errors.Is(err, errContinue) {
			continue
		}
		if errors.Is(err, errBreak) {
			break
		}
		if err != nil {
			return "", nil, err
		}

		if wrote > 0 {
			builder.WriteString(f.Separator)
		}
		builder.WriteString(q)
		args = append(args, a...)
		wrote++
	}
	builder.WriteString(f.Close)

	return builder.String(), args, nil
}

type iterElem struct {
	index value.Value
	item  value.Value
}
