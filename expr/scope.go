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

package expr

import "github.com/dynsql/dynsql/value"

// Scope is the environment expressions are evaluated against. It is an
// explicit linked list of frames rather than a lexical closure: ForEach
// and Bind push a new frame on entry and the frame is discarded on exit,
// so shadowed names are restored automatically.
type Scope struct {
	parent *Scope
	names  map[string]value.Value
	root   value.Value // the argument tree itself, consulted when names is nil/empty miss
}

// NewScope creates a root scope backed by the given argument tree. Bare
// identifiers first look up the pushed frames, then fall back to
// indexing root as a map.
func NewScope(root value.Value) *Scope {
	return &Scope{root: root}
}

// Push returns a child scope that shadows the given name within it.
func (s *Scope) Push(name string, v value.Value) *Scope {
	return &Scope{parent: s, names: map[string]value.Value{name: v}, root: s.root}
}

// PushMany returns a child scope shadowing all given bindings at once.
func (s *Scope) PushMany(bindings map[string]value.Value) *Scope {
	return &Scope{parent: s, names: bindings, root: s.root}
}

// Bind sets name in the current (topmost) frame, creating one if this
// scope has no frame of its own yet. Used by the Bind AST node, which
// writes into the current scope rather than introducing a new one.
func (s *Scope) Bind(name string, v value.Value) {
	if s.names == nil {
		s.names = make(map[string]value.Value, 1)
	}
	s.names[name] = v
}

// Get resolves an identifier. Unresolved identifiers return (Null,
// false) rather than erroring — the expression runtime is total.
func (s *Scope) Get(name string) (value.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names != nil {
			if v, ok := cur.names[name]; ok {
				return v, true
			}
		}
	}
	if s == nil {
		return value.Null, false
	}
	root := s.rootScope()
	if root.root.Kind() == value.KindMap || root.root.Kind() == value.KindExt {
		v := root.root.Member(name)
		if !v.IsNull() || hasKey(root.root, name) {
			return v, true
		}
	}
	return value.Null, false
}

func (s *Scope) rootScope() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func hasKey(m value.Value, name string) bool {
	for _, p := range m.MapPairs() {
		if p.Key.String() == name {
			return true
		}
	}
	return false
}
