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

// SqlNode is a named, reusable SQL fragment (<sql id="...">/`sql id='...':`),
// referenced elsewhere via IncludeNode. It carries no statement-level
// behavior of its own beyond grouping its children.
type SqlNode struct {
	ID    string
	Nodes Group
}

func (s *SqlNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	return s.Nodes.Build(scope)
}
