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
	"strings"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

// TrimNode strips configured prefix/suffix overrides from its rendered
// children and then wraps what's left with Prefix/Suffix, but only when
// the children actually produced something — an empty body stays empty,
// never "WHERE " or "SET " on their own. Where and Set are both just a
// TrimNode constructed with a fixed configuration (NewWhereNode,
// NewSetNode); they don't need their own evaluation logic.
type TrimNode struct {
	Nodes           Group
	Prefix          string
	PrefixOverrides []string
	Suffix          string
	SuffixOverrides []string

	// skipPrefixIfPresent avoids writing "WHERE WHERE ..." or
	// "SET SET ..." when the body already starts with the clause
	// keyword; only NewWhereNode/NewSetNode set it.
	skipPrefixIfPresent bool
}

func (t *TrimNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	query, args, err := t.Nodes.Build(scope)
	if err != nil {
		return "", nil, err
	}
	if len(query) == 0 {
		return "", nil, nil
	}

	// Overrides match case-insensitively; the longest matching one wins.
	best := 0
	for _, p := range t.PrefixOverrides {
		if len(p) > best && len(p) <= len(query) && strings.EqualFold(query[:len(p)], p) {
			best = len(p)
		}
	}
	query = query[best:]
	best = 0
	for _, s := range t.SuffixOverrides {
		if len(s) > best && len(s) <= len(query) && strings.EqualFold(query[len(query)-len(s):], s) {
			best = len(s)
		}
	}
	query = query[:len(query)-best]
	if len(query) == 0 {
		return "", nil, nil
	}

	builder := getBuilder()
	defer putBuilder(builder)
	builder.Grow(len(t.Prefix) + len(query) + len(t.Suffix))
	addPrefix := t.Prefix != ""
	if addPrefix && t.skipPrefixIfPresent {
		addPrefix = !strings.HasPrefix(strings.ToUpper(query), strings.ToUpper(strings.TrimSpace(t.Prefix)))
	}
	if addPrefix {
		builder.WriteString(t.Prefix)
	}
	builder.WriteString(query)
	builder.WriteString(t.Suffix)

	return builder.String(), args, nil
}

// NewWhereNode strips a leading AND/OR and a trailing bare " where"
// (case-insensitively) and prefixes the result with "WHERE ", unless
// it's already there or there's nothing to prefix.
func NewWhereNode(nodes Group) *TrimNode {
	return &TrimNode{
		Nodes:               nodes,
		Prefix:              "WHERE ",
		PrefixOverrides:     []string{"AND ", "and ", "OR ", "or "},
		SuffixOverrides:     []string{" where"},
		skipPrefixIfPresent: true,
	}
}

// NewSetNode strips a trailing comma and prefixes the result with
// "SET ".
func NewSetNode(nodes Group) *TrimNode {
	return &TrimNode{
		Nodes:               nodes,
		Prefix:              "SET ",
		SuffixOverrides:     []string{","},
		skipPrefixIfPresent: true,
	}
}
