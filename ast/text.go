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
	"regexp"
	"sort"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

var (
	// paramRegex matches bound-parameter placeholders: #{user.name}.
	// Matched values become '?' in the emitted SQL and a positional arg.
	paramRegex = regexp.MustCompile(`#{\s*([^{}]+?)\s*}`)

	// formatRegexp matches raw substitutions: ${tableName}. Matched
	// values are inlined into the SQL text itself via value.IntoSQL, so
	// callers are responsible for only using it on trusted input.
	formatRegexp = regexp.MustCompile(`\${\s*([^{}]+?)\s*}`)
)

// pureText is emitted for a text run with no #{}/${} in it, skipping
// expression compilation entirely.
type pureText string

func (p pureText) Build(*expr.Scope) (string, []value.Value, error) {
	return string(p), nil, nil
}

type textToken struct {
	expr     expr.Expression
	isFormat bool // true for ${...}, false for #{...}
	start    int
	end      int
}

// TextNode is a literal SQL fragment interleaved with #{}/${} tokens.
type TextNode struct {
	raw    string
	tokens []textToken
}

// NewTextNode builds the lightest node that can reproduce str: a bare
// pureText when it holds no placeholders, a TextNode otherwise.
func NewTextNode(str string) (Node, error) {
	paramIdx := paramRegex.FindAllStringSubmatchIndex(str, -1)
	formatIdx := formatRegexp.FindAllStringSubmatchIndex(str, -1)

	if len(paramIdx) == 0 && len(formatIdx) == 0 {
		return pureText(str), nil
	}

	type rawToken struct {
		start, end int
		name       string
		isFormat   bool
	}
	var raws []rawToken
	for _, m := range paramIdx {
		raws = append(raws, rawToken{start: m[0], end: m[1], name: str[m[2]:m[3]]})
	}
	for _, m := range formatIdx {
		raws = append(raws, rawToken{start: m[0], end: m[1], name: str[m[2]:m[3]], isFormat: true})
	}
	sort.Slice(raws, func(i, j int) bool { return raws[i].start < raws[j].start })

	tokens := make([]textToken, 0, len(raws))
	for _, r := range raws {
		e, err := expr.Compile(r.name)
		if err != nil {
			return nil, fmt.Errorf("ast: invalid placeholder %q: %w", r.name, err)
		}
		tokens = append(tokens, textToken{expr: e, isFormat: r.isFormat, start: r.start, end: r.end})
	}
	return &TextNode{raw: str, tokens: tokens}, nil
}

func (t *TextNode) Build(scope *expr.Scope) (string, []value.Value, error) {
	builder := getBuilder()
	defer putBuilder(builder)

	var args []value.Value
	last := 0
	for _, tok := range t.tokens {
		builder.WriteString(t.raw[last:tok.start])
		v, err := tok.expr.Execute(scope)
		if err != nil {
			return "", nil, err
		}
		if tok.isFormat {
			builder.WriteString(v.IntoSQL())
		} else {
			builder.WriteByte('?')
			args = append(args, v)
		}
		last = tok.end
	}
	builder.WriteString(t.raw[last:])
	return builder.String(), args, nil
}
