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

// Package indent is the second front end spec.md §4.3 calls for: a
// line-oriented, Python-like indentation grammar in the spirit of
// original_source's py_sql macros, producing the same ast.Node tree the
// markup package's XML front end does. Neither front end knows about
// the other; both are exercised by the same compiler.Compile stage, and
// a statement written in one can be rewritten in the other without any
// behavioral difference downstream.
package indent

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dynsql/dynsql/ast"
)

// Action mirrors markup.Action; kept as its own type (rather than an
// import of markup.Action) since the two front ends are independent
// packages with no dependency on one another.
type Action string

const (
	ActionSelect Action = "select"
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Statement is one parsed top-level select/insert/update/delete block.
// Attrs carries every key='value' pair on the header line besides id,
// verbatim, mirroring markup.Statement.Attrs.
type Statement struct {
	ID     string
	Action Action
	Node   ast.Node
	Attrs  map[string]string
}

// Mapper is everything parsed out of one indentation document: its
// statements and the named sql fragments they (and other mappers) can
// reference via `include refid='...'`. Attrs carries any key='value'
// pairs on the `namespace` header line besides the namespace itself.
type Mapper struct {
	Namespace  string
	Statements map[string]*Statement
	Fragments  ast.Fragments
	Attrs      map[string]string
}

// Parse reads one indentation document into its statements and
// fragments. Like markup.Parse, includes are left unresolved until
// ResolveAll has seen every mapper sharing the same fragment namespace.
func Parse(r io.Reader) (*Mapper, error) {
	lines, err := tokenize(r)
	if err != nil {
		return nil, err
	}
	m := &Mapper{
		Statements: make(map[string]*Statement),
		Fragments:  make(ast.Fragments),
	}

	p := &parser{lines: lines}
	for p.hasMore() {
		ln := p.peekLine()
		if ln.indent != 0 {
			return nil, fmt.Errorf("indent: line %d: top-level statements must start at column 0", ln.lineNo)
		}
		trimmed := strings.TrimSpace(ln.text)

		if rest, ok := stripPrefix(trimmed, "namespace "); ok {
			p.next()
			m.Namespace = strings.TrimSpace(rest)
			continue
		}

		header, ok := parseHeader(trimmed)
		if !ok {
			return nil, fmt.Errorf("indent: line %d: expected a statement header, got %q", ln.lineNo, ln.text)
		}
		p.next()

		switch header.keyword {
		case "select", "insert", "update", "delete":
			id, ok := header.attrs["id"]
			if !ok || id == "" {
				return nil, fmt.Errorf("indent: line %d: %s requires id='...'", ln.lineNo, header.keyword)
			}
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			attrs := make(map[string]string, len(header.attrs))
			for k, v := range header.attrs {
				if k != "id" {
					attrs[k] = v
				}
			}
			m.Statements[id] = &Statement{ID: id, Action: Action(header.keyword), Node: body, Attrs: attrs}
		case "sql":
			id, ok := header.attrs["id"]
			if !ok || id == "" {
				return nil, fmt.Errorf("indent: line %d: sql requires id='...'", ln.lineNo)
			}
			if strings.Contains(id, ".") {
				return nil, fmt.Errorf("indent: line %d: sql id %q must not contain '.'", ln.lineNo, id)
			}
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			m.Fragments[id] = &ast.SqlNode{ID: id, Nodes: body}
		default:
			return nil, fmt.Errorf("indent: line %d: unexpected top-level header %q", ln.lineNo, header.keyword)
		}
	}

	return m, nil
}

// ResolveAll merges every mapper's Fragments into one namespace-qualified
// set and resolves every statement's include references against it —
// identical in shape to markup.ResolveAll, since both front ends share
// package ast's Fragments/Resolve.
func ResolveAll(mappers []*Mapper) error {
	merged := make(ast.Fragments)
	for _, m := range mappers {
		for id, frag := range m.Fragments {
			merged[id] = frag
			if m.Namespace != "" {
				merged[m.Namespace+"."+id] = frag
			}
		}
	}
	for _, m := range mappers {
		for id, stmt := range m.Statements {
			if err := ast.Resolve(stmt.Node, merged); err != nil {
				return fmt.Errorf("indent: mapper %q statement %q: %w", m.Namespace, id, err)
			}
		}
	}
	return nil
}

func stripPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

// tokenize splits r into non-blank lines with their leading-whitespace
// width as indent. A line containing only whitespace never takes part
// in the indentation structure, matching a blank line in Python source.
func tokenize(r io.Reader) ([]srcLine, error) {
	var lines []srcLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimLeft(raw, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if strings.Contains(raw[:len(raw)-len(trimmed)], "\t") {
			return nil, fmt.Errorf("indent: line %d: tabs are not allowed for indentation, use spaces", lineNo)
		}
		lines = append(lines, srcLine{
			indent: len(raw) - len(trimmed),
			text:   trimmed,
			lineNo: lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

type srcLine struct {
	indent int
	text   string
	lineNo int
}
