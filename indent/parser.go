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

package indent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dynsql/dynsql/ast"
	"github.com/dynsql/dynsql/expr"
)

// parser walks a flat, pre-tokenized line list with simple lookahead;
// the indentation itself drives block nesting instead of an explicit
// end keyword, the one real grammar difference from markup's
// tag-delimited XML.
type parser struct {
	lines []srcLine
	pos   int
}

func (p *parser) hasMore() bool { return p.pos < len(p.lines) }

func (p *parser) peekLine() srcLine { return p.lines[p.pos] }

func (p *parser) next() srcLine {
	ln := p.lines[p.pos]
	p.pos++
	return ln
}

// parseBody consumes every line indented at least to minIndent,
// stopping at the first line back out to minIndent-1 or shallower. The
// first such line fixes the body's indent level; a later line deeper
// than that (but still >= minIndent) without a preceding block header
// to own it is a mis-indentation error.
func (p *parser) parseBody(minIndent int) (ast.Group, error) {
	if !p.hasMore() || p.peekLine().indent < minIndent {
		return nil, nil
	}
	blockIndent := p.peekLine().indent

	var group ast.Group
	for p.hasMore() && p.peekLine().indent == blockIndent {
		ln := p.next()
		node, err := p.parseLine(ln)
		if err != nil {
			return nil, err
		}
		if node != nil {
			group = append(group, node)
		}
	}
	if p.hasMore() && p.peekLine().indent > minIndent && p.peekLine().indent < blockIndent {
		bad := p.peekLine()
		return nil, fmt.Errorf("indent: line %d: indentation doesn't match any enclosing block", bad.lineNo)
	}
	return group, nil
}

// parseLine dispatches one already-consumed line to the node kind its
// header keyword names, recursing into parseBody for anything that
// opens a nested block (trailing ':').
func (p *parser) parseLine(ln srcLine) (ast.Node, error) {
	if h, ok := parseHeader(ln.text); ok {
		switch h.keyword {
		case "if":
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			return ast.NewConditionNode(h.clause, body)
		case "for":
			return p.parseFor(ln, h)
		case "choose":
			return p.parseChoose(ln.indent)
		case "where":
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			return ast.NewWhereNode(body), nil
		case "set":
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			return ast.NewSetNode(body), nil
		case "trim":
			return p.parseTrim(ln, h)
		case "include":
			refID := h.attrs["refid"]
			if refID == "" {
				return nil, fmt.Errorf("indent: line %d: include requires refid='...'", ln.lineNo)
			}
			return &ast.IncludeNode{RefID: refID}, nil
		case "let":
			return p.parseLet(ln, h)
		default:
			return nil, fmt.Errorf("indent: line %d: unexpected header %q inside a statement body", ln.lineNo, h.keyword)
		}
	}

	switch ln.text {
	case "continue":
		return ast.ContinueNode{}, nil
	case "break":
		return ast.BreakNode{}, nil
	}

	return ast.NewTextNode(stripBackticks(ln.text))
}

func (p *parser) parseChoose(chooseIndent int) (ast.Node, error) {
	choose := &ast.ChooseNode{}
	for p.hasMore() && p.peekLine().indent == chooseIndent+1 {
		ln := p.next()
		h, ok := parseHeader(ln.text)
		if !ok {
			return nil, fmt.Errorf("indent: line %d: choose only allows when/otherwise/_ branches", ln.lineNo)
		}
		switch h.keyword {
		case "when":
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			when, err := ast.NewConditionNode(h.clause, body)
			if err != nil {
				return nil, err
			}
			choose.WhenNodes = append(choose.WhenNodes, when)
		case "otherwise", "_":
			if choose.OtherwiseNode != nil {
				return nil, fmt.Errorf("indent: line %d: choose allows only one otherwise/_ branch", ln.lineNo)
			}
			body, err := p.parseBody(ln.indent + 1)
			if err != nil {
				return nil, err
			}
			choose.OtherwiseNode = &ast.OtherwiseNode{Nodes: body}
		default:
			return nil, fmt.Errorf("indent: line %d: choose only allows when/otherwise/_ branches, got %q", ln.lineNo, h.keyword)
		}
	}
	return choose, nil
}

func (p *parser) parseFor(ln srcLine, h header) (ast.Node, error) {
	inIdx := strings.Index(h.clause, " in ")
	if inIdx < 0 {
		return nil, fmt.Errorf("indent: line %d: for requires \"for ITEM in COLLECTION:\"", ln.lineNo)
	}
	vars := strings.TrimSpace(h.clause[:inIdx])
	collectionExpr := strings.TrimSpace(h.clause[inIdx+len(" in "):])

	f := &ast.ForEachNode{Open: h.attrs["open"], Close: h.attrs["close"], Separator: h.attrs["separator"]}
	if comma := strings.Index(vars, ","); comma >= 0 {
		f.Item = strings.TrimSpace(vars[:comma])
		f.Index = strings.TrimSpace(vars[comma+1:])
	} else {
		f.Item = vars
	}
	if f.Item == "" {
		return nil, fmt.Errorf("indent: line %d: for requires an item variable", ln.lineNo)
	}

	collection, err := expr.Compile(collectionExpr)
	if err != nil {
		return nil, fmt.Errorf("indent: line %d: %w", ln.lineNo, err)
	}
	f.Collection = collection

	body, err := p.parseBody(ln.indent + 1)
	if err != nil {
		return nil, err
	}
	f.Nodes = body
	return f, nil
}

func (p *parser) parseTrim(ln srcLine, h header) (ast.Node, error) {
	trim := &ast.TrimNode{
		Prefix: h.attrs["prefix"],
		Suffix: h.attrs["suffix"],
	}
	if v, ok := h.attrs["prefixOverrides"]; ok {
		trim.PrefixOverrides = splitOverrides(v)
	}
	if v, ok := h.attrs["suffixOverrides"]; ok {
		trim.SuffixOverrides = splitOverrides(v)
	}
	body, err := p.parseBody(ln.indent + 1)
	if err != nil {
		return nil, err
	}
	trim.Nodes = body
	return trim, nil
}

func (p *parser) parseLet(ln srcLine, h header) (ast.Node, error) {
	eq := strings.Index(h.clause, "=")
	if eq < 0 {
		return nil, fmt.Errorf("indent: line %d: let requires \"let NAME = EXPR\"", ln.lineNo)
	}
	name := strings.TrimSpace(h.clause[:eq])
	if name == "" {
		return nil, fmt.Errorf("indent: line %d: let requires a name", ln.lineNo)
	}
	e, err := expr.Compile(strings.TrimSpace(h.clause[eq+1:]))
	if err != nil {
		return nil, fmt.Errorf("indent: line %d: %w", ln.lineNo, err)
	}
	return &ast.BindNode{Name: name, Expr: e}, nil
}

// header is a parsed block or statement header line, e.g. "if Age > 0:"
// splits into keyword "if" and clause "Age > 0", or
// "select id='find':" into keyword "select" with attrs{"id": "find"}.
type header struct {
	keyword string
	clause  string          // the raw text between the keyword and the trailing ':'
	attrs   map[string]string
}

var headerKeywords = map[string]bool{
	"if": true, "for": true, "choose": true, "when": true,
	"otherwise": true, "_": true, "where": true, "set": true,
	"trim": true, "include": true, "let": true,
	"select": true, "insert": true, "update": true, "delete": true, "sql": true,
}

var attrRegexp = regexp.MustCompile(`(\w+)\s*=\s*(?:'([^']*)'|"([^"]*)")`)

// parseHeader recognizes a block/statement header: the first word must
// be a known keyword, and the line — "let NAME = EXPR" aside — must end
// in ':'. attrs are extracted from anywhere in the clause via
// key='value' pairs (statement/sql/include/trim use them; if/when/for
// leave them empty and use clause as an expression instead).
func parseHeader(text string) (header, bool) {
	var keyword, rest string
	if sp := strings.IndexByte(text, ' '); sp < 0 {
		keyword = strings.TrimSuffix(text, ":")
	} else {
		keyword = text[:sp]
		rest = text[sp+1:]
	}
	if !headerKeywords[keyword] {
		return header{}, false
	}
	if keyword == "let" {
		return header{keyword: "let", clause: rest}, true
	}
	if !strings.HasSuffix(text, ":") {
		return header{}, false
	}
	clause, attrs := extractAttrs(strings.TrimSuffix(rest, ":"))
	return header{keyword: keyword, clause: clause, attrs: attrs}, true
}

// extractAttrs pulls every key='value' pair out of s and returns the
// remaining text (trimmed) alongside the collected attrs, so a clause
// like "prefix='AND ' suffixOverrides='a|b'" yields ("", {"prefix":
// "AND ", "suffixOverrides": "a|b"}) and "Items open='(' close=')'"
// yields ("Items", {"open": "(", "close": ")"}).
func extractAttrs(s string) (string, map[string]string) {
	attrs := make(map[string]string)
	rest := attrRegexp.ReplaceAllStringFunc(s, func(m string) string {
		sub := attrRegexp.FindStringSubmatch(m)
		val := sub[2]
		if val == "" && sub[3] != "" {
			val = sub[3]
		}
		attrs[sub[1]] = val
		return ""
	})
	return strings.TrimSpace(rest), attrs
}

func splitOverrides(v string) []string {
	parts := strings.Split(v, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// stripBackticks strips a line's backtick delimiters when present,
// matching original_source's backtick-delimited string literals
// (`1=1 and 2=2`), which exist so a SQL fragment containing a literal
// colon or looking like a keyword isn't mistaken for a header.
func stripBackticks(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	return strings.TrimPrefix(s, "`")
}
