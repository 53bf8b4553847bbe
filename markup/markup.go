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

// Package markup is the XML front end for mapper sources: a
// hand-rolled recursive-descent walk over encoding/xml.Decoder tokens,
// one parseXxx method per tag, building ast.Node trees.
package markup

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/dynsql/dynsql/ast"
)

// Action is the CRUD verb a <select>/<insert>/<update>/<delete> element
// declares; the statement registry uses it to pick sane defaults (e.g.
// whether a result set is expected).
type Action string

const (
	ActionSelect Action = "select"
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Statement is one parsed <select>/<insert>/<update>/<delete> element.
// Attrs carries every XML attribute on the element besides id, verbatim,
// so a caller can read statement-level settings (timeout, paramName,
// useGeneratedKeys, resultMap, ...) without this package needing to
// know what any of them mean.
type Statement struct {
	ID     string
	Action Action
	Node   ast.Node
	Attrs  map[string]string
}

// Mapper is everything parsed out of one mapper XML document: its
// statements and the named <sql> fragments they (and other mappers) can
// <include refid="..."/>. Attrs carries every XML attribute on the
// <mapper> element besides namespace, verbatim.
type Mapper struct {
	Namespace  string
	Statements map[string]*Statement
	Fragments  ast.Fragments
	Attrs      map[string]string
}

// Parse reads a <mapper namespace="..."> document into its statements
// and fragments. Includes are left unresolved: a mapper can reference a
// <sql> fragment declared in another mapper, so resolution only happens
// once every mapper in a configuration has been parsed — see ResolveAll.
func Parse(r io.Reader) (*Mapper, error) {
	decoder := xml.NewDecoder(r)
	m := &Mapper{
		Statements: make(map[string]*Statement),
		Fragments:  make(ast.Fragments),
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "mapper" {
			continue
		}
		m.Attrs = make(map[string]string, len(start.Attr))
		for _, attr := range start.Attr {
			if attr.Name.Local == "namespace" {
				m.Namespace = attr.Value
			} else {
				m.Attrs[attr.Name.Local] = attr.Value
			}
		}
		if err := parseMapperBody(decoder, m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ResolveAll merges every mapper's Fragments into one namespace-qualified
// set (so "mapperA.frag" is reachable from mapperB) and resolves every
// statement's <include> references against it, eagerly and once, rather
// than deferring resolution to first use at request time.
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
				return fmt.Errorf("markup: mapper %q statement %q: %w", m.Namespace, id, err)
			}
		}
	}
	return nil
}

func parseMapperBody(decoder *xml.Decoder, m *Mapper) error {
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "select", "insert", "update", "delete":
				stmt, err := parseStatement(Action(t.Name.Local), decoder, t)
				if err != nil {
					return err
				}
				m.Statements[stmt.ID] = stmt
			case "sql":
				frag, err := parseSQLFragment(decoder, t)
				if err != nil {
					return err
				}
				m.Fragments[frag.ID] = frag
			}
		case xml.EndElement:
			if t.Name.Local == "mapper" {
				return nil
			}
		}
	}
}

func attr(start xml.StartElement, local string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func requiredAttr(tag, name string, start xml.StartElement) (string, error) {
	v, ok := attr(start, name)
	if !ok || v == "" {
		return "", fmt.Errorf("markup: <%s> requires %q attribute", tag, name)
	}
	return v, nil
}

func parseStatement(action Action, decoder *xml.Decoder, start xml.StartElement) (*Statement, error) {
	id, err := requiredAttr(string(start.Name.Local), "id", start)
	if err != nil {
		return nil, err
	}
	body, err := parseBody(decoder, start.Name.Local)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		if a.Name.Local != "id" {
			attrs[a.Name.Local] = a.Value
		}
	}
	return &Statement{ID: id, Action: action, Node: body, Attrs: attrs}, nil
}

func parseSQLFragment(decoder *xml.Decoder, start xml.StartElement) (*ast.SqlNode, error) {
	id, err := requiredAttr("sql", "id", start)
	if err != nil {
		return nil, err
	}
	if strings.Contains(id, ".") {
		return nil, fmt.Errorf("markup: sql id %q must not contain '.'", id)
	}
	body, err := parseBody(decoder, "sql")
	if err != nil {
		return nil, err
	}
	return &ast.SqlNode{ID: id, Nodes: body.(ast.Group)}, nil
}

// parseBody consumes child nodes up to the matching end tag named
// closeTag, returning them as an ast.Group.
func parseBody(decoder *xml.Decoder, closeTag string) (ast.Node, error) {
	var group ast.Group
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("markup: <%s> was never closed", closeTag)
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n, err := parseTag(decoder, t)
			if err != nil {
				return nil, err
			}
			if n != nil {
				group = append(group, n)
			}
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				n, err := ast.NewTextNode(text)
				if err != nil {
					return nil, err
				}
				group = append(group, n)
			}
		case xml.EndElement:
			if t.Name.Local == closeTag {
				return group, nil
			}
		}
	}
}

func parseTag(decoder *xml.Decoder, start xml.StartElement) (ast.Node, error) {
	switch start.Name.Local {
	case "if":
		return parseIf(decoder, start)
	case "where":
		body, err := parseBody(decoder, "where")
		if err != nil {
			return nil, err
		}
		return ast.NewWhereNode(body.(ast.Group)), nil
	case "set":
		body, err := parseBody(decoder, "set")
		if err != nil {
			return nil, err
		}
		return ast.NewSetNode(body.(ast.Group)), nil
	case "trim":
		return parseTrim(decoder, start)
	case "choose":
		return parseChoose(decoder)
	case "foreach":
		return parseForeach(decoder, start)
	case "include":
		return parseInclude(decoder, start)
	case "bind":
		return parseBind(decoder, start)
	case "continue":
		return consumeEmpty(decoder, "continue", ast.ContinueNode{})
	case "break":
		return consumeEmpty(decoder, "break", ast.BreakNode{})
	default:
		return nil, fmt.Errorf("markup: unknown tag <%s>", start.Name.Local)
	}
}

// consumeEmpty drains a self-closing or empty-bodied element and
// returns node for it; <continue/> and <break/> never have children.
func consumeEmpty(decoder *xml.Decoder, tag string, node ast.Node) (ast.Node, error) {
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("markup: <%s> was never closed", tag)
			}
			return nil, err
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == tag {
			return node, nil
		}
	}
}

func parseIf(decoder *xml.Decoder, start xml.StartElement) (ast.Node, error) {
	test, err := requiredAttr("if", "test", start)
	if err != nil {
		return nil, err
	}
	body, err := parseBody(decoder, "if")
	if err != nil {
		return nil, err
	}
	return ast.NewConditionNode(test, body.(ast.Group))
}

func parseTrim(decoder *xml.Decoder, start xml.StartElement) (ast.Node, error) {
	trim := &ast.TrimNode{}
	if v, ok := attr(start, "prefix"); ok {
		trim.Prefix = v
	}
	if v, ok := attr(start, "suffix"); ok {
		trim.Suffix = v
	}
	if v, ok := attr(start, "prefixOverrides"); ok {
		trim.PrefixOverrides = splitOverrides(v)
	}
	if v, ok := attr(start, "suffixOverrides"); ok {
		trim.SuffixOverrides = splitOverrides(v)
	}
	body, err := parseBody(decoder, "trim")
	if err != nil {
		return nil, err
	}
	trim.Nodes = body.(ast.Group)
	return trim, nil
}

func splitOverrides(v string) []string {
	parts := strings.Split(v, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseChoose(decoder *xml.Decoder) (ast.Node, error) {
	choose := &ast.ChooseNode{}
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("markup: <choose> was never closed")
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "when":
				test, err := requiredAttr("when", "test", t)
				if err != nil {
					return nil, err
				}
				body, err := parseBody(decoder, "when")
				if err != nil {
					return nil, err
				}
				when, err := ast.NewConditionNode(test, body.(ast.Group))
				if err != nil {
					return nil, err
				}
				choose.WhenNodes = append(choose.WhenNodes, when)
			case "otherwise":
				if choose.OtherwiseNode != nil {
					return nil, fmt.Errorf("markup: <choose> allows only one <otherwise>")
				}
				body, err := parseBody(decoder, "otherwise")
				if err != nil {
					return nil, err
				}
				choose.OtherwiseNode = &ast.OtherwiseNode{Nodes: body.(ast.Group)}
			default:
				return nil, fmt.Errorf("markup: <choose> only allows <when>/<otherwise>, got <%s>", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "choose" {
				return choose, nil
			}
		}
	}
}

func parseForeach(decoder *xml.Decoder, start xml.StartElement) (ast.Node, error) {
	collection, err := requiredAttr("foreach", "collection", start)
	if err != nil {
		return nil, err
	}
	item, err := requiredAttr("foreach", "item", start)
	if err != nil {
		return nil, err
	}
	f := &ast.ForEachNode{Item: item}
	if v, ok := attr(start, "index"); ok {
		f.Index = v
	}
	if v, ok := attr(start, "open"); ok {
		f.Open = v
	}
	if v, ok := attr(start, "close"); ok {
		f.Close = v
	}
	if v, ok := attr(start, "separator"); ok {
		f.Separator = v
	}

	collExpr, err := compileExpr(collection)
	if err != nil {
		return nil, err
	}
	f.Collection = collExpr

	body, err := parseBody(decoder, "foreach")
	if err != nil {
		return nil, err
	}
	f.Nodes = body.(ast.Group)
	return f, nil
}

func parseInclude(decoder *xml.Decoder, start xml.StartElement) (ast.Node, error) {
	refID, err := requiredAttr("include", "refid", start)
	if err != nil {
		return nil, err
	}
	// <include/> is typically self-closing; drain to its end tag so the
	// outer parseBody loop stays aligned regardless of how the author wrote it.
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("markup: <include> was never closed")
			}
			return nil, err
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == "include" {
			break
		}
	}
	return &ast.IncludeNode{RefID: refID}, nil
}

func parseBind(decoder *xml.Decoder, start xml.StartElement) (ast.Node, error) {
	name, err := requiredAttr("bind", "name", start)
	if err != nil {
		return nil, err
	}
	value, err := requiredAttr("bind", "value", start)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("markup: <bind> was never closed")
			}
			return nil, err
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == "bind" {
			break
		}
	}
	e, err := compileExpr(value)
	if err != nil {
		return nil, err
	}
	return &ast.BindNode{Name: name, Expr: e}, nil
}
