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
	"strings"
	"testing"

	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/value"
)

func build(t *testing.T, doc, stmtID string, params map[string]any) (string, int) {
	t.Helper()
	mapper, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := ResolveAll([]*Mapper{mapper}); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	stmt, ok := mapper.Statements[stmtID]
	if !ok {
		t.Fatalf("no statement %q", stmtID)
	}
	scope := expr.NewScope(value.FromAny(params))
	query, args, err := stmt.Node.Build(scope)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return query, len(args)
}

func TestParse_SimpleSelect(t *testing.T) {
	doc := `select id='getByID':
    SELECT * FROM users WHERE ID = #{ID}
`
	query, argc := build(t, doc, "getByID", map[string]any{"ID": 1})
	if query != "SELECT * FROM users WHERE ID = ?" {
		t.Errorf("query = %q", query)
	}
	if argc != 1 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_IfAndWhere(t *testing.T) {
	doc := `select id='search':
    SELECT * FROM users
    where:
        if name != '':
            AND name = #{name}
        if age > 0:
            AND age = #{age}
`
	query, argc := build(t, doc, "search", map[string]any{"name": "bob", "age": 0})
	if query != "SELECT * FROM users WHERE name = ?" {
		t.Errorf("query = %q", query)
	}
	if argc != 1 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_ChooseWhenOtherwise(t *testing.T) {
	doc := `select id='search':
    SELECT * FROM users
    where:
        choose:
            when name != '':
                AND name = #{name}
            otherwise:
                AND 1 = 1
`
	query, _ := build(t, doc, "search", map[string]any{"name": ""})
	if query != "SELECT * FROM users WHERE 1 = 1" {
		t.Errorf("query = %q", query)
	}
}

func TestParse_ForEachWithAttrsAndBreakContinue(t *testing.T) {
	doc := `insert id='batch':
    INSERT INTO users (name) VALUES
    for item, idx in Names open='(' close=')' separator=',':
        if item == 'skip':
            continue
        if idx > 100:
            break
        #{item}
`
	query, argc := build(t, doc, "batch", map[string]any{"Names": []any{"a", "skip", "b"}})
	if query != "INSERT INTO users (name) VALUES (?,?)" {
		t.Errorf("query = %q", query)
	}
	if argc != 2 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_LetBindsBeforeSiblingsUseIt(t *testing.T) {
	doc := `select id='withLet':
    let shortName = Name
    SELECT * FROM users WHERE name = #{shortName}
`
	query, argc := build(t, doc, "withLet", map[string]any{"Name": "bob"})
	if query != "SELECT * FROM users WHERE name = ?" {
		t.Errorf("query = %q", query)
	}
	if argc != 1 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_TrimWithOverrides(t *testing.T) {
	doc := `update id='patch':
    UPDATE users
    trim prefix='SET ' suffixOverrides=',':
        if name != '':
            name = #{name},
        if age > 0:
            age = #{age},
`
	query, _ := build(t, doc, "patch", map[string]any{"name": "bob", "age": 0})
	if query != "UPDATE users SET name = ?" {
		t.Errorf("query = %q", query)
	}
}

func TestParse_SqlFragmentIncludeAcrossMappers(t *testing.T) {
	baseDoc := `namespace base

sql id='cols':
    id, name
`
	userDoc := `namespace user

select id='list':
    SELECT
    include refid='base.cols':
    FROM users
`
	base, err := Parse(strings.NewReader(baseDoc))
	if err != nil {
		t.Fatalf("Parse base: %v", err)
	}
	user, err := Parse(strings.NewReader(userDoc))
	if err != nil {
		t.Fatalf("Parse user: %v", err)
	}
	if err := ResolveAll([]*Mapper{base, user}); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	scope := expr.NewScope(value.FromAny(map[string]any{}))
	query, _, err := user.Statements["list"].Node.Build(scope)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if query != "SELECT id, name FROM users" {
		t.Errorf("query = %q", query)
	}
}

func TestParse_BacktickLiteralSurvivesColonLookingText(t *testing.T) {
	doc := "select id='lit':\n    `WHERE note = 'a:b'`\n"
	query, _ := build(t, doc, "lit", nil)
	if query != "WHERE note = 'a:b'" {
		t.Errorf("query = %q", query)
	}
}

func TestParse_RejectsInconsistentIndentation(t *testing.T) {
	doc := `select id='bad':
    SELECT 1
        SELECT 2
      SELECT 3
`
	if _, err := Parse(strings.NewReader(doc)); err == nil {
		t.Fatal("expected an indentation error")
	}
}

func TestParse_RejectsTabs(t *testing.T) {
	doc := "select id='bad':\n\tSELECT 1\n"
	if _, err := Parse(strings.NewReader(doc)); err == nil {
		t.Fatal("expected a tabs-not-allowed error")
	}
}
