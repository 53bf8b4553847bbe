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

package compiler

import (
	"strings"
	"testing"

	"github.com/dynsql/dynsql/driver"
	"github.com/dynsql/dynsql/markup"
)

func TestCompile_RewritesForPostgres(t *testing.T) {
	doc := `<mapper namespace="user">
  <select id="getByID">
    SELECT * FROM users WHERE ID = #{ID} AND name = #{name}
  </select>
</mapper>`
	mapper, err := markup.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if err := markup.ResolveAll([]*markup.Mapper{mapper}); err != nil {
		t.Fatal(err)
	}
	stmt := mapper.Statements["getByID"]

	pg, err := driver.Get("postgres")
	if err != nil {
		t.Fatal(err)
	}
	scope := NewScope(map[string]any{"ID": 1, "name": "bob"})
	compiled, err := Compile(stmt.Node, scope, pg)
	if err != nil {
		t.Fatal(err)
	}
	want := "SELECT * FROM users WHERE ID = $1 AND name = $2"
	if compiled.Query != want {
		t.Errorf("query = %q, want %q", compiled.Query, want)
	}
	if len(compiled.Args) != 2 {
		t.Fatalf("args = %v", compiled.Args)
	}
	if compiled.Args[0] != int64(1) || compiled.Args[1] != "bob" {
		t.Errorf("args = %#v", compiled.Args)
	}
}

func TestCompile_MySQLKeepsQuestionMarks(t *testing.T) {
	doc := `<mapper namespace="user">
  <select id="getByID">
    SELECT * FROM users WHERE ID = #{ID}
  </select>
</mapper>`
	mapper, err := markup.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if err := markup.ResolveAll([]*markup.Mapper{mapper}); err != nil {
		t.Fatal(err)
	}
	stmt := mapper.Statements["getByID"]

	my, err := driver.Get("mysql")
	if err != nil {
		t.Fatal(err)
	}
	scope := NewScope(map[string]any{"ID": 7})
	compiled, err := Compile(stmt.Node, scope, my)
	if err != nil {
		t.Fatal(err)
	}
	if compiled.Query != "SELECT * FROM users WHERE ID = ?" {
		t.Errorf("query = %q", compiled.Query)
	}
}
