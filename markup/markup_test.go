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

package markup

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
	doc := `<mapper namespace="user">
  <select id="getByID">
    SELECT * FROM users WHERE ID = #{ID}
  </select>
</mapper>`
	query, argc := build(t, doc, "getByID", map[string]any{"ID": 1})
	if query != "SELECT * FROM users WHERE ID = ?" {
		t.Errorf("query = %q", query)
	}
	if argc != 1 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_IfAndWhere(t *testing.T) {
	doc := `<mapper namespace="user">
  <select id="search">
    SELECT * FROM users
    <where>
      <if test="name != ''">
        AND name = #{name}
      </if>
      <if test="age > 0">
        AND age = #{age}
      </if>
    </where>
  </select>
</mapper>`
	query, argc := build(t, doc, "search", map[string]any{"name": "bob", "age": 0})
	if query != "SELECT * FROM users WHERE name = ?" {
		t.Errorf("query = %q", query)
	}
	if argc != 1 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_ForeachAndBind(t *testing.T) {
	doc := `<mapper namespace="user">
  <select id="byIDs">
    <bind name="idList" value="ids"/>
    SELECT * FROM users WHERE ID IN
    <foreach collection="idList" item="id" open="(" separator="," close=")">
      #{id}
    </foreach>
  </select>
</mapper>`
	query, argc := build(t, doc, "byIDs", map[string]any{"ids": []any{1, 2, 3}})
	if query != "SELECT * FROM users WHERE ID IN (?,?,?)" {
		t.Errorf("query = %q", query)
	}
	if argc != 3 {
		t.Errorf("argc = %d", argc)
	}
}

func TestParse_ChooseAndInclude(t *testing.T) {
	doc := `<mapper namespace="user">
  <sql id="base">
    ID, name, age
  </sql>
  <select id="byStatus">
    SELECT <include refid="base"/> FROM users
    <choose>
      <when test="status == 'ACTIVE'">
        WHERE status = 'ACTIVE'
      </when>
      <otherwise>
        WHERE 1 = 1
      </otherwise>
    </choose>
  </select>
</mapper>`
	query, _ := build(t, doc, "byStatus", map[string]any{"status": "ACTIVE"})
	if query != "SELECT ID, name, age FROM users WHERE status = 'ACTIVE'" {
		t.Errorf("query = %q", query)
	}

	query, _ = build(t, doc, "byStatus", map[string]any{"status": "INACTIVE"})
	if query != "SELECT ID, name, age FROM users WHERE 1 = 1" {
		t.Errorf("query = %q", query)
	}
}

func TestParse_IncludeCycleFails(t *testing.T) {
	doc := `<mapper namespace="user">
  <sql id="a"><include refid="b"/></sql>
  <sql id="b"><include refid="a"/></sql>
  <select id="broken"><include refid="a"/></select>
</mapper>`
	mapper, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := ResolveAll([]*Mapper{mapper}); err == nil {
		t.Fatal("expected cycle error")
	}
}
