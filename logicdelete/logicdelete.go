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

// Package logicdelete rewrites a DELETE statement into an UPDATE that
// flips a soft-delete flag column, the way rbatis's
// plugin::logic_delete::RbatisLogicDeletePlugin does (configured with
// a column name, e.g. "delete_flag"; DELETE FROM t WHERE id = ? becomes
// UPDATE t SET delete_flag = 1 WHERE id = ? AND delete_flag = 0). It is
// implemented as an intercept.Interceptor so a mapper opts in per
// statement via an attribute rather than a global table-wide plugin
// registration.
package logicdelete

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dynsql/dynsql/intercept"
)

var deleteRegexp = regexp.MustCompile(`(?is)^\s*delete\s+from\s+(\S+)\s*(where\s+.*)?$`)

// Rewrite turns a DELETE FROM <table> [WHERE ...] statement into the
// equivalent soft-delete UPDATE, using column as the flag column,
// deletedValue as the value meaning "deleted" and activeValue as the
// value meaning "not deleted" (so the added predicate only touches
// still-active rows, avoiding a double soft-delete).
func Rewrite(query, column string, deletedValue, activeValue string) (string, error) {
	m := deleteRegexp.FindStringSubmatch(query)
	if m == nil {
		return "", fmt.Errorf("logicdelete: not a plain DELETE FROM <table> [WHERE ...] statement: %q", query)
	}
	table := m[1]
	where := strings.TrimSpace(m[2])

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET %s = %s", table, column, deletedValue)
	if where == "" {
		fmt.Fprintf(&b, " WHERE %s = %s", column, activeValue)
		return b.String(), nil
	}
	// where already starts with "WHERE "; splice the flag predicate in
	// with AND so an existing filter and the flag filter both apply.
	rest := strings.TrimSpace(where[len("where"):])
	fmt.Fprintf(&b, " WHERE %s AND %s = %s", rest, column, activeValue)
	return b.String(), nil
}

const (
	attributeKey = "logicDelete"
	defaultDeletedValue = "1"
	defaultActiveValue  = "0"
)

// Interceptor rewrites a DELETE statement's query into its soft-delete
// UPDATE form when the statement carries a logicDelete="<column>"
// attribute.
type Interceptor struct {
	// DeletedValue/ActiveValue default to "1"/"0" when empty, matching
	// rbatis's boolean-flag convention.
	DeletedValue string
	ActiveValue  string
}

// Before rewrites task.Query and task.Action when logicDelete is set.
func (i *Interceptor) Before(_ context.Context, task *intercept.Task) (bool, error) {
	column := task.Attribute(attributeKey)
	if column == "" || task.Action != intercept.ActionDelete {
		return true, nil
	}
	deleted, active := i.DeletedValue, i.ActiveValue
	if deleted == "" {
		deleted = defaultDeletedValue
	}
	if active == "" {
		active = defaultActiveValue
	}
	rewritten, err := Rewrite(task.Query, column, deleted, active)
	if err != nil {
		return false, err
	}
	task.Query = rewritten
	task.Action = intercept.ActionUpdate
	return true, nil
}

// After is a no-op.
func (i *Interceptor) After(_ context.Context, _ *intercept.Task, _ *intercept.Result) error {
	return nil
}
