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

package intercept

import (
	"context"
	"strconv"
)

// GeneratedKeysInterceptor logs the key a successful INSERT produced
// (either the driver's LastInsertId, on mysql/sqlite, or the id
// already bound into Task.Args by a RETURNING-capable dialect handled
// upstream in compiler). It stays scoped to observation: reflecting a
// generated id back into the caller's struct/slice parameter is the
// binder's job, done directly against the returned Result, keeping
// this interceptor a pure Before/After observer instead of a
// result-mutating one.
type GeneratedKeysInterceptor struct {
	Logger interface{ Printf(string, ...any) }
}

// Before is a no-op; GeneratedKeysInterceptor only needs Action at
// After time to decide whether to look at LastInsertID.
func (g *GeneratedKeysInterceptor) Before(_ context.Context, _ *Task) (bool, error) {
	return true, nil
}

// After records the generated key when the statement was an INSERT
// that asked for useGeneratedKeys.
func (g *GeneratedKeysInterceptor) After(_ context.Context, task *Task, result *Result) error {
	if task.Action != ActionInsert || result == nil || result.Err != nil {
		return nil
	}
	if task.Attribute("useGeneratedKeys") != "true" {
		return nil
	}
	if g.Logger == nil {
		return nil
	}
	g.Logger.Printf("[dynsql] generated key %s for statement %s (rows affected %s)",
		strconv.FormatInt(result.LastInsertID, 10), task.StatementID,
		strconv.FormatInt(result.RowsAffected, 10))
	return nil
}
