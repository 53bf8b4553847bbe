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

// Package intercept is the statement-execution interception pipeline:
// every query/exec passes through a Chain of Interceptors before and
// after it reaches the driver, wrapped in registration order and
// exposed as an explicit Before/After pair with a short-circuit
// return value — which is what the built-in interceptors below
// actually need (pagination rewrites the query before it runs;
// generated-keys and logging need the result after).
package intercept

import (
	"context"
	"time"

	"github.com/dynsql/dynsql/value"
)

// Action identifies which kind of statement is executing, used to gate
// behavior like generated-key logging to INSERT only.
type Action int

const (
	ActionSelect Action = iota
	ActionInsert
	ActionUpdate
	ActionDelete
)

// Task describes one statement about to execute. Interceptors read
// and may rewrite Query/Args in Before; they never rewrite Statement
// metadata.
type Task struct {
	StatementID string
	Action      Action
	Query       string
	Args        []any
	Param       value.Value
	Attributes  map[string]string
	StartedAt   time.Time

	// local is per-task scratch space an interceptor can use to carry
	// state from Before to After (e.g. OtelInterceptor's open span)
	// without a package-level registry keyed by pointer identity.
	local map[string]any
}

// Attribute returns stmt's attribute value, or "" if unset.
func (t *Task) Attribute(name string) string {
	if t.Attributes == nil {
		return ""
	}
	return t.Attributes[name]
}

// SetLocal stores a value under key in this task's scratch space.
func (t *Task) SetLocal(key string, v any) {
	if t.local == nil {
		t.local = make(map[string]any, 1)
	}
	t.local[key] = v
}

// Local retrieves a value previously stored with SetLocal.
func (t *Task) Local(key string) (any, bool) {
	v, ok := t.local[key]
	return v, ok
}

// Result carries what came back from the driver: rows affected, the
// last insert id and the error, if any.
type Result struct {
	RowsAffected int64
	LastInsertID int64
	Err          error
}

// Interceptor observes or rewrites one statement's execution. Before
// runs in registration order; returning proceed=false short-circuits
// the remaining chain (and the statement itself is not executed).
// After runs in reverse registration order once the statement (or the
// short-circuit) has produced a Result, unwinding like nested
// decorator closures.
type Interceptor interface {
	Before(ctx context.Context, task *Task) (proceed bool, err error)
	After(ctx context.Context, task *Task, result *Result) error
}

// Chain runs a fixed, ordered list of Interceptors around a statement.
type Chain struct {
	interceptors []Interceptor
}

// NewChain builds a Chain from interceptors, in the order Before runs.
func NewChain(interceptors ...Interceptor) *Chain {
	return &Chain{interceptors: append([]Interceptor(nil), interceptors...)}
}

// Before runs every interceptor's Before in order, stopping at the
// first one that returns proceed=false or an error. It returns how
// many interceptors actually ran Before, so After can unwind exactly
// that many in reverse — interceptors registered after a short-circuit
// never see the task at all.
func (c *Chain) Before(ctx context.Context, task *Task) (ran int, proceed bool, err error) {
	for _, i := range c.interceptors {
		ok, err := i.Before(ctx, task)
		ran++
		if err != nil {
			return ran, false, err
		}
		if !ok {
			return ran, false, nil
		}
	}
	return ran, true, nil
}

// After runs After on the first `ran` interceptors, in reverse order.
// The first error encountered is returned, but every interceptor still
// gets a chance to observe the result (e.g. logging must see failed
// statements too).
func (c *Chain) After(ctx context.Context, task *Task, result *Result, ran int) error {
	var firstErr error
	for i := ran - 1; i >= 0; i-- {
		if err := c.interceptors[i].After(ctx, task, result); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
