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
	"time"
)

// TimeoutInterceptor bounds how long a statement is allowed to run,
// deriving a context.WithTimeout from a "timeout" statement attribute
// in milliseconds. Since this package's Before/After split can't wrap
// a single call the way a handler decorator can, Before and After do
// nothing: the caller driving the Chain gets the deadline context and
// its cancel func from WithDeadline and releases the cancel itself.
type TimeoutInterceptor struct {
	// Default is used when a statement carries no "timeout" attribute.
	// Zero means no default timeout.
	Default time.Duration
}

// WithDeadline returns ctx with the interceptor's configured deadline
// attached, and the cancel func the caller must invoke once the
// statement finishes (success, failure, or short-circuit).
func (t *TimeoutInterceptor) WithDeadline(ctx context.Context, task *Task) (context.Context, context.CancelFunc) {
	d := t.timeoutFor(task)
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func (t *TimeoutInterceptor) timeoutFor(task *Task) time.Duration {
	if ms := task.Attribute("timeout"); ms != "" {
		if n, err := time.ParseDuration(ms + "ms"); err == nil {
			return n
		}
	}
	return t.Default
}

// Before is a no-op; the deadline comes from WithDeadline instead.
func (t *TimeoutInterceptor) Before(_ context.Context, _ *Task) (bool, error) { return true, nil }

// After is a no-op.
func (t *TimeoutInterceptor) After(_ context.Context, _ *Task, _ *Result) error { return nil }
