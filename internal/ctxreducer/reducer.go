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

// Package ctxreducer folds a handful of context.WithValue calls into a
// single step so a statement handler can inject everything a downstream
// interceptor or binder needs (the session, the call's parameter) in
// one place instead of threading each value through by hand.
package ctxreducer

import (
	"context"

	"github.com/dynsql/dynsql/session"
)

// ContextReducer applies one context.WithValue-shaped transformation.
type ContextReducer interface {
	Reduce(ctx context.Context) context.Context
}

// ContextReducerFunc adapts a plain function to ContextReducer.
type ContextReducerFunc func(ctx context.Context) context.Context

func (f ContextReducerFunc) Reduce(ctx context.Context) context.Context { return f(ctx) }

// ContextReducerGroup runs its reducers in order, each seeing the
// context produced by the one before it.
type ContextReducerGroup []ContextReducer

func (g ContextReducerGroup) Reduce(ctx context.Context) context.Context {
	for _, r := range g {
		ctx = r.Reduce(ctx)
	}
	return ctx
}

// G is the short alias used at call sites building a reducer group inline.
type G = ContextReducerGroup

type paramKey struct{}

// NewParamContextReducer stashes param under the key ParamFromContext reads.
func NewParamContextReducer(param any) ContextReducer {
	return ContextReducerFunc(func(ctx context.Context) context.Context {
		return context.WithValue(ctx, paramKey{}, param)
	})
}

// ParamFromContext returns the parameter a NewParamContextReducer stashed,
// or nil if none was.
func ParamFromContext(ctx context.Context) any {
	return ctx.Value(paramKey{})
}

// NewSessionContextReducer injects sess via session.WithContext.
func NewSessionContextReducer(sess session.Session) ContextReducer {
	return ContextReducerFunc(func(ctx context.Context) context.Context {
		return session.WithContext(ctx, sess)
	})
}
