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

// Package session carries the current database handle — a *sql.DB, a
// *sql.Tx, or a Frame from this package's own propagation-aware
// transaction stack — through a context.Context, and implements
// seven-propagation-mode transaction nesting on top of it.
package session

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNoSession is returned by FromContext when ctx carries no Session.
var ErrNoSession = errors.New("session: no session found in context")

// Session is the minimal surface a *sql.DB and a *sql.Tx share, and
// the one compiler/binder code depends on so it can run a compiled
// statement without caring whether it's inside a transaction.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var _ Session = (*sql.DB)(nil)
var _ Session = (*sql.Tx)(nil)

type sessionKey struct{}

// WithContext returns a copy of ctx carrying sess as the active
// Session. A nil sess is stored as-is; FromContext still reports
// ErrNoSession for it, since a typed-nil Session is as useless to a
// caller as no session at all.
func WithContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext retrieves the Session ctx carries, or ErrNoSession if
// none was set (or it was set to nil).
func FromContext(ctx context.Context) (Session, error) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || isNilSession(sess) {
		return nil, ErrNoSession
	}
	return sess, nil
}

func isNilSession(sess Session) bool {
	switch v := sess.(type) {
	case *sql.DB:
		return v == nil
	case *sql.Tx:
		return v == nil
	default:
		return sess == nil
	}
}
