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

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dynsql/dynsql/errs"
	"github.com/dynsql/dynsql/session/tx"
)

// Frame is one entry in the explicit transaction stack Begin pushes
// and Commit/Rollback pops. Unlike a single flat *sql.Tx with no
// concept of an outer transaction, Frame threads a parent pointer so
// nested Begin calls can join, suspend, or savepoint relative to it,
// per the seven Propagation modes.
type Frame struct {
	parent      *Frame
	propagation Propagation
	db          *sql.DB
	sqlTx       *sql.Tx // nil for Supports/NotSupported frames with no transaction
	owns        bool    // true if this Frame's Commit/Rollback controls sqlTx directly
	savepoint   string  // non-empty for a Nested frame joining an outer sqlTx via SAVEPOINT
	done        bool
}

// Session returns the database handle statements should run against
// while this Frame is active: the Frame's own *sql.Tx if it has one,
// else the nearest ancestor's, else the root *sql.DB.
func (f *Frame) Session() Session {
	for cur := f; cur != nil; cur = cur.parent {
		if cur.sqlTx != nil {
			return cur.sqlTx
		}
	}
	return f.db
}

type frameKey struct{}

func frameFromContext(ctx context.Context) *Frame {
	f, _ := ctx.Value(frameKey{}).(*Frame)
	return f
}

func withFrame(ctx context.Context, f *Frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

var savepointSeq int64

func nextSavepointName() string {
	return fmt.Sprintf("sp_%d", atomic.AddInt64(&savepointSeq, 1))
}

// Begin starts or joins a transaction per propagation, relative to
// whatever Frame is already active in ctx (if any). It returns a
// context carrying the resulting Frame; the caller must use that
// context (not the original ctx) for everything run inside the
// transaction, and must call exactly one of frame.Commit/frame.Rollback
// when done.
func Begin(ctx context.Context, db *sql.DB, propagation Propagation, opts ...tx.TransactionOptionFunc) (context.Context, *Frame, error) {
	current := frameFromContext(ctx)

	switch propagation {
	case Required:
		if current != nil {
			return ctx, current, nil
		}
		return beginNew(ctx, db, nil, propagation, opts...)

	case Supports:
		if current != nil {
			return ctx, current, nil
		}
		f := &Frame{db: db, propagation: propagation}
		return withFrame(ctx, f), f, nil

	case Mandatory:
		if current == nil {
			return ctx, nil, fmt.Errorf("%w: MANDATORY propagation requires an active transaction", errs.ErrTransaction)
		}
		return ctx, current, nil

	case RequiresNew:
		return beginNew(ctx, db, current, propagation, opts...)

	case NotSupported:
		// No parent pointer: Session() must resolve straight to db, not
		// walk up to the suspended frame's transaction. Resumption of
		// the suspended frame happens implicitly — callers continue
		// using the ctx from before Begin was called, which still
		// carries it.
		f := &Frame{db: db, propagation: propagation}
		return withFrame(ctx, f), f, nil

	case Never:
		if current != nil {
			return ctx, nil, fmt.Errorf("%w: NEVER propagation forbids an active transaction", errs.ErrTransaction)
		}
		f := &Frame{db: db, propagation: propagation}
		return withFrame(ctx, f), f, nil

	case Nested:
		if current == nil {
			return beginNew(ctx, db, nil, propagation, opts...)
		}
		return beginSavepoint(ctx, current)

	default:
		return ctx, nil, fmt.Errorf("%w: unknown propagation %v", errs.ErrTransaction, propagation)
	}
}

func beginNew(ctx context.Context, db *sql.DB, parent *Frame, propagation Propagation, opts ...tx.TransactionOptionFunc) (context.Context, *Frame, error) {
	var txOpts *sql.TxOptions
	if len(opts) > 0 {
		txOpts = new(sql.TxOptions)
		for _, o := range opts {
			o(txOpts)
		}
	}
	sqlTx, err := db.BeginTx(ctx, txOpts)
	if err != nil {
		return ctx, nil, err
	}
	f := &Frame{db: db, sqlTx: sqlTx, owns: true, parent: parent, propagation: propagation}
	return withFrame(ctx, f), f, nil
}

func beginSavepoint(ctx context.Context, current *Frame) (context.Context, *Frame, error) {
	name := nextSavepointName()
	if _, err := current.Session().ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return ctx, nil, fmt.Errorf("%w: savepoint %s: %v", errs.ErrTransaction, name, err)
	}
	f := &Frame{db: current.db, parent: current, propagation: Nested, savepoint: name}
	return withFrame(ctx, f), f, nil
}

// Commit finalizes f. For a Frame that owns its *sql.Tx, this issues a
// real COMMIT; for a Nested frame it releases its savepoint; for a
// frame with no transaction of its own (Supports with nothing active,
// NotSupported, Never) it is a no-op. When Required, Supports or
// Mandatory join an active Frame, Begin returns that Frame itself, so
// Commit on it commits the shared transaction. Calling Commit or
// Rollback on a finished Frame returns nil.
func (f *Frame) Commit() error {
	if f.done {
		return nil
	}
	f.done = true
	switch {
	case f.savepoint != "":
		_, err := f.parent.Session().ExecContext(context.Background(), "RELEASE SAVEPOINT "+f.savepoint)
		return err
	case f.owns:
		return f.sqlTx.Commit()
	default:
		return nil
	}
}

// Rollback aborts f. For a Frame that owns its *sql.Tx this issues a
// real ROLLBACK; for a Nested frame it rolls back to its savepoint
// only, leaving the outer transaction otherwise intact; for a frame
// with no transaction of its own it is a no-op. As with Commit, a
// joining Begin returns the active Frame itself, so Rollback on it
// rolls back the shared transaction.
func (f *Frame) Rollback() error {
	if f.done {
		return nil
	}
	f.done = true
	switch {
	case f.savepoint != "":
		_, err := f.parent.Session().ExecContext(context.Background(), "ROLLBACK TO SAVEPOINT "+f.savepoint)
		return err
	case f.owns:
		err := f.sqlTx.Rollback()
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return err
	default:
		return nil
	}
}
