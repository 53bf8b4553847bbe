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
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
)

// fakeDriver is a minimal database/sql/driver.Driver that records every
// statement it is asked to execute, enough to assert the propagation
// modes issue (or don't issue) the right BEGIN/SAVEPOINT/COMMIT/
// ROLLBACK sequence without a real database.
type fakeDriver struct {
	mu  sync.Mutex
	log []string
}

func (d *fakeDriver) record(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, s)
}

func (d *fakeDriver) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.log...)
}

func (d *fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{d: d}, nil }

type fakeConn struct{ d *fakeDriver }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{c: c, query: query}, nil
}
func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) {
	c.d.record("BEGIN")
	return &fakeTx{d: c.d}, nil
}

type fakeTx struct{ d *fakeDriver }

func (t *fakeTx) Commit() error   { t.d.record("COMMIT"); return nil }
func (t *fakeTx) Rollback() error { t.d.record("ROLLBACK"); return nil }

type fakeStmt struct {
	c     *fakeConn
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.c.d.record("EXEC " + s.query)
	return fakeResult{}, nil
}
func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("not supported")
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 0, nil }

func newFakeDB(t *testing.T) (*sql.DB, *fakeDriver) {
	t.Helper()
	fd := &fakeDriver{}
	name := "dynsql-fake-" + t.Name()
	sql.Register(name, fd)
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, fd
}

func TestBegin_RequiredStartsThenJoins(t *testing.T) {
	db, fd := newFakeDB(t)
	ctx := context.Background()

	ctx1, f1, err := Begin(ctx, db, Required)
	if err != nil {
		t.Fatal(err)
	}
	ctx2, f2, err := Begin(ctx1, db, Required)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Error("nested REQUIRED should join the same frame")
	}
	if err := f2.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := f1.Commit(); err != nil {
		t.Fatal(err)
	}
	_ = ctx2
	got := fd.snapshot()
	if len(got) != 2 || got[0] != "BEGIN" || got[1] != "COMMIT" {
		t.Errorf("log = %v, want exactly one BEGIN and one COMMIT", got)
	}
}

func TestBegin_MandatoryFailsWithoutActiveFrame(t *testing.T) {
	db, _ := newFakeDB(t)
	_, _, err := Begin(context.Background(), db, Mandatory)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBegin_NeverFailsWithActiveFrame(t *testing.T) {
	db, _ := newFakeDB(t)
	ctx, f, err := Begin(context.Background(), db, Required)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Commit()
	if _, _, err := Begin(ctx, db, Never); err == nil {
		t.Fatal("expected error")
	}
}

func TestBegin_RequiresNewOpensASecondTransaction(t *testing.T) {
	db, fd := newFakeDB(t)
	ctx, outer, err := Begin(context.Background(), db, Required)
	if err != nil {
		t.Fatal(err)
	}
	_, inner, err := Begin(ctx, db, RequiresNew)
	if err != nil {
		t.Fatal(err)
	}
	if inner == outer {
		t.Fatal("REQUIRES_NEW should not reuse the outer frame")
	}
	if err := inner.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := outer.Commit(); err != nil {
		t.Fatal(err)
	}
	got := fd.snapshot()
	beginCount, commitCount := 0, 0
	for _, e := range got {
		if e == "BEGIN" {
			beginCount++
		}
		if e == "COMMIT" {
			commitCount++
		}
	}
	if beginCount != 2 || commitCount != 2 {
		t.Errorf("log = %v, want 2 BEGIN and 2 COMMIT", got)
	}
}

func TestBegin_NestedIssuesSavepoint(t *testing.T) {
	db, fd := newFakeDB(t)
	ctx, outer, err := Begin(context.Background(), db, Required)
	if err != nil {
		t.Fatal(err)
	}
	_, inner, err := Begin(ctx, db, Nested)
	if err != nil {
		t.Fatal(err)
	}
	if inner.savepoint == "" {
		t.Fatal("expected a savepoint name")
	}
	if err := inner.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := outer.Commit(); err != nil {
		t.Fatal(err)
	}
	got := fd.snapshot()
	foundSavepoint, foundRelease := false, false
	for _, e := range got {
		if e == "EXEC SAVEPOINT "+inner.savepoint {
			foundSavepoint = true
		}
		if e == "EXEC RELEASE SAVEPOINT "+inner.savepoint {
			foundRelease = true
		}
	}
	if !foundSavepoint || !foundRelease {
		t.Errorf("log = %v, want SAVEPOINT then RELEASE SAVEPOINT", got)
	}
}

func TestBegin_SupportsRunsWithoutTransactionWhenNoneActive(t *testing.T) {
	db, fd := newFakeDB(t)
	_, f, err := Begin(context.Background(), db, Supports)
	if err != nil {
		t.Fatal(err)
	}
	if f.Session() != Session(db) {
		t.Error("SUPPORTS with no active frame should use db directly")
	}
	if err := f.Commit(); err != nil {
		t.Fatal(err)
	}
	if len(fd.snapshot()) != 0 {
		t.Errorf("expected no BEGIN/COMMIT calls, got %v", fd.snapshot())
	}
}

func TestBegin_NotSupportedSuspendsActiveTransaction(t *testing.T) {
	db, _ := newFakeDB(t)
	ctx, outer, err := Begin(context.Background(), db, Required)
	if err != nil {
		t.Fatal(err)
	}
	defer outer.Commit()

	_, suspended, err := Begin(ctx, db, NotSupported)
	if err != nil {
		t.Fatal(err)
	}
	if suspended.Session() != Session(db) {
		t.Error("NOT_SUPPORTED should operate directly on db, not the suspended tx")
	}
}
