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

// Package driver is the pluggable external-driver collaborator: one
// Driver per SQL dialect, registered by name, carrying the placeholder
// style, identifier quoting and capability flags the rest of the
// engine needs but has no business hardcoding. It registers the real
// sql.Driver each third-party package provides rather than inventing
// a new wire protocol.
package driver

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/dynsql/dynsql/rewrite"
)

// Capability flags describe dialect quirks the compiler/intercept
// layers need to branch on without importing a specific driver.
type Capability int

const (
	// CapReturning means RETURNING can be appended to INSERT/UPDATE to
	// fetch generated keys in one round trip (Postgres, SQLite).
	CapReturning Capability = 1 << iota
	// CapLastInsertID means the driver supports Result.LastInsertId
	// (MySQL, SQLite); Postgres and SQL Server do not.
	CapLastInsertID
	// CapSavepoint means SAVEPOINT/RELEASE SAVEPOINT/ROLLBACK TO are
	// available for nested transactions.
	CapSavepoint
)

// Driver describes one registered SQL dialect: how to open a
// *sql.DB for it, what its bind-placeholder style is, how to quote an
// identifier, and what it can and can't do.
type Driver interface {
	// Name is the registered driver name, matching the database/sql
	// driver name this Driver wraps (e.g. "mysql", "postgres").
	Name() string
	// Open dials dsn and returns a ready-to-configure *sql.DB.
	Open(dsn string) (*sql.DB, error)
	// PlaceholderStyle says how the compiler's canonical '?' stream
	// should be rewritten for this dialect.
	PlaceholderStyle() rewrite.Style
	// QuoteIdentifier quotes a raw identifier (table/column name) per
	// this dialect's quoting rules, for ${...} raw-substitution use and
	// the pagination/logic-delete interceptors.
	QuoteIdentifier(name string) string
	// Has reports whether cap is supported.
	Has(cap Capability) bool
}

// baseDriver implements the parts of Driver that only vary by a handful
// of fields, so concrete drivers are just data.
type baseDriver struct {
	name         string
	openFunc     func(dsn string) (*sql.DB, error)
	style        rewrite.Style
	quote        func(string) string
	capabilities Capability
}

func (d *baseDriver) Name() string                       { return d.name }
func (d *baseDriver) Open(dsn string) (*sql.DB, error)    { return d.openFunc(dsn) }
func (d *baseDriver) PlaceholderStyle() rewrite.Style     { return d.style }
func (d *baseDriver) QuoteIdentifier(name string) string  { return d.quote(name) }
func (d *baseDriver) Has(cap Capability) bool             { return d.capabilities&cap != 0 }

var (
	mu        sync.RWMutex
	registry  = make(map[string]Driver)
)

// Register adds d to the registry under d.Name(), overwriting any
// previous registration under that name — the same last-wins semantics
// database/sql itself doesn't have but driver authors expect when
// re-registering in tests.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name()] = d
}

// ErrUnknownDriver is returned by Get for an unregistered driver name.
var ErrUnknownDriver = fmt.Errorf("driver: unknown driver")

// Get looks up a registered Driver by name.
func Get(name string) (Driver, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return d, nil
}

func quoteWith(open, close byte) func(string) string {
	return func(name string) string {
		return string(open) + name + string(close)
	}
}
