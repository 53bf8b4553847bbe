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

// Package errs collects the sentinel errors shared across packages, so
// callers can branch with errors.Is instead of string-matching.
// Package pool returns ErrPoolTimeout and ErrPoolClosed and package
// session returns ErrTransaction; the other sentinels are declared here
// but no package in this module returns or wraps them.
package errs

import "errors"

var (
	// ErrParse names the failure of a markup or indent template to
	// parse into an ast.Node tree.
	ErrParse = errors.New("dynsql: parse error")

	// ErrCompile names the failure of a parsed template to be resolved
	// or built into a final query (unresolved include, cyclic include,
	// malformed expression).
	ErrCompile = errors.New("dynsql: compile error")

	// ErrExpression names a malformed or type-invalid expression.
	ErrExpression = errors.New("dynsql: expression error")

	// ErrDriver names an unregistered driver or a connection failure.
	ErrDriver = errors.New("dynsql: driver error")

	// ErrPoolTimeout is returned when acquiring a connection from the
	// pool exceeds its configured wait timeout.
	ErrPoolTimeout = errors.New("dynsql: pool acquire timeout")

	// ErrPoolClosed is returned when acquiring from a closed pool.
	ErrPoolClosed = errors.New("dynsql: pool is closed")

	// ErrTransaction is returned for invalid transaction-propagation
	// requests, e.g. MANDATORY with no active transaction, or NESTED
	// on a driver without savepoint support.
	ErrTransaction = errors.New("dynsql: transaction error")

	// ErrIntegrity names a constraint violation surfaced by the
	// underlying driver (unique/foreign key/check).
	ErrIntegrity = errors.New("dynsql: integrity constraint violation")

	// ErrNoStatementFound names a statement ID with no registered
	// mapper entry.
	ErrNoStatementFound = errors.New("dynsql: no statement found")

	// ErrEmptyQuery names a compiled statement that produced an empty
	// query string.
	ErrEmptyQuery = errors.New("dynsql: empty query")
)
