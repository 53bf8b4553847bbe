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

// Package options provides the functional-options surface db.go calls
// to turn a registered driver name and DSN into a configured *sql.DB.
package options

import (
	"database/sql"
	"time"

	"github.com/dynsql/dynsql/driver"
)

// ConnectOption configures a *sql.DB right after it's opened.
type ConnectOption func(db *sql.DB)

// ConnectWithMaxOpenConnNum caps the number of open connections. A
// value <= 0 leaves database/sql's unlimited default in place.
func ConnectWithMaxOpenConnNum(n int) ConnectOption {
	return func(db *sql.DB) {
		if n > 0 {
			db.SetMaxOpenConns(n)
		}
	}
}

// ConnectWithMaxIdleConnNum caps the number of idle connections kept
// in the pool. A value <= 0 leaves the default in place.
func ConnectWithMaxIdleConnNum(n int) ConnectOption {
	return func(db *sql.DB) {
		if n > 0 {
			db.SetMaxIdleConns(n)
		}
	}
}

// ConnectWithMaxConnLifetime bounds how long a connection may be
// reused before it's closed and replaced. A value <= 0 leaves
// connections reusable forever.
func ConnectWithMaxConnLifetime(d time.Duration) ConnectOption {
	return func(db *sql.DB) {
		if d > 0 {
			db.SetConnMaxLifetime(d)
		}
	}
}

// ConnectWithMaxIdleConnLifetime bounds how long a connection may sit
// idle in the pool before it's closed.
func ConnectWithMaxIdleConnLifetime(d time.Duration) ConnectOption {
	return func(db *sql.DB) {
		if d > 0 {
			db.SetConnMaxIdleTime(d)
		}
	}
}

// Connect resolves driverName against the driver registry, opens dsn
// through it, verifies the connection with Ping, and applies opts.
func Connect(driverName, dsn string, opts ...ConnectOption) (*sql.DB, error) {
	drv, err := driver.Get(driverName)
	if err != nil {
		return nil, err
	}
	db, err := drv.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}
