// Package stmt recovers the query string a *sql.Stmt was prepared
// with, so a reused prepared statement can be matched against the
// next query a caller wants to run before deciding to reprepare.
// database/sql never exposes this itself; it's read back out of the
// unexported Stmt.query field via reflection.
package stmt

import (
	"database/sql"
	"reflect"
)

// Query returns the query string s was created with. It returns the
// empty string if s is nil or the field cannot be read (e.g. the
// standard library layout changed).
func Query(s *sql.Stmt) string {
	if s == nil {
		return ""
	}
	v := reflect.ValueOf(s).Elem().FieldByName("query")
	if !v.IsValid() || v.Kind() != reflect.String {
		return ""
	}
	return v.String()
}
