/*
Copyright 2023 eatmoreapple

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

package juice

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/dynsql/dynsql/ast"
	"github.com/dynsql/dynsql/compiler"
	"github.com/dynsql/dynsql/driver"
	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/sql"
)

// BindNode is the root package's name for ast.BindNode, kept distinct
// from ast.Node since a Statement exposes its bind nodes separately
// from its body for callers that only care about the computed-value
// names a statement introduces.
type BindNode = ast.BindNode

type StatementMetadata interface {
	ID() string
	Name() string
	Attribute(key string) string
	Configuration() IConfiguration
}

type StatementBuilder interface {
	Build(drv driver.Driver, scope *expr.Scope) (query string, args []any, err error)
}

type Statement interface {
	Action() sql.Action
	ResultMap() (sql.ResultMap, error)
	BindNodes() []*BindNode
	StatementMetadata
	StatementBuilder
}

// xmlSQLStatement defines a sql xmlSQLStatement.
type xmlSQLStatement struct {
	mapper    *Mapper
	action    sql.Action
	Node      ast.Node
	bindNodes []*BindNode
	attrs     map[string]string
	name      string
	id        string
}

// Attribute returns the value of the attribute with the given key.
func (s *xmlSQLStatement) Attribute(key string) string {
	value := s.attrs[key]
	if value == "" {
		value = s.mapper.Attribute(key)
	}
	return value
}

// setAttribute sets the attribute with the given key and value.
func (s *xmlSQLStatement) setAttribute(key, value string) {
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.attrs[key] = value
}

// ID returns the unique key of the namespace.
func (s *xmlSQLStatement) ID() string {
	return s.id
}

func (s *xmlSQLStatement) lazyName() string {
	var builder = getStringBuilder()
	defer putStringBuilder(builder)
	if prefix := s.mapper.mappers.Prefix(); prefix != "" {
		builder.WriteString(prefix)
		builder.WriteString(".")
	}
	builder.WriteString(s.mapper.namespace)
	builder.WriteString(".")
	builder.WriteString(s.id)
	return builder.String()
}

// Name is a unique key of the whole xmlSQLStatement.
func (s *xmlSQLStatement) Name() string {
	if s.name == "" {
		s.name = s.lazyName()
	}
	return s.name
}

// Action returns the action of the xmlSQLStatement.
func (s *xmlSQLStatement) Action() sql.Action {
	return s.action
}

// Configuration returns the configuration the xmlSQLStatement's mapper
// was loaded under.
func (s *xmlSQLStatement) Configuration() IConfiguration {
	return s.mapper.mappers.Configuration()
}

// ResultMap returns the ResultMap of the xmlSQLStatement.
func (s *xmlSQLStatement) ResultMap() (sql.ResultMap, error) {
	// Design Decision: ResultMap is intentionally not implemented for XML statements.
	// Rationale:
	//   1. Complexity: Full ResultMap implementation requires complex nested object mapping,
	//      association handling, and discriminator logic similar to MyBatis.
	//   2. Alternative: Users can achieve the same result using struct tags (column:"name")
	//      which is more idiomatic in Go and provides compile-time type safety.
	//   3. Usage: This feature is rarely needed in practice. Most use cases are covered by
	//      simple struct field mapping via tags.
	// If you need custom result mapping, consider implementing the sql.RowScanner interface
	// on your struct type for full control over the scanning process.
	return nil, sql.ErrResultMapNotSet
}

func (s *xmlSQLStatement) BindNodes() []*BindNode {
	return s.bindNodes
}

// Build builds the xmlSQLStatement with the given parameter.
func (s *xmlSQLStatement) Build(drv driver.Driver, scope *expr.Scope) (query string, args []any, err error) {
	compiled, err := compiler.Compile(s.Node, scope, drv)
	if err != nil {
		return "", nil, err
	}
	if len(compiled.Query) == 0 {
		return "", nil, fmt.Errorf("statement %q generated empty query after parameter processing: %w", s.Name(), ErrEmptyQuery)
	}
	return compiled.Query, compiled.Args, nil
}

// RawSQLStatement represents a raw SQL query with its parameters and action type.
// It implements the Statement interface and provides methods for query execution.
type RawSQLStatement struct {
	query  string
	action sql.Action
	attrs  map[string]string
	cfg    IConfiguration
	node   ast.Node
}

// hash generates a unique 64-bit FNV-1a hash of the SQL query.
// This hash is used for both ID and Name generation.
func (s RawSQLStatement) hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s.query))
	return h.Sum64()
}

// ID returns a unique identifier for the statement.
// Format: "id:" + hexadecimal hash of the query
func (s RawSQLStatement) ID() string {
	return "id:" + strconv.FormatUint(s.hash(), 16)
}

// Name returns a hexadecimal representation of the query hash.
// Used for identifying the statement in logs and debugging.
func (s RawSQLStatement) Name() string {
	return strconv.FormatUint(s.hash(), 16)
}

// Attribute returns
func (s RawSQLStatement) Attribute(key string) string {
	if s.attrs == nil {
		return ""
	}
	return s.attrs[key]
}

// Action returns the action of the RawSQLStatement.
func (s RawSQLStatement) Action() sql.Action {
	return s.action
}

// Configuration returns the Configuration the RawSQLStatement was built
// against, if any. A RawSQLStatement built outside an Engine (e.g. in a
// test) may have a nil Configuration.
func (s RawSQLStatement) Configuration() IConfiguration {
	return s.cfg
}

// ResultMap returns the ResultMap of the RawSQLStatement.
func (s RawSQLStatement) ResultMap() (sql.ResultMap, error) {
	// Design Decision: ResultMap is not supported for raw SQL statements.
	// Use struct tags or implement sql.RowScanner for custom result mapping.
	return nil, sql.ErrResultMapNotSet
}

// Build builds the RawSQLStatement with the given parameter.
func (s *RawSQLStatement) Build(drv driver.Driver, scope *expr.Scope) (query string, args []any, err error) {
	if s.node == nil {
		s.node, err = ast.NewTextNode(s.query)
		if err != nil {
			return "", nil, err
		}
	}
	compiled, err := compiler.Compile(s.node, scope, drv)
	if err != nil {
		return "", nil, err
	}
	if len(compiled.Query) == 0 {
		return "", nil, fmt.Errorf("raw SQL statement %q generated empty query after parameter processing: %w", s.Name(), ErrEmptyQuery)
	}
	return compiled.Query, compiled.Args, nil
}

// WithAttribute adds or updates a key-value pair to the statement's attribute map.
func (s *RawSQLStatement) WithAttribute(key, value string) *RawSQLStatement {
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.attrs[key] = value
	return s
}

// WithConfiguration attaches the Configuration the statement runs under,
// so middlewares can read settings (debug, timeout, dataSource, ...) off
// it the same way they do for mapper-defined statements.
func (s *RawSQLStatement) WithConfiguration(cfg IConfiguration) *RawSQLStatement {
	s.cfg = cfg
	return s
}

func (s *RawSQLStatement) BindNodes() []*BindNode {
	return nil
}

// NewRawSQLStatement creates a new raw SQL statement with the given query and action.
func NewRawSQLStatement(query string, action sql.Action) *RawSQLStatement {
	return &RawSQLStatement{
		query:  query,
		action: action,
	}
}
