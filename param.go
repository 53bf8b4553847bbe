package juice

import (
	"context"

	"github.com/dynsql/dynsql/compiler"
	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/internal/ctxreducer"
	"github.com/dynsql/dynsql/value"
)

// Param is whatever value a caller passes to QueryContext/ExecContext;
// it can be a struct, a map, a slice for batch operations, or a scalar.
// Turning it into something a statement can evaluate against happens in
// buildStatementScope, via compiler.NewScope.
type Param = any

// H is a convenience map type for passing ad hoc parameters without
// declaring a struct.
type H map[string]any

// ParamFromContext returns the parameter a statement handler stashed in
// ctx, or nil if none was.
func ParamFromContext(ctx context.Context) Param {
	return ctxreducer.ParamFromContext(ctx)
}

// CtxWithParam returns a new context carrying param, the same way a
// statement handler's context reducer does.
func CtxWithParam(ctx context.Context, param Param) context.Context {
	return ctxreducer.NewParamContextReducer(param).Reduce(ctx)
}

// buildStatementScope turns a caller's parameter into the expr.Scope a
// statement's Build evaluates against. _databaseId is bound alongside
// the root parameter so a statement can branch on driver name
// (<if test="_databaseId == 'mysql'">). If
// the statement declares a paramName attribute, the whole parameter is
// additionally bound under that name, letting a mapper written against
// a custom root key keep working without every field needing rewriting.
func buildStatementScope(param any, statement Statement, driverName string) *expr.Scope {
	scope := compiler.NewScope(param)
	scope.Bind("_databaseId", value.String(driverName))
	if paramName := statement.Attribute("paramName"); paramName != "" {
		scope.Bind(paramName, value.FromAny(param))
	}
	return scope
}
