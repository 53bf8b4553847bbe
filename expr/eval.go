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

package expr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/dynsql/dynsql/value"
)

// SyntaxError wraps a go/parser failure while compiling an expression.
type SyntaxError struct{ err error }

func (s *SyntaxError) Error() string { return fmt.Sprintf("expr: syntax error: %v", s.err) }
func (s *SyntaxError) Unwrap() error { return s.err }

// Expression is a compiled, evaluable test=/#{}/${} body.
type Expression interface {
	Execute(scope *Scope) (value.Value, error)
}

type compiled struct{ node ast.Expr }

func (c *compiled) Execute(scope *Scope) (value.Value, error) {
	return evalNode(c.node, scope)
}

// Compile parses expr (after word-operator rewriting) into an
// Expression. Syntax errors are reported here. Execute resolves unknown
// identifiers to null, but it still returns an error for an undefined
// function, an unsupported operator or expression form, or a builtin
// called with the wrong arguments.
func Compile(source string) (Expression, error) {
	rewritten := newLexer(source).tokenize()
	node, err := parser.ParseExpr(rewritten)
	if err != nil {
		return nil, &SyntaxError{err}
	}
	return &compiled{node: node}, nil
}

// Eval compiles and immediately executes expr against scope; a
// convenience used by call sites that don't need to cache the compiled
// form (e.g. a one-off test=).
func Eval(source string, scope *Scope) (value.Value, error) {
	expression, err := Compile(source)
	if err != nil {
		return value.Null, err
	}
	return expression.Execute(scope)
}

func evalNode(n ast.Expr, scope *Scope) (value.Value, error) {
	switch e := n.(type) {
	case *ast.BinaryExpr:
		return evalBinary(e, scope)
	case *ast.ParenExpr:
		return evalNode(e.X, scope)
	case *ast.BasicLit:
		return evalLit(e)
	case *ast.Ident:
		return evalIdent(e, scope)
	case *ast.SelectorExpr:
		return evalSelector(e, scope)
	case *ast.CallExpr:
		return evalCall(e, scope)
	case *ast.UnaryExpr:
		return evalUnary(e, scope)
	case *ast.IndexExpr:
		return evalIndex(e, scope)
	default:
		return value.Null, fmt.Errorf("expr: unsupported expression: %T", n)
	}
}

func evalBinary(e *ast.BinaryExpr, scope *Scope) (value.Value, error) {
	op, err := binaryOperator(e.Op)
	if err != nil {
		return value.Null, err
	}
	lhs := func() (value.Value, error) { return evalNode(e.X, scope) }
	rhs := func() (value.Value, error) { return evalNode(e.Y, scope) }
	return op(lhs, rhs)
}

func evalUnary(e *ast.UnaryExpr, scope *Scope) (value.Value, error) {
	x, err := evalNode(e.X, scope)
	if err != nil {
		return value.Null, err
	}
	switch e.Op {
	case token.SUB:
		return value.Neg(x), nil
	case token.ADD:
		return x, nil
	case token.NOT:
		return value.LNot(x), nil
	case token.XOR:
		return value.Not(x), nil
	default:
		return value.Null, fmt.Errorf("expr: unsupported unary operator: %v", e.Op)
	}
}

func evalIndex(e *ast.IndexExpr, scope *Scope) (value.Value, error) {
	x, err := evalNode(e.X, scope)
	if err != nil {
		return value.Null, err
	}
	idx, err := evalNode(e.Index, scope)
	if err != nil {
		return value.Null, err
	}
	return x.Index(idx), nil
}

func evalSelector(e *ast.SelectorExpr, scope *Scope) (value.Value, error) {
	x, err := evalNode(e.X, scope)
	if err != nil {
		return value.Null, err
	}
	return x.Member(e.Sel.Name), nil
}

func evalIdent(e *ast.Ident, scope *Scope) (value.Value, error) {
	switch e.Name {
	case "nil", "null":
		return value.Null, nil
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	}
	v, ok := scope.Get(e.Name)
	if !ok {
		return value.Null, nil
	}
	return v, nil
}

func evalLit(e *ast.BasicLit) (value.Value, error) {
	switch e.Kind {
	case token.INT:
		n, err := strconv.ParseInt(e.Value, 0, 64)
		if err != nil {
			return value.Null, err
		}
		return value.I64(n), nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return value.Null, err
		}
		return value.F64(f), nil
	case token.STRING, token.CHAR:
		s, err := strconv.Unquote(e.Value)
		if err != nil {
			// go/parser only accepts double-quoted/backtick Go strings.
			// newLexer requotes single-quoted literals before scanning,
			// so this only handles one that reaches here unconverted.
			if len(e.Value) >= 2 && e.Value[0] == '\'' && e.Value[len(e.Value)-1] == '\'' {
				s = e.Value[1 : len(e.Value)-1]
			} else {
				return value.Null, err
			}
		}
		return value.String(s), nil
	default:
		return value.Null, fmt.Errorf("expr: unsupported literal kind: %v", e.Kind)
	}
}

func evalCall(e *ast.CallExpr, scope *Scope) (value.Value, error) {
	ident, ok := e.Fun.(*ast.Ident)
	if !ok {
		return value.Null, fmt.Errorf("expr: unsupported call target: %T", e.Fun)
	}
	fn, ok := builtins[ident.Name]
	if !ok {
		return value.Null, fmt.Errorf("expr: undefined function: %s", ident.Name)
	}
	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := evalNode(a, scope)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}
	return fn(args)
}
