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
	"errors"
	"go/token"

	"github.com/dynsql/dynsql/value"
)

// ErrUnsupportedOperator is returned by binaryOperator for a go/token
// that has no meaning in the expression grammar (e.g. channel send).
var ErrUnsupportedOperator = errors.New("expr: unsupported operator")

// binaryFunc evaluates a fully-resolved pair of operands. Logical &&
// and || receive lazy right-hand sides so short-circuiting works
// without the caller needing to special-case them.
type binaryFunc func(lhs func() (value.Value, error), rhs func() (value.Value, error)) (value.Value, error)

func eager(f func(a, b value.Value) value.Value) binaryFunc {
	return func(lhs, rhs func() (value.Value, error)) (value.Value, error) {
		a, err := lhs()
		if err != nil {
			return value.Null, err
		}
		b, err := rhs()
		if err != nil {
			return value.Null, err
		}
		return f(a, b), nil
	}
}

// binaryOperator maps a go/token binary operator to its evaluator; the
// operand kind-handling lives inside the value package.
func binaryOperator(tok token.Token) (binaryFunc, error) {
	switch tok {
	case token.ADD:
		return eager(value.Add), nil
	case token.SUB:
		return eager(value.Sub), nil
	case token.MUL:
		return eager(value.Mul), nil
	case token.QUO:
		return eager(value.Quo), nil
	case token.REM:
		return eager(value.Rem), nil
	case token.AND:
		return eager(value.And), nil
	case token.OR:
		return eager(value.Or), nil
	case token.XOR:
		return eager(value.Xor), nil
	case token.EQL:
		return eager(value.Eq), nil
	case token.NEQ:
		return eager(value.Ne), nil
	case token.LSS:
		return eager(value.Lt), nil
	case token.LEQ:
		return eager(value.Le), nil
	case token.GTR:
		return eager(value.Gt), nil
	case token.GEQ:
		return eager(value.Ge), nil
	case token.LAND:
		return func(lhs, rhs func() (value.Value, error)) (value.Value, error) {
			a, err := lhs()
			if err != nil {
				return value.Null, err
			}
			if !a.Truthy() {
				return value.Bool(false), nil
			}
			b, err := rhs()
			if err != nil {
				return value.Null, err
			}
			return value.Bool(b.Truthy()), nil
		}, nil
	case token.LOR:
		return func(lhs, rhs func() (value.Value, error)) (value.Value, error) {
			a, err := lhs()
			if err != nil {
				return value.Null, err
			}
			if a.Truthy() {
				return value.Bool(true), nil
			}
			b, err := rhs()
			if err != nil {
				return value.Null, err
			}
			return value.Bool(b.Truthy()), nil
		}, nil
	default:
		return nil, ErrUnsupportedOperator
	}
}
