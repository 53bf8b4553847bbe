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

	"github.com/google/uuid"

	"github.com/dynsql/dynsql/value"
)

// builtin is a call target reachable from test=/#{}/${} bodies, e.g. len(x).
type builtin func(args []value.Value) (value.Value, error)

// builtins is the fixed set of call targets the expression grammar
// recognizes. There is no user-registration hook: mapper expressions
// are meant to stay declarative, so the set covers the string ops
// mapper conditions commonly need plus an id-generation helper.
var builtins = map[string]builtin{
	"len":         builtinLen,
	"contains":    builtinBinaryBool(value.Contains),
	"starts_with": builtinBinaryBool(value.StartsWith),
	"ends_with":   builtinBinaryBool(value.EndsWith),
	"uuid":        builtinUUID,
	"isnull":      builtinIsNull,
	"not_null":    builtinNotNull,
}

func arity(name string, args []value.Value, want int) error {
	if len(args) != want {
		return fmt.Errorf("expr: %s() wants %d argument(s), got %d", name, want, len(args))
	}
	return nil
}

func builtinLen(args []value.Value) (value.Value, error) {
	if err := arity("len", args, 1); err != nil {
		return value.Null, err
	}
	v := args[0]
	switch v.Kind() {
	case value.KindString:
		return value.I64(int64(len(v.String()))), nil
	case value.KindArray:
		return value.I64(int64(len(v.Array()))), nil
	case value.KindMap:
		return value.I64(int64(len(v.MapPairs()))), nil
	case value.KindNull:
		return value.I64(0), nil
	default:
		return value.Null, fmt.Errorf("expr: len() unsupported on %s", v.Kind())
	}
}

func builtinBinaryBool(f func(a, b value.Value) value.Value) builtin {
	return func(args []value.Value) (value.Value, error) {
		if err := arity("", args, 2); err != nil {
			return value.Null, err
		}
		return f(args[0], args[1]), nil
	}
}

// builtinUUID backs the domain-stack expansion's uuid() expression
// helper; generators also use ids.NewUUID directly when binding
// parameters, this is the expression-language entry point.
func builtinUUID(args []value.Value) (value.Value, error) {
	if err := arity("uuid", args, 0); err != nil {
		return value.Null, err
	}
	return value.String(uuid.NewString()), nil
}

func builtinIsNull(args []value.Value) (value.Value, error) {
	if err := arity("isnull", args, 1); err != nil {
		return value.Null, err
	}
	return value.Bool(args[0].IsNull()), nil
}

func builtinNotNull(args []value.Value) (value.Value, error) {
	if err := arity("not_null", args, 1); err != nil {
		return value.Null, err
	}
	return value.Bool(!args[0].IsNull()), nil
}
