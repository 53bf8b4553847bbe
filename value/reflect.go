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

package value

import (
	"reflect"
	"time"

	"github.com/dynsql/dynsql/internal/reflectlite"
)

// ParamTag is the struct tag used to map an exported Go struct field to
// an argument-tree key other than the field name. Unexported fields are
// skipped whether or not they carry the tag, unless they are embedded.
const ParamTag = "param"

// FromAny flattens an arbitrary Go value into the Value tree used by
// the expression runtime and template compiler. It is the bridge
// between caller-supplied arguments (structs, maps, slices, scalars)
// and the tagged union described in the data model.
func FromAny(v any) Value {
	if v == nil {
		return Null
	}
	if val, ok := v.(Value); ok {
		return val
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	rv = reflectlite.Unwrap(rv)
	if !rv.IsValid() {
		return Null
	}

	switch t := rv.Interface().(type) {
	case time.Time:
		return Ext("DateTime", String(t.Format(time.RFC3339Nano)))
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return I32(int32(rv.Int()))
	case reflect.Int64:
		return I64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return U32(uint32(rv.Uint()))
	case reflect.Uint64:
		return U64(rv.Uint())
	case reflect.Float32:
		return F32(float32(rv.Float()))
	case reflect.Float64:
		return F64(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Binary(append([]byte(nil), rv.Bytes()...))
		}
		return sliceToValue(rv)
	case reflect.Array:
		return sliceToValue(rv)
	case reflect.Map:
		return mapToValue(rv)
	case reflect.Struct:
		return structToValue(rv)
	default:
		return Null
	}
}

func sliceToValue(rv reflect.Value) Value {
	n := rv.Len()
	elems := make([]Value, n)
	for i := 0; i < n; i++ {
		elems[i] = fromReflect(rv.Index(i))
	}
	return Array(elems...)
}

func mapToValue(rv reflect.Value) Value {
	keys := rv.MapKeys()
	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: fromReflect(k), Val: fromReflect(rv.MapIndex(k))})
	}
	return Map(pairs...)
}

func structToValue(rv reflect.Value) Value {
	t := rv.Type()
	pairs := make([]Pair, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" && !field.Anonymous {
			continue // unexported fields are skipped, tagged or not
		}
		name := field.Name
		if tag := field.Tag.Get(ParamTag); tag != "" && tag != "-" {
			name = tag
		} else if field.Tag.Get(ParamTag) == "-" {
			continue
		}
		pairs = append(pairs, Pair{Key: String(name), Val: fromReflect(rv.Field(i))})
	}
	return Map(pairs...)
}
