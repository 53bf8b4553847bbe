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

package value

import "time"

// ToAny is the inverse of FromAny: it unwraps a Value back into the
// plain Go type database/sql's driver.Valuer machinery already knows
// how to bind (bool, int64, uint64, float64, string, []byte, nil, or
// time.Time for the Ext("DateTime", ...) tag). It is the last step
// before a #{} placeholder's argument reaches *sql.DB.
func ToAny(v Value) any {
	if v.ExtTag() == "DateTime" {
		if t, err := time.Parse(time.RFC3339Nano, v.Unwrap().String()); err == nil {
			return t
		}
	}
	v = v.Unwrap()
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindI32, KindI64:
		return v.i
	case KindU32, KindU64:
		return v.u
	case KindF32, KindF64:
		return v.f
	case KindString:
		return v.s
	case KindBinary:
		return v.bin
	case KindExt:
		if v.ExtTag() == "DateTime" {
			if t, err := time.Parse(time.RFC3339Nano, v.Unwrap().String()); err == nil {
				return t
			}
		}
		return v.Unwrap().IntoSQL()
	default:
		return v.IntoSQL()
	}
}

// ToAnySlice converts a slice of Values, in order, to their driver-ready
// equivalents for a single placeholder argument list.
func ToAnySlice(vs []Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = ToAny(v)
	}
	return out
}
