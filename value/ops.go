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

// Arithmetic implements + - * % for two values per the coercion lattice:
// strings concatenate under +, Null propagates to Null, division by zero
// yields Null rather than panicking, floats win over ints, mixed
// signed/unsigned integers widen to I64.
func Add(a, b Value) Value {
	ua, ub := a.Unwrap(), b.Unwrap()
	if ua.kind == KindNull || ub.kind == KindNull {
		return Null
	}
	if ua.kind == KindString || ub.kind == KindString {
		return String(ua.String() + ub.String())
	}
	if !isNumeric(ua.kind) || !isNumeric(ub.kind) {
		return Null
	}
	if isFloat(ua.kind) || isFloat(ub.kind) {
		return F64(ua.asFloat() + ub.asFloat())
	}
	if isUnsigned(ua.kind) && isUnsigned(ub.kind) {
		return U64(ua.u + ub.u)
	}
	return I64(ua.asInt() + ub.asInt())
}

func Sub(a, b Value) Value { return arith(a, b, func(x, y float64) float64 { return x - y }, func(x, y int64) int64 { return x - y }, func(x, y uint64) uint64 { return x - y }) }
func Mul(a, b Value) Value {
	return arith(a, b, func(x, y float64) float64 { return x * y }, func(x, y int64) int64 { return x * y }, func(x, y uint64) uint64 { return x * y })
}

func Quo(a, b Value) Value {
	ua, ub := a.Unwrap(), b.Unwrap()
	if ua.kind == KindNull || ub.kind == KindNull || !isNumeric(ua.kind) || !isNumeric(ub.kind) {
		return Null
	}
	if isFloat(ua.kind) || isFloat(ub.kind) {
		if ub.asFloat() == 0 {
			return Null
		}
		return F64(ua.asFloat() / ub.asFloat())
	}
	if isUnsigned(ua.kind) && isUnsigned(ub.kind) {
		if ub.u == 0 {
			return Null
		}
		return U64(ua.u / ub.u)
	}
	if ub.asInt() == 0 {
		return Null
	}
	return I64(ua.asInt() / ub.asInt())
}

func Rem(a, b Value) Value {
	ua, ub := a.Unwrap(), b.Unwrap()
	if ua.kind == KindNull || ub.kind == KindNull || !isNumeric(ua.kind) || !isNumeric(ub.kind) {
		return Null
	}
	if isFloat(ua.kind) || isFloat(ub.kind) {
		x, y := ua.asFloat(), ub.asFloat()
		if y == 0 {
			return Null
		}
		n := int64(x / y)
		return F64(x - float64(n)*y)
	}
	if isUnsigned(ua.kind) && isUnsigned(ub.kind) {
		if ub.u == 0 {
			return Null
		}
		return U64(ua.u % ub.u)
	}
	if ub.asInt() == 0 {
		return Null
	}
	return I64(ua.asInt() % ub.asInt())
}

func arith(a, b Value, ff func(x, y float64) float64, fi func(x, y int64) int64, fu func(x, y uint64) uint64) Value {
	ua, ub := a.Unwrap(), b.Unwrap()
	if ua.kind == KindNull || ub.kind == KindNull || !isNumeric(ua.kind) || !isNumeric(ub.kind) {
		return Null
	}
	if isFloat(ua.kind) || isFloat(ub.kind) {
		return F64(ff(ua.asFloat(), ub.asFloat()))
	}
	if isUnsigned(ua.kind) && isUnsigned(ub.kind) {
		return U64(fu(ua.u, ub.u))
	}
	return I64(fi(ua.asInt(), ub.asInt()))
}

func Neg(a Value) Value {
	u := a.Unwrap()
	if !isNumeric(u.kind) {
		return Null
	}
	if isFloat(u.kind) {
		return F64(-u.f)
	}
	if isUnsigned(u.kind) {
		return I64(-int64(u.u))
	}
	return I64(-u.i)
}

// Bitwise: defined on integer tags; bool/bool returns bool (logical);
// mixed with anything else returns Null.
func And(a, b Value) Value { return bitwise(a, b, func(x, y int64) int64 { return x & y }, func(x, y bool) bool { return x && y }) }
func Or(a, b Value) Value  { return bitwise(a, b, func(x, y int64) int64 { return x | y }, func(x, y bool) bool { return x || y }) }
func Xor(a, b Value) Value { return bitwise(a, b, func(x, y int64) int64 { return x ^ y }, func(x, y bool) bool { return x != y }) }

func bitwise(a, b Value, fi func(x, y int64) int64, fb func(x, y bool) bool) Value {
	ua, ub := a.Unwrap(), b.Unwrap()
	if ua.kind == KindBool && ub.kind == KindBool {
		return Bool(fb(ua.b, ub.b))
	}
	if isInteger(ua.kind) && isInteger(ub.kind) {
		return I64(fi(ua.asInt(), ub.asInt()))
	}
	return Null
}

func Not(a Value) Value {
	u := a.Unwrap()
	if isInteger(u.kind) {
		return I64(^u.asInt())
	}
	return Null
}

// Eq/Ne/Lt/Le/Gt/Ge implement comparison per §4.1.
func Eq(a, b Value) Value { return Bool(Equal(a, b)) }
func Ne(a, b Value) Value { return Bool(!Equal(a, b)) }

func Lt(a, b Value) Value { r, ok := Less(a, b); return Bool(ok && r) }
func Le(a, b Value) Value { lt, ok := Less(a, b); return Bool(ok && (lt || Equal(a, b))) }
func Gt(a, b Value) Value { lt, ok := Less(b, a); return Bool(ok && lt) }
func Ge(a, b Value) Value { lt, ok := Less(a, b); return Bool(ok && !lt) }

// Logical &&, ||, ! operate on truthiness, not strict bool typing.
func LAnd(a, b Value) Value { return Bool(a.Truthy() && b.Truthy()) }
func LOr(a, b Value) Value  { return Bool(a.Truthy() || b.Truthy()) }
func LNot(a Value) Value    { return Bool(!a.Truthy()) }

// String operations: contains/starts_with/ends_with, defined on String,
// false for any other kind.
func Contains(a, substr Value) Value {
	u, s := a.Unwrap(), substr.Unwrap()
	if u.kind != KindString || s.kind != KindString {
		return Bool(false)
	}
	return Bool(indexOf(u.s, s.s) >= 0)
}

func StartsWith(a, prefix Value) Value {
	u, p := a.Unwrap(), prefix.Unwrap()
	if u.kind != KindString || p.kind != KindString {
		return Bool(false)
	}
	return Bool(len(u.s) >= len(p.s) && u.s[:len(p.s)] == p.s)
}

func EndsWith(a, suffix Value) Value {
	u, s := a.Unwrap(), suffix.Unwrap()
	if u.kind != KindString || s.kind != KindString {
		return Bool(false)
	}
	return Bool(len(u.s) >= len(s.s) && u.s[len(u.s)-len(s.s):] == s.s)
}

func indexOf(s, substr string) int {
	if len(substr) == 0 {
		return 0
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
