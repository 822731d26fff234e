/*
Copyright (C) 2026  exprsearch contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package expr

import "math"

// Eval is the tree-walking reference evaluator: the JIT's oracle. It
// recurses post-order (left, then right, then apply op), mutates x/y in
// place for assignment and inc/dec forms, and sets *fatal without
// touching x/y further when a division, modulo, or power guard trips.
//
// fatal is sticky for the call: once true, the returned value is always
// 0 and no further mutation happens for the node that tripped it. Callers
// that recurse into subexpressions are responsible for checking fatal
// between steps if they care to short-circuit; Eval itself always
// completes its own subtree so that partial mutations below a fatal node
// remain exactly as naive_eval would leave them.
func Eval(e *Expr, x, y *int64, fatal *bool) int64 {
	switch e.Op {
	case Literal:
		return e.Literal
	case Var:
		return *x
	case VarY:
		return *y

	case PreInc, PreDec, PostInc, PostDec:
		target := variableTarget(e.Right, x, y)
		old := *target
		switch e.Op {
		case PreInc:
			*target = old + 1
			return *target
		case PreDec:
			*target = old - 1
			return *target
		case PostInc:
			*target = old + 1
			return old
		default: // PostDec
			*target = old - 1
			return old
		}

	case Neg:
		r := Eval(e.Right, x, y, fatal)
		return -r // wrapping negate
	case BitNot:
		r := Eval(e.Right, x, y, fatal)
		return ^r
	case Not:
		r := Eval(e.Right, x, y, fatal)
		if r == 0 {
			return 1
		}
		return 0
	case Parens:
		return Eval(e.Right, x, y, fatal)
	}

	if IsAssignment(e.Op) {
		target := variableTarget(e.Left, x, y)
		rhs := Eval(e.Right, x, y, fatal)
		switch e.Op {
		case AssignEq:
			*target = rhs
		case BitOrEq:
			*target = *target | rhs
		case BitXorEq:
			*target = *target ^ rhs
		case BitAndEq:
			*target = *target & rhs
		case BitShlEq:
			*target = *target << uint(rhs&63)
		case BitShrEq:
			*target = *target >> uint(rhs&63)
		case AddEq:
			*target = *target + rhs
		case SubEq:
			*target = *target - rhs
		case MulEq:
			*target = *target * rhs
		case DivEq:
			if divGuardTrips(*target, rhs) {
				*fatal = true
				return 0
			}
			*target = *target / rhs
		case ModEq:
			if divGuardTrips(*target, rhs) {
				*fatal = true
				return 0
			}
			*target = *target % rhs
		default:
			panic("exprsearch/expr: unhandled assignment operator")
		}
		return *target
	}

	// General binary forms: evaluate left, then right.
	l := Eval(e.Left, x, y, fatal)
	r := Eval(e.Right, x, y, fatal)
	switch e.Op {
	case Or:
		if l != 0 || r != 0 {
			return 1
		}
		return 0
	case And:
		if l != 0 && r != 0 {
			return 1
		}
		return 0
	case BitOr:
		return l | r
	case BitXor:
		return l ^ r
	case BitAnd:
		return l & r
	case Eq:
		return boolInt(l == r)
	case Neq:
		return boolInt(l != r)
	case Lt:
		return boolInt(l < r)
	case Leq:
		return boolInt(l <= r)
	case Gt:
		return boolInt(l > r)
	case Geq:
		return boolInt(l >= r)
	case BitShl:
		return l << uint(r&63)
	case BitShr:
		return l >> uint(r&63)
	case Add:
		return l + r
	case Sub:
		return l - r
	case Mul:
		return l * r
	case Div:
		if divGuardTrips(l, r) {
			*fatal = true
			return 0
		}
		return l / r
	case Mod:
		if divGuardTrips(l, r) {
			*fatal = true
			return 0
		}
		return l % r
	case Pow:
		return evalPow(l, r, fatal)
	}
	panic("exprsearch/expr: unhandled operator in Eval")
}

// variableTarget resolves e to the live storage it names. e must be
// exactly Var or VarY; any other shape is an operator-table-mismatch
// programmer error, never silently routed to y.
func variableTarget(e *Expr, x, y *int64) *int64 {
	switch e.Op {
	case Var:
		return x
	case VarY:
		return y
	default:
		panic("exprsearch/expr: assignment/inc-dec target is not Var or VarY")
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// divGuardTrips reports whether dividing dividend by divisor would
// divide by zero or overflow (INT64_MIN / -1).
func divGuardTrips(dividend, divisor int64) bool {
	if divisor == 0 {
		return true
	}
	if dividend == math.MinInt64 && divisor == -1 {
		return true
	}
	return false
}

// evalPow implements the power operator exactly as specified:
//   - e >= 0: iterated multiplication with overflow detection (fatal on
//     overflow).
//   - e <  0: base 1 -> 1; base -1 -> +-1 by exponent parity; base 0 ->
//     fatal; any other base -> 0.
func evalPow(base, exp int64, fatal *bool) int64 {
	if exp < 0 {
		switch base {
		case 0:
			*fatal = true
			return 0
		case 1:
			return 1
		case -1:
			if exp%2 == 0 {
				return 1
			}
			return -1
		default:
			return 0
		}
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			*fatal = true
			return 0
		}
		result = next
	}
	return result
}
