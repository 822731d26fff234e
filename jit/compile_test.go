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

package jit

import (
	"math"
	"testing"

	"github.com/carli2/exprsearch/expr"
)

func lit(v int64) *expr.Expr                          { return expr.NewLiteral(v) }
func varX() *expr.Expr                                { return expr.NewVar() }
func varY() *expr.Expr                                { return expr.NewVarY() }
func bin(op expr.Op, l, r *expr.Expr) *expr.Expr      { return expr.NewBinary(op, l, r) }
func un(op expr.Op, r *expr.Expr) *expr.Expr          { return expr.NewUnary(op, r) }
func asg(op expr.Op, l, r *expr.Expr) *expr.Expr      { return expr.NewAssign(op, l, r) }

// checkDifferential compiles e and compares it against the reference
// evaluator on every probe point: equal return value and post-state,
// except where the oracle goes fatal, where the JIT must return 0.
func checkDifferential(t *testing.T, e *expr.Expr) {
	t.Helper()
	Compile(e)
	defer e.Release()

	for x0 := int64(-4); x0 <= 4; x0++ {
		for y0 := int64(-4); y0 <= 4; y0++ {
			x, y := x0, y0
			var fatal bool
			want := expr.Eval(e, &x, &y, &fatal)

			xj, yj := x0, y0
			got := e.Native(&xj, &yj)

			if fatal {
				if got != 0 {
					t.Fatalf("at (%d,%d): oracle fatal, jit returned %d", x0, y0, got)
				}
				continue
			}
			if got != want {
				t.Fatalf("at (%d,%d): jit %d, oracle %d", x0, y0, got, want)
			}
			if xj != x || yj != y {
				t.Fatalf("at (%d,%d): jit post-state (%d,%d), oracle (%d,%d)", x0, y0, xj, yj, x, y)
			}
		}
	}
}

func TestCompileDifferentialBinaryOps(t *testing.T) {
	for _, op := range expr.BinaryOperators {
		op := op
		t.Run(expr.Info(op).Glyph, func(t *testing.T) {
			checkDifferential(t, bin(op, varX(), varY()))
			checkDifferential(t, bin(op, varY(), lit(2)))
			checkDifferential(t, bin(op, lit(-3), varX()))
		})
	}
}

func TestCompileDifferentialUnaryOps(t *testing.T) {
	for _, op := range expr.UnaryPrefixOperators {
		checkDifferential(t, un(op, varX()))
		checkDifferential(t, un(op, varY()))
	}
}

func TestCompileDifferentialIncDec(t *testing.T) {
	for _, op := range expr.IncDecOperators {
		checkDifferential(t, un(op, varX()))
		checkDifferential(t, un(op, varY()))
	}
}

func TestCompileDifferentialAssignments(t *testing.T) {
	for _, op := range expr.AssignOperators {
		op := op
		t.Run(expr.Info(op).Glyph, func(t *testing.T) {
			checkDifferential(t, asg(op, varX(), varY()))
			checkDifferential(t, asg(op, varX(), lit(2)))
			checkDifferential(t, asg(op, varY(), varX()))
		})
	}
}

func TestCompileDifferentialNested(t *testing.T) {
	cases := []*expr.Expr{
		bin(expr.Add, un(expr.PostInc, varX()), varX()),
		bin(expr.Mul, expr.NewParens(bin(expr.Add, varX(), varY())), lit(2)),
		asg(expr.AddEq, varX(), bin(expr.Mul, varY(), varY())),
		bin(expr.Sub, bin(expr.BitShl, varX(), lit(2)), varY()),
		bin(expr.And, bin(expr.Lt, varX(), varY()), bin(expr.Gt, varX(), lit(-2))),
	}
	for _, e := range cases {
		checkDifferential(t, e)
	}
}

func TestCompileDivByZeroReturnsZeroWithoutMutation(t *testing.T) {
	e := asg(expr.DivEq, varX(), lit(0))
	Compile(e)
	defer e.Release()

	x, y := int64(10), int64(0)
	if got := e.Native(&x, &y); got != 0 {
		t.Fatalf("x/=0 jit returned %d, want 0", got)
	}
	if x != 10 {
		t.Fatalf("x/=0 mutated x to %d, want 10 unchanged", x)
	}
}

func TestCompileDivOverflowReturnsZeroWithoutMutation(t *testing.T) {
	e := asg(expr.DivEq, varX(), lit(-1))
	Compile(e)
	defer e.Release()

	x, y := int64(math.MinInt64), int64(0)
	if got := e.Native(&x, &y); got != 0 {
		t.Fatalf("MinInt64/=-1 jit returned %d, want 0", got)
	}
	if x != math.MinInt64 {
		t.Fatalf("MinInt64/=-1 mutated x to %d, want unchanged", x)
	}
}

func TestCompilePostIncValueIdentity(t *testing.T) {
	e := bin(expr.Add, un(expr.PostInc, varX()), varX())
	Compile(e)
	defer e.Release()

	x, y := int64(5), int64(0)
	if got := e.Native(&x, &y); got != 11 {
		t.Fatalf("(x++)+x at x=5 jit returned %d, want 11", got)
	}
	if x != 6 {
		t.Fatalf("(x++)+x left x=%d, want 6", x)
	}
}

func TestCompilePowNegativeOddExponent(t *testing.T) {
	e := bin(expr.Pow, varX(), varY())
	Compile(e)
	defer e.Release()

	x, y := int64(-1), int64(-3)
	if got := e.Native(&x, &y); got != -1 {
		t.Fatalf("-1 ** -3 jit returned %d, want -1", got)
	}
}

func TestCompileWrappingAdd(t *testing.T) {
	e := bin(expr.Add, varX(), lit(1))
	Compile(e)
	defer e.Release()

	x, y := int64(math.MaxInt64), int64(0)
	if got := e.Native(&x, &y); got != math.MinInt64 {
		t.Fatalf("MaxInt64+1 jit returned %d, want wraparound to MinInt64", got)
	}
}

func TestCompileLiteralRange(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128, 1 << 40, -(1 << 40), math.MaxInt64, math.MinInt64} {
		e := bin(expr.Add, lit(v), lit(0))
		Compile(e)
		x, y := int64(0), int64(0)
		if got := e.Native(&x, &y); got != v {
			t.Fatalf("literal %d came back as %d", v, got)
		}
		e.Release()
	}
}
